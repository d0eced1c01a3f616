package batch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/aliskhannn/image-filter/internal/filter"
	"github.com/aliskhannn/image-filter/internal/model"
)

var ErrBatchNotFound = errors.New("batch not found")

// tx is the part of *sql.Tx used to save an outcome.
type tx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Commit() error
	Rollback() error
}

// Repository stores batch outcomes in PostgreSQL.
type Repository struct {
	db    *dbpg.DB
	begin func(ctx context.Context) (tx, error)
}

// NewRepository creates a new Repository with the given DB connection.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{
		db: db,
		begin: func(ctx context.Context) (tx, error) {
			return db.Master.BeginTx(ctx, nil)
		},
	}
}

const (
	upsertBatchQuery = `
		INSERT INTO batches (id, filter, destination, succeeded, failed, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			filter = EXCLUDED.filter,
			destination = EXCLUDED.destination,
			succeeded = EXCLUDED.succeeded,
			failed = EXCLUDED.failed,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at
	`

	deleteResultsQuery = `DELETE FROM batch_results WHERE batch_id = $1`

	insertResultQuery = `
		INSERT INTO batch_results (batch_id, idx, source, output, stage, failed_at, kind, error, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
)

// SaveOutcome writes the batch header and one row per result in a single
// transaction. Saving the same batch ID again replaces the stored outcome.
func (r *Repository) SaveOutcome(ctx context.Context, o model.Outcome) (err error) {
	t, err := r.begin(ctx)
	if err != nil {
		return fmt.Errorf("save: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = t.Rollback()
		}
	}()

	if _, err = t.ExecContext(ctx, upsertBatchQuery, batchArgs(o)...); err != nil {
		return fmt.Errorf("save: failed to save batch: %w", err)
	}

	if _, err = t.ExecContext(ctx, deleteResultsQuery, o.ID); err != nil {
		return fmt.Errorf("save: failed to clear results: %w", err)
	}

	for _, res := range o.Results {
		if _, err = t.ExecContext(ctx, insertResultQuery, resultArgs(o.ID, res)...); err != nil {
			return fmt.Errorf("save: failed to save result %d: %w", res.Index, err)
		}
	}

	if err = t.Commit(); err != nil {
		return fmt.Errorf("save: failed to commit: %w", err)
	}

	return nil
}

func batchArgs(o model.Outcome) []any {
	return []any{o.ID, o.Filter.String(), o.Destination, o.Succeeded, o.Failed, o.StartedAt, o.FinishedAt}
}

func resultArgs(id uuid.UUID, res model.Result) []any {
	return []any{
		id, res.Index, res.Source, res.Output, string(res.Stage),
		string(res.FailedAt), string(res.Kind), res.Error, res.Duration.Milliseconds(),
	}
}

// resultRow mirrors one batch_results row as scanned.
type resultRow struct {
	index      int
	source     string
	output     string
	stage      string
	failedAt   string
	kind       string
	errMsg     string
	durationMS int64
}

func (row resultRow) result() model.Result {
	return model.Result{
		Index:    row.index,
		Source:   row.source,
		Output:   row.output,
		Stage:    model.Stage(row.stage),
		FailedAt: model.Stage(row.failedAt),
		Kind:     model.ErrorKind(row.kind),
		Error:    row.errMsg,
		Duration: time.Duration(row.durationMS) * time.Millisecond,
	}
}

// GetOutcome loads a batch and its results ordered by input position.
func (r *Repository) GetOutcome(ctx context.Context, id uuid.UUID) (model.Outcome, error) {
	query := `
		SELECT filter, destination, succeeded, failed, started_at, finished_at
		FROM batches
		WHERE id = $1
	`

	var o model.Outcome
	var filterName string

	// Reads go to the master: outcomes are usually fetched right after SaveOutcome.
	err := r.db.Master.QueryRowContext(ctx, query, id).Scan(
		&filterName, &o.Destination, &o.Succeeded, &o.Failed, &o.StartedAt, &o.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Outcome{}, ErrBatchNotFound
		}

		return model.Outcome{}, fmt.Errorf("get: failed to get batch: %w", err)
	}

	if o.Filter, err = filter.ParseKind(filterName); err != nil {
		return model.Outcome{}, fmt.Errorf("get: %w", err)
	}
	o.ID = id

	query = `
		SELECT idx, source, output, stage, failed_at, kind, error, duration_ms
		FROM batch_results
		WHERE batch_id = $1
		ORDER BY idx
	`

	rows, err := r.db.Master.QueryContext(ctx, query, id)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("get: failed to get results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row resultRow
		if err := rows.Scan(
			&row.index, &row.source, &row.output, &row.stage, &row.failedAt, &row.kind, &row.errMsg, &row.durationMS,
		); err != nil {
			return model.Outcome{}, fmt.Errorf("get: failed to scan result: %w", err)
		}

		o.Results = append(o.Results, row.result())
	}
	if err := rows.Err(); err != nil {
		return model.Outcome{}, fmt.Errorf("get: failed to iterate results: %w", err)
	}

	return o, nil
}
