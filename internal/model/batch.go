package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/image-filter/internal/filter"
)

// Request describes one batch run: the ordered images to process and the
// single filter applied to all of them.
type Request struct {
	ID          uuid.UUID   `json:"id"`
	Paths       []string    `json:"paths"`       // input order is report order, duplicates allowed
	Filter      filter.Kind `json:"filter"`      // "grayscale" / "sepia"
	Destination string      `json:"destination"` // directory or key prefix; empty means storage root
	Overwrite   bool        `json:"overwrite"`
}

// Stage is the lifecycle position of a single unit of work.
type Stage string

const (
	StagePending      Stage = "pending"
	StageDecoding     Stage = "decoding"
	StageTransforming Stage = "transforming"
	StagePersisting   Stage = "persisting"
	StageSucceeded    Stage = "succeeded"
	StageFailed       Stage = "failed"
)

// Terminal reports whether s is a final state.
func (s Stage) Terminal() bool {
	return s == StageSucceeded || s == StageFailed
}

// Result is the terminal status of one image in a batch.
type Result struct {
	Index    int           `json:"index"`
	Source   string        `json:"source"`
	Output   string        `json:"output,omitempty"`
	Stage    Stage         `json:"stage"`
	FailedAt Stage         `json:"failed_at,omitempty"` // stage that produced the error
	Kind     ErrorKind     `json:"kind,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Succeeded reports whether the unit persisted its output.
func (r Result) Succeeded() bool {
	return r.Stage == StageSucceeded
}

// Outcome aggregates every Result of a batch in input order.
type Outcome struct {
	ID          uuid.UUID   `json:"id"`
	Filter      filter.Kind `json:"filter"`
	Destination string      `json:"destination"`
	Results     []Result    `json:"results"`
	Succeeded   int         `json:"succeeded"`
	Failed      int         `json:"failed"`
	StartedAt   time.Time   `json:"started_at"`
	FinishedAt  time.Time   `json:"finished_at"`
}

// Successes returns the succeeded results in input order.
func (o Outcome) Successes() []Result {
	return o.byStatus(true)
}

// Failures returns the failed results in input order.
func (o Outcome) Failures() []Result {
	return o.byStatus(false)
}

// OK reports whether no unit failed. An empty batch is OK.
func (o Outcome) OK() bool {
	return o.Failed == 0
}

func (o Outcome) byStatus(succeeded bool) []Result {
	out := make([]Result, 0, len(o.Results))
	for _, r := range o.Results {
		if r.Succeeded() == succeeded {
			out = append(out, r)
		}
	}

	return out
}

// Tally recomputes the Succeeded and Failed counters from Results.
func (o *Outcome) Tally() {
	o.Succeeded, o.Failed = 0, 0
	for _, r := range o.Results {
		if r.Succeeded() {
			o.Succeeded++
		} else {
			o.Failed++
		}
	}
}
