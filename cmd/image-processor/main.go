package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-filter/internal/api/handlers/batch"
	"github.com/aliskhannn/image-filter/internal/api/router"
	"github.com/aliskhannn/image-filter/internal/api/server"
	"github.com/aliskhannn/image-filter/internal/app"
	"github.com/aliskhannn/image-filter/internal/config"
	"github.com/aliskhannn/image-filter/internal/infra/kafka/consumer"
	"github.com/aliskhannn/image-filter/internal/infra/kafka/producer"
	batchmsg "github.com/aliskhannn/image-filter/internal/kafka/handlers/batch"
	"github.com/aliskhannn/image-filter/internal/model"
	batchrepo "github.com/aliskhannn/image-filter/internal/repository/batch"
	batchsvc "github.com/aliskhannn/image-filter/internal/service/batch"
)

func main() {
	// Context & signals: used for graceful shutdown on system interrupts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger and load application configuration.
	zlog.Init()
	cfg := config.MustLoad("./config/config.yml")

	// Outcome repository: PostgreSQL when enabled, process memory otherwise.
	var (
		db   *dbpg.DB
		repo interface {
			SaveOutcome(ctx context.Context, o model.Outcome) error
			GetOutcome(ctx context.Context, id uuid.UUID) (model.Outcome, error)
		}
	)
	if cfg.Database.Enabled {
		opts := &dbpg.Options{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}

		slaveDNSs := make([]string, 0, len(cfg.Database.Slaves))
		for _, s := range cfg.Database.Slaves {
			slaveDNSs = append(slaveDNSs, s.DSN())
		}

		var err error
		db, err = dbpg.New(cfg.Database.Master.DSN(), slaveDNSs, opts)
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		repo = batchrepo.NewRepository(db)
	} else {
		zlog.Logger.Warn().Msg("database disabled, outcomes are kept in memory")
		repo = batchrepo.NewMemoryRepository()
	}

	// Retry strategy for Kafka calls.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	// Initialize file storage (local directory or MinIO).
	storage, err := app.NewFileStorage(ctx, cfg.Storage)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to storage")
	}

	runner := app.NewRunner(cfg.Batch, storage)

	// Kafka: consume batch requests, publish outcomes.
	var (
		p       *producer.Producer
		c       *consumer.Consumer
		service *batchsvc.Service
	)
	if cfg.Kafka.Enabled {
		p = producer.New(&cfg.Kafka, strategy)
		service = batchsvc.NewService(runner, repo, p)
		c = consumer.New(&cfg.Kafka, strategy, batchmsg.NewRequestHandler(service))
	} else {
		service = batchsvc.NewService(runner, repo, nil)
	}

	var wg sync.WaitGroup
	if c != nil {
		wg.Add(1)
		go c.Consume(ctx, &wg)
	}

	// Start HTTP server in a separate goroutine.
	r := router.Setup(batch.NewHandler(service))
	s := server.New(cfg.Server.HTTPPort, r)
	go func() {
		zlog.Logger.Info().Str("addr", cfg.Server.HTTPPort).Int("workers", runner.Workers()).Msg("starting server")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Block until context is canceled (SIGINT/SIGTERM).
	<-ctx.Done()
	zlog.Logger.Info().Msg("context done")

	// Wait for Kafka consumer goroutine to finish.
	wg.Wait()

	// Graceful shutdown with timeout for HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	// Close master and slave databases.
	if db != nil {
		if err := db.Master.Close(); err != nil {
			zlog.Logger.Printf("failed to close master DB: %v", err)
		}
		for i, s := range db.Slaves {
			if err := s.Close(); err != nil {
				zlog.Logger.Printf("failed to close slave DB %d: %v", i, err)
			}
		}
	}

	// Close Kafka producer and consumer clients.
	if p != nil {
		if err := p.Client.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close kafka producer client")
		}
	}
	if c != nil {
		if err := c.Client.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close kafka consumer client")
		}
	}
}
