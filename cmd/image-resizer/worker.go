package main

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-resizer/internal/api/handlers/job"
	reporthttp "github.com/aliskhannn/image-resizer/internal/api/handlers/report"
	"github.com/aliskhannn/image-resizer/internal/api/router"
	"github.com/aliskhannn/image-resizer/internal/api/server"
	"github.com/aliskhannn/image-resizer/internal/batch"
	"github.com/aliskhannn/image-resizer/internal/config"
	"github.com/aliskhannn/image-resizer/internal/executor"
	"github.com/aliskhannn/image-resizer/internal/infra/kafka/consumer"
	"github.com/aliskhannn/image-resizer/internal/infra/kafka/producer"
	batchmsg "github.com/aliskhannn/image-resizer/internal/kafka/handlers/batch"
	"github.com/aliskhannn/image-resizer/internal/model"
	reportrepo "github.com/aliskhannn/image-resizer/internal/repository/report"
)

// reportSaver is nil when report persistence is disabled.
type reportSaver interface {
	SaveReport(ctx context.Context, report model.BatchReport) error
}

// serveJobs consumes batch jobs from Kafka and serves the HTTP API until
// ctx is canceled.
func serveJobs(ctx context.Context, cfg *config.Config, exec *executor.Executor) {
	// Retry strategy for Kafka and other external calls.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	var (
		db            *dbpg.DB
		saver         reportSaver
		reportHandler *reporthttp.Handler
	)
	if cfg.Database.Enabled {
		db = connectDB(cfg.Database)
		repo := reportrepo.NewRepository(db)
		saver = repo
		reportHandler = reporthttp.NewHandler(repo)
	}

	reports := producer.New(&cfg.Kafka, cfg.Kafka.ReportsTopic, strategy)
	jobs := producer.New(&cfg.Kafka, cfg.Kafka.Topic, strategy)

	handler := batchmsg.NewJobHandler(batch.New(exec), saver, reports)
	c := consumer.New(&cfg.Kafka, strategy, handler)

	var wg sync.WaitGroup
	wg.Add(1)
	go c.Consume(ctx, &wg)

	jobHandler := job.NewHandler(jobs, jobDefaults(cfg.Resize))
	s := server.New(cfg.Server.HTTPPort, router.Setup(jobHandler, reportHandler))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Block until context is canceled (SIGINT/SIGTERM).
	<-ctx.Done()
	zlog.Logger.Info().Msg("context done")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}

	// Wait for the consumer and the task it may still be running.
	wg.Wait()
	if !exec.WaitAll(shutdownCtx) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

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

	if err := reports.Client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close kafka reports producer client")
	}
	if err := jobs.Client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close kafka jobs producer client")
	}
	if err := c.Client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close kafka consumer client")
	}
}

// connectDB connects to PostgreSQL master and slaves.
func connectDB(cfg config.Database) *dbpg.DB {
	opts := &dbpg.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}

	slaveDSNs := make([]string, 0, len(cfg.Slaves))
	for _, s := range cfg.Slaves {
		slaveDSNs = append(slaveDSNs, s.DSN())
	}

	db, err := dbpg.New(cfg.Master.DSN(), slaveDSNs, opts)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	return db
}

// jobDefaults fills the fields an HTTP job submission may leave out.
func jobDefaults(r config.Resize) model.BatchJob {
	return model.BatchJob{
		OutputDir:        r.OutputDir,
		Width:            r.Width,
		Height:           r.Height,
		KeepAspect:       r.KeepAspect,
		Quality:          r.Quality,
		Format:           r.Format,
		PreserveMetadata: r.PreserveMetadata,
	}
}
