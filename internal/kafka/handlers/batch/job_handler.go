package batch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-resizer/internal/batch"
	"github.com/aliskhannn/image-resizer/internal/model"
)

// orchestrator defines the interface for running a batch of paths.
type orchestrator interface {
	Clear() error
	AddPaths(paths ...string) (int, error)
	Start(ctx context.Context, params batch.Params) (*batch.Session, error)
}

// reportSaver defines the interface for persisting finished reports.
type reportSaver interface {
	SaveReport(ctx context.Context, report model.BatchReport) error
}

// reportPublisher defines the interface for publishing finished reports.
type reportPublisher interface {
	PublishReport(ctx context.Context, report model.BatchReport) error
}

// JobHandler handles Kafka messages carrying batch jobs.
// Each job replaces the orchestrator queue and runs to completion before
// the next message is handled.
type JobHandler struct {
	orchestrator orchestrator
	saver        reportSaver     // optional
	publisher    reportPublisher // optional
}

// NewJobHandler creates a new handler. saver and publisher may be nil.
func NewJobHandler(o orchestrator, saver reportSaver, publisher reportPublisher) *JobHandler {
	return &JobHandler{
		orchestrator: o,
		saver:        saver,
		publisher:    publisher,
	}
}

// Handle unmarshals the job, runs it, then stores and publishes the report.
// Item failures are part of the report and do not fail the message.
func (h *JobHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var job model.BatchJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		return fmt.Errorf("unmarshal job: %w", err)
	}

	params, err := paramsFromJob(job)
	if err != nil {
		return fmt.Errorf("job %s: %w", job.ID, err)
	}

	report, err := h.run(ctx, job.Paths, params)
	if err != nil {
		return fmt.Errorf("run job %s: %w", job.ID, err)
	}

	zlog.Logger.Info().
		Str("job_id", job.ID.String()).
		Str("batch_id", report.ID.String()).
		Int("succeeded", report.Succeeded()).
		Int("failed", report.Failed()).
		Msg("batch job processed")

	if h.saver != nil {
		if err := h.saver.SaveReport(ctx, report); err != nil {
			return fmt.Errorf("save report %s: %w", report.ID, err)
		}
	}

	if h.publisher != nil {
		if err := h.publisher.PublishReport(ctx, report); err != nil {
			return fmt.Errorf("publish report %s: %w", report.ID, err)
		}
	}

	return nil
}

func (h *JobHandler) run(ctx context.Context, paths []string, params batch.Params) (model.BatchReport, error) {
	if err := h.orchestrator.Clear(); err != nil {
		return model.BatchReport{}, err
	}

	if _, err := h.orchestrator.AddPaths(paths...); err != nil {
		return model.BatchReport{}, err
	}

	session, err := h.orchestrator.Start(ctx, params)
	if err != nil {
		return model.BatchReport{}, err
	}

	// Items fail fast once ctx is canceled, so the session always finishes.
	return session.Wait(context.WithoutCancel(ctx))
}

func paramsFromJob(job model.BatchJob) (batch.Params, error) {
	format, err := model.ParseFormat(job.Format)
	if err != nil {
		return batch.Params{}, err
	}

	return batch.Params{
		Width:            job.Width,
		Height:           job.Height,
		KeepAspect:       job.KeepAspect,
		Quality:          job.Quality,
		Format:           format,
		PreserveMetadata: job.PreserveMetadata,
		OutputDir:        job.OutputDir,
	}, nil
}
