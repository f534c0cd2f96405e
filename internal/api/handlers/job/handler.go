package job

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-resizer/internal/api/respond"
	"github.com/aliskhannn/image-resizer/internal/model"
)

var validate = validator.New()

// publisher defines the interface for queueing batch jobs.
type publisher interface {
	PublishJob(ctx context.Context, job model.BatchJob) error
}

// Handler accepts batch jobs over HTTP and queues them for the worker.
type Handler struct {
	publisher publisher
	defaults  model.BatchJob
}

// NewHandler creates a new Handler. Fields missing from a request are taken
// from defaults.
func NewHandler(p publisher, defaults model.BatchJob) *Handler {
	return &Handler{publisher: p, defaults: defaults}
}

// SubmitRequest is the body of POST /api/jobs.
type SubmitRequest struct {
	Paths            []string `json:"paths" validate:"required,min=1,dive,required"`
	OutputDir        *string  `json:"output_dir"`
	Width            *int     `json:"width" validate:"omitempty,min=1,max=20000"`
	Height           *int     `json:"height" validate:"omitempty,min=1,max=20000"`
	KeepAspect       *bool    `json:"keep_aspect"`
	Quality          *int     `json:"quality" validate:"omitempty,min=1,max=100"`
	Format           *string  `json:"format"`
	PreserveMetadata *bool    `json:"preserve_metadata"`
}

// Submit validates the request and queues it as a batch job.
func (h *Handler) Submit(c *ginext.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %v", err))
		return
	}

	job, err := h.build(req)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, err)
		return
	}

	if err := h.publisher.PublishJob(c.Request.Context(), job); err != nil {
		zlog.Logger.Err(err).Str("job_id", job.ID.String()).Msg("failed to queue job")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to queue job"))
		return
	}

	zlog.Logger.Info().
		Str("job_id", job.ID.String()).
		Int("paths", len(job.Paths)).
		Msg("job queued")

	respond.Accepted(c, map[string]interface{}{
		"id":    job.ID,
		"paths": len(job.Paths),
	})
}

func (h *Handler) build(req SubmitRequest) (model.BatchJob, error) {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return model.BatchJob{}, fmt.Errorf("invalid field %s", verrs[0].Field())
		}
		return model.BatchJob{}, err
	}

	job := h.defaults
	job.ID = uuid.New()
	job.Paths = req.Paths

	if req.OutputDir != nil {
		job.OutputDir = *req.OutputDir
	}
	if req.Width != nil {
		job.Width = *req.Width
	}
	if req.Height != nil {
		job.Height = *req.Height
	}
	if req.KeepAspect != nil {
		job.KeepAspect = *req.KeepAspect
	}
	if req.Quality != nil {
		job.Quality = *req.Quality
	}
	if req.Format != nil {
		job.Format = *req.Format
	}
	if req.PreserveMetadata != nil {
		job.PreserveMetadata = *req.PreserveMetadata
	}

	format, err := model.ParseFormat(job.Format)
	if err != nil {
		return model.BatchJob{}, err
	}
	job.Format = format.String()

	return job, nil
}
