package report

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-resizer/internal/api/respond"
	"github.com/aliskhannn/image-resizer/internal/model"
	"github.com/aliskhannn/image-resizer/internal/repository/report"
)

// repository defines the interface for stored batch reports.
type repository interface {
	GetReport(ctx context.Context, id uuid.UUID) (model.BatchReport, error)
	DeleteReport(ctx context.Context, id uuid.UUID) error
}

// Handler serves stored batch reports.
type Handler struct {
	repo repository
}

// NewHandler creates a new Handler with the given repository.
func NewHandler(r repository) *Handler {
	return &Handler{repo: r}
}

// reportView is the JSON shape of a report with its counters.
type reportView struct {
	model.BatchReport
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Get returns the batch report with the given ID.
func (h *Handler) Get(c *ginext.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid id: %v", err))
		return
	}

	r, err := h.repo.GetReport(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, report.ErrReportNotFound) {
			respond.Fail(c, http.StatusNotFound, report.ErrReportNotFound)
			return
		}

		zlog.Logger.Err(err).Str("batch_id", id.String()).Msg("failed to get report")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to get report"))
		return
	}

	respond.OK(c, reportView{BatchReport: r, Succeeded: r.Succeeded(), Failed: r.Failed()})
}

// Delete removes the batch report with the given ID.
func (h *Handler) Delete(c *ginext.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid id: %v", err))
		return
	}

	if err := h.repo.DeleteReport(c.Request.Context(), id); err != nil {
		if errors.Is(err, report.ErrReportNotFound) {
			respond.Fail(c, http.StatusNotFound, report.ErrReportNotFound)
			return
		}

		zlog.Logger.Err(err).Str("batch_id", id.String()).Msg("failed to delete report")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to delete report"))
		return
	}

	c.Status(http.StatusNoContent)
}
