// Package analyses serves saved resume-vs-job analyses.
package analyses

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fitcheck-web/internal/gateway"
	"fitcheck-web/internal/shared/server/respond"
	"fitcheck-web/internal/shared/telemetry"
	"fitcheck-web/internal/web/views"
)

const (
	msgLoadFailed   = "Failed to load analysis. Please try again."
	msgDeleteFailed = "Failed to delete analysis. Please try again."
	msgNotFound     = "Analysis not found"

	// AfterDeletePath is where a successful delete lands.
	AfterDeletePath = "/dashboard?deleted=1"
)

// Backend loads and deletes saved analyses.
type Backend interface {
	GetAnalysis(ctx context.Context, id string) (gateway.SavedAnalysis, error)
	DeleteAnalysis(ctx context.Context, id string) error
}

// Handler wires HTTP handlers to the backend's analyses.
type Handler struct {
	backend Backend
}

// NewHandler constructs a Handler.
func NewHandler(backend Backend) *Handler {
	return &Handler{backend: backend}
}

// RegisterRoutes attaches analysis routes. They must sit behind guard.Require.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/analyses/:id", h.getAnalysis)
	r.POST("/analyses/:id", h.deleteAnalysis)
}

func (h *Handler) getAnalysis(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	analysis, err := h.backend.GetAnalysis(c.Request.Context(), id)
	if err != nil {
		if isNotFound(err) {
			respond.Fail(c, http.StatusNotFound, "not_found", msgNotFound)
			return
		}
		logFailure(c, "analyses.get_failed", id, err)
		h.render(c, http.StatusBadGateway, nil, msgLoadFailed)
		return
	}
	h.render(c, http.StatusOK, &analysis, "")
}

func (h *Handler) deleteAnalysis(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	err := h.backend.DeleteAnalysis(c.Request.Context(), id)
	switch {
	case err == nil:
		telemetry.Info("analyses.deleted", map[string]any{"analysis_id": id, "request_id": c.GetString("requestId")})
		c.Redirect(http.StatusSeeOther, AfterDeletePath)
		return
	case isNotFound(err):
		respond.Fail(c, http.StatusNotFound, "not_found", msgNotFound)
		return
	}

	logFailure(c, "analyses.delete_failed", id, err)
	// Keep the analysis on screen when it can still be loaded.
	var current *gateway.SavedAnalysis
	if analysis, getErr := h.backend.GetAnalysis(c.Request.Context(), id); getErr == nil {
		current = &analysis
	}
	h.render(c, http.StatusBadGateway, current, msgDeleteFailed)
}

func (h *Handler) render(c *gin.Context, status int, analysis *gateway.SavedAnalysis, errMsg string) {
	title := "Saved analysis"
	if analysis != nil && analysis.JobPost.Title != "" {
		title = analysis.JobPost.Title
	}
	page := views.For(c, title, "dashboard")
	page.Error = errMsg
	if analysis != nil {
		page.Data = analysis
	}
	c.HTML(status, "analysis", page)
}

func isNotFound(err error) bool {
	var apiErr *gateway.APIError
	return errors.As(err, &apiErr) && apiErr.NotFound()
}

func logFailure(c *gin.Context, msg, id string, err error) {
	telemetry.Warn(msg, map[string]any{
		"analysis_id": id,
		"error":       err,
		"request_id":  c.GetString("requestId"),
	})
}
