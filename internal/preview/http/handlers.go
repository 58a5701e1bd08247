package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quantumcode/quantumcode-backend/internal/auth"
	"github.com/quantumcode/quantumcode-backend/internal/logging"
	"github.com/quantumcode/quantumcode-backend/internal/metrics"
	"github.com/quantumcode/quantumcode-backend/internal/preview"
	projdomain "github.com/quantumcode/quantumcode-backend/internal/projects/domain"
	projhttp "github.com/quantumcode/quantumcode-backend/internal/projects/http"
	"github.com/quantumcode/quantumcode-backend/internal/projects/repository"
)

// ProjectReader loads a project for its owner.
type ProjectReader interface {
	Get(ctx context.Context, ownerID, projectID string) (*projdomain.Project, error)
}

// EventSource subscribes to a project's change events.
type EventSource interface {
	Subscribe(ctx context.Context, projectID string) (*repository.Subscription, error)
}

type Handler struct {
	projects  ProjectReader
	events    EventSource
	metrics   *metrics.Metrics
	log       *zap.Logger
	keepAlive time.Duration
}

// New builds the preview handler. events and m may be nil; without events
// the live-reload stream answers 503.
func New(projects ProjectReader, events EventSource, m *metrics.Metrics, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		projects:  projects,
		events:    events,
		metrics:   m,
		log:       log,
		keepAlive: 15 * time.Second,
	}
}

// Register attaches preview routes to the projects router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/:id/preview", h.Preview)
	rg.GET("/:id/preview/document", h.Document)
	rg.GET("/:id/events", h.StreamProjectEvents)
}

// Preview serves the rendered document for a sandboxed iframe src.
func (h *Handler) Preview(c *gin.Context) {
	doc, ok := h.render(c)
	if !ok {
		return
	}

	c.Header("Content-Security-Policy", "sandbox "+preview.Sandbox)
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.HTML))
}

// Document returns the rendered document as JSON for an iframe srcdoc.
func (h *Handler) Document(c *gin.Context) {
	doc, ok := h.render(c)
	if !ok {
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"ok": true, "html": doc.HTML, "entry": doc.EntryPath, "kind": doc.Kind, "sandbox": doc.Sandbox})
}

func (h *Handler) render(c *gin.Context) (*preview.Document, bool) {
	p, err := h.projects.Get(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}

	doc, err := preview.Render(p, c.Query("entry"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	if h.metrics != nil {
		h.metrics.PreviewRenders.WithLabelValues(string(doc.Kind)).Inc()
	}
	return doc, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, preview.ErrNotRenderable) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	status := projhttp.StatusFor(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context(), h.log).Error("preview failed", zap.String("project_id", c.Param("id")), zap.Error(err))
		c.JSON(status, gin.H{"ok": false, "error": "failed to render preview"})
		return
	}
	c.JSON(status, gin.H{"ok": false, "error": err.Error()})
}
