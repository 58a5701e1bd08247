package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quantumcode/quantumcode-backend/internal/assistant/domain"
	"github.com/quantumcode/quantumcode-backend/internal/assistant/service"
	"github.com/quantumcode/quantumcode-backend/internal/auth"
	"github.com/quantumcode/quantumcode-backend/internal/logging"
	projhttp "github.com/quantumcode/quantumcode-backend/internal/projects/http"
)

type Handler struct {
	svc     *service.AssistantService
	limiter *UserRateLimiter
	log     *zap.Logger
}

// New builds the handler. limiter may be nil to disable rate limiting.
func New(svc *service.AssistantService, limiter *UserRateLimiter, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, limiter: limiter, log: log}
}

// Register attaches assistant routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	if h.limiter != nil {
		rg.POST("/ask", h.limiter.Middleware(), h.Ask)
	} else {
		rg.POST("/ask", h.Ask)
	}
	rg.GET("/history", h.History)
	rg.DELETE("/history", h.ClearHistory)
}

type askReq struct {
	Message   string `json:"message"`
	ProjectID string `json:"project_id"`
	FileID    string `json:"file_id"`
}

// Ask handles POST /assistant/ask
func (h *Handler) Ask(c *gin.Context) {
	var req askReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	ans, err := h.svc.Ask(c.Request.Context(), auth.UserFirebaseUID(c), domain.AskInput{
		ProjectID: req.ProjectID,
		FileID:    req.FileID,
		Message:   req.Message,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "reply": ans.Reply, "intent": ans.Intent, "at": ans.At})
}

// History handles GET /assistant/history?project_id=
func (h *Handler) History(c *gin.Context) {
	turns, err := h.svc.History(c.Request.Context(), auth.UserFirebaseUID(c), c.Query("project_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "turns": turns})
}

// ClearHistory handles DELETE /assistant/history?project_id=
func (h *Handler) ClearHistory(c *gin.Context) {
	if err := h.svc.ClearHistory(c.Request.Context(), auth.UserFirebaseUID(c), c.Query("project_id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// StatusFor maps assistant and project errors to an HTTP status and the
// message shown to the user.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrBusy):
		return http.StatusTooManyRequests, domain.ErrBusy.Error()
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusServiceUnavailable, domain.ErrNotConfigured.Error()
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable, domain.ErrUnavailable.Error()
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, domain.ErrUpstream.Error()
	}
	status := projhttp.StatusFor(err)
	if status == http.StatusInternalServerError {
		return status, "internal error"
	}
	return status, err.Error()
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, msg := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context(), h.log).Error("assistant request failed", zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"ok": false, "error": msg})
}
