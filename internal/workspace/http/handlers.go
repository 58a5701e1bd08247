package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quantumcode/quantumcode-backend/internal/auth"
	"github.com/quantumcode/quantumcode-backend/internal/logging"
	projhttp "github.com/quantumcode/quantumcode-backend/internal/projects/http"
	"github.com/quantumcode/quantumcode-backend/internal/workspace/domain"
	"github.com/quantumcode/quantumcode-backend/internal/workspace/service"
)

type Handler struct {
	svc *service.WorkspaceService
	log *zap.Logger
}

func New(svc *service.WorkspaceService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

// Register attaches workspace routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.get)
	rg.POST("/open", h.open)
	rg.PUT("/buffer", h.edit)
	rg.POST("/save", h.save)
	rg.DELETE("", h.close)
}

type openReq struct {
	ProjectID string `json:"project_id"`
	FileID    string `json:"file_id"`
	Discard   bool   `json:"discard"`
}

type editReq struct {
	Content *string `json:"content"`
}

func (h *Handler) get(c *gin.Context) {
	sess, err := h.svc.Get(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": sess})
}

func (h *Handler) open(c *gin.Context) {
	var req openReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	sess, err := h.svc.Open(c.Request.Context(), auth.UserFirebaseUID(c), req.ProjectID, req.FileID, req.Discard)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": sess})
}

func (h *Handler) edit(c *gin.Context) {
	var req editReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "content is required"})
		return
	}
	sess, err := h.svc.Edit(c.Request.Context(), auth.UserFirebaseUID(c), *req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": sess})
}

func (h *Handler) save(c *gin.Context) {
	sess, err := h.svc.Save(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": sess})
}

func (h *Handler) close(c *gin.Context) {
	if err := h.svc.Close(c.Request.Context(), auth.UserFirebaseUID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNoSession):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrUnsavedChanges):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrMissingFileArgs):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	default:
		status := projhttp.StatusFor(err)
		if status == http.StatusInternalServerError {
			logging.FromContext(c.Request.Context(), h.log).Error("workspace request failed", zap.String("path", c.FullPath()), zap.Error(err))
			c.JSON(status, gin.H{"ok": false, "error": "internal error"})
			return
		}
		c.JSON(status, gin.H{"ok": false, "error": err.Error()})
	}
}
