package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quantumcode/quantumcode-backend/internal/auth"
	"github.com/quantumcode/quantumcode-backend/internal/logging"
	"github.com/quantumcode/quantumcode-backend/internal/projects/domain"
	projhttp "github.com/quantumcode/quantumcode-backend/internal/projects/http"
	"github.com/quantumcode/quantumcode-backend/internal/terminal"
)

const maxLineLength = 4096

type ProjectReader interface {
	Get(ctx context.Context, ownerID, projectID string) (*domain.Project, error)
}

type Handler struct {
	projects ProjectReader
	log      *zap.Logger
}

func New(projects ProjectReader, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{projects: projects, log: log}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/exec", h.Exec)
}

type execReq struct {
	Line      string `json:"line"`
	ProjectID string `json:"project_id"`
}

// Exec handles POST /terminal/exec
func (h *Handler) Exec(c *gin.Context) {
	var req execReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if len(req.Line) > maxLineLength {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "line too long"})
		return
	}

	uid := auth.UserFirebaseUID(c)
	env := terminal.Env{User: uid}
	if id := auth.IdentityFrom(c); id != nil && id.Email != "" {
		env.User = id.Email
	}

	if req.ProjectID != "" {
		p, err := h.projects.Get(c.Request.Context(), uid, req.ProjectID)
		if err != nil {
			status := projhttp.StatusFor(err)
			if status == http.StatusInternalServerError {
				logging.FromContext(c.Request.Context(), h.log).Error("terminal project lookup failed", zap.String("project_id", req.ProjectID), zap.Error(err))
			}
			msg := err.Error()
			if errors.Is(err, domain.ErrNotFound) {
				msg = "project not found"
			}
			c.JSON(status, gin.H{"ok": false, "error": msg})
			return
		}
		env.Project = p
	}

	res := terminal.Exec(req.Line, env)
	c.JSON(http.StatusOK, gin.H{"ok": true, "output": res.Output, "clear": res.Clear})
}
