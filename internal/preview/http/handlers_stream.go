package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quantumcode/quantumcode-backend/internal/auth"
	"github.com/quantumcode/quantumcode-backend/internal/logging"
	projdomain "github.com/quantumcode/quantumcode-backend/internal/projects/domain"
)

// StreamProjectEvents streams project changes using Server-Sent Events (SSE)
// so the preview frame can reload after a save.
func (h *Handler) StreamProjectEvents(c *gin.Context) {
	projectID := c.Param("id")
	if h.events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "live reload is not available"})
		return
	}

	// Verify the project exists and user has access
	p, err := h.projects.Get(c.Request.Context(), auth.UserFirebaseUID(c), projectID)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()

	// Subscribe before the initial event so nothing published after it is lost
	sub, err := h.events.Subscribe(ctx, projectID)
	if err != nil {
		logging.FromContext(c.Request.Context(), h.log).Error("subscribe to project events failed", zap.String("project_id", projectID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to subscribe"})
		return
	}
	defer sub.Close()

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "streaming unsupported"})
		return
	}

	c.Status(http.StatusOK)
	writeEvent(c, "initial", gin.H{"project": p.Summary()})
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Client disconnected
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case ev, ok := <-sub.Events:
			if !ok {
				return
			}
			if ev.Type == projdomain.EventProjectDeleted {
				writeEvent(c, "deleted", gin.H{"event": "deleted", "project_id": projectID})
				flusher.Flush()
				return
			}
			writeEvent(c, "update", gin.H{"event": ev})
			flusher.Flush()
		}
	}
}

func writeEvent(c *gin.Context, name string, payload any) {
	data, _ := json.Marshal(payload)
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", name, string(data))
}
