package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const checkTimeout = time.Second

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// PingFunc reports whether a dependency is reachable.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	serviceName string
	version     string
	checks      map[string]PingFunc
	info        map[string]func() string
}

func NewHealthHandler(serviceName, version string) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		checks:      make(map[string]PingFunc),
		info:        make(map[string]func() string),
	}
}

// AddCheck registers a dependency; a failing check marks the service degraded.
func (h *HealthHandler) AddCheck(name string, ping PingFunc) {
	h.checks[name] = ping
}

// AddInfo registers a value reported as-is without affecting the status.
func (h *HealthHandler) AddInfo(name string, value func() string) {
	h.info[name] = value
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(h.checks)+len(h.info))
	healthy := true
	for _, name := range names {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		err := h.checks[name](pingCtx)
		cancel()
		if err != nil {
			results[name] = "down"
			healthy = false
			continue
		}
		results[name] = "up"
	}
	for name, value := range h.info {
		results[name] = value()
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Checks:    results,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
