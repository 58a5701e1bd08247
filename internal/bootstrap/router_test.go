package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumcode/quantumcode-backend/config"
	httpapi "github.com/quantumcode/quantumcode-backend/internal/api/http"
	"github.com/quantumcode/quantumcode-backend/internal/assistant/provider"
	assistantrepo "github.com/quantumcode/quantumcode-backend/internal/assistant/repository"
	assistantservice "github.com/quantumcode/quantumcode-backend/internal/assistant/service"
	"github.com/quantumcode/quantumcode-backend/internal/metrics"
	projrepo "github.com/quantumcode/quantumcode-backend/internal/projects/repository"
	projservice "github.com/quantumcode/quantumcode-backend/internal/projects/service"
	"github.com/quantumcode/quantumcode-backend/internal/projects/templates"
	workspacerepo "github.com/quantumcode/quantumcode-backend/internal/workspace/repository"
	workspaceservice "github.com/quantumcode/quantumcode-backend/internal/workspace/service"
)

type echoProvider struct{}

func (echoProvider) Name() string { return "echo" }

func (echoProvider) Generate(_ context.Context, req provider.Request) (string, error) {
	return "answer", nil
}

func devConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", CORSOrigins: []string{"http://localhost:3000"}},
		App:       config.AppConfig{Environment: "test", Version: "test"},
		Auth:      config.AuthConfig{Mode: config.AuthModeDev, CookieName: "qc_session"},
		Store:     config.StoreConfig{Backend: config.StoreMemory},
		Assistant: config.AssistantConfig{Provider: config.ProviderGemini, RatePerMin: 5},
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	SetGinMode("test")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := devConfig()
	m := metrics.New()
	store := projrepo.NewMemoryStore()
	catalog, err := templates.Builtin()
	require.NoError(t, err)

	events := projrepo.NewEventBus(rdb, m)
	projects := projservice.NewProjectService(store, catalog, events, nil)
	workspace := workspaceservice.NewWorkspaceService(projects, workspacerepo.NewSessionRepository(rdb), nil)
	projects.AddDeleteHook(workspace)
	assistant := assistantservice.NewAssistantService(echoProvider{}, assistantrepo.NewHistoryRepository(rdb), projects, m, time.Second, nil)

	health := httpapi.NewHealthHandler("quantumcode-backend", "test")
	health.AddCheck("store", store.Ping)
	health.AddCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })

	return BuildRouter(RouterDeps{
		Config:    cfg,
		Metrics:   m,
		Health:    health,
		Projects:  projects,
		Events:    events,
		Workspace: workspace,
		Assistant: assistant,
	})
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestRouter_EndToEnd(t *testing.T) {
	r := newTestRouter(t)

	w, body := do(t, r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w, body = do(t, r, http.MethodPost, "/api/v1/projects", `{"name":"Site","template":"web"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	project := body["project"].(map[string]any)
	id := project["id"].(string)
	assert.True(t, strings.HasPrefix(id, "qc-"))

	w, _ = do(t, r, http.MethodGet, "/api/v1/projects/"+id+"/tree", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/v1/projects/"+id+"/preview", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hello, QuantumCode!")

	w, body = do(t, r, http.MethodPost, "/api/v1/terminal/exec", `{"line":"ls","project_id":"`+id+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "index.html\nscript.js\nstyle.css", body["output"])

	w, body = do(t, r, http.MethodPost, "/api/v1/assistant/ask", `{"message":"explain this"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "answer", body["reply"])
	assert.Equal(t, "explain", body["intent"])

	w, body = do(t, r, http.MethodGet, "/api/v1/auth/me", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", body["user"].(map[string]any)["uid"])

	w, _ = do(t, r, http.MethodDelete, "/api/v1/projects/"+id, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `quantumcode_http_requests_total{method="POST",route="/api/v1/projects",status="201"} 1`)
	assert.Contains(t, w.Body.String(), `quantumcode_assistant_calls_total{intent="explain",outcome="ok"} 1`)
}

func TestRouter_DevModeHasNoSessionExchange(t *testing.T) {
	r := newTestRouter(t)

	w, body := do(t, r, http.MethodPost, "/api/v1/auth/session", `{"id_token":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, false, body["ok"])

	w, _ = do(t, r, http.MethodPost, "/api/v1/auth/logout", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
