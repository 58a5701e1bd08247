package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumcode/quantumcode-backend/internal/auth"
	projdomain "github.com/quantumcode/quantumcode-backend/internal/projects/domain"
	projrepo "github.com/quantumcode/quantumcode-backend/internal/projects/repository"
	projservice "github.com/quantumcode/quantumcode-backend/internal/projects/service"
	"github.com/quantumcode/quantumcode-backend/internal/projects/templates"
)

type execResp struct {
	OK     bool   `json:"ok"`
	Output string `json:"output"`
	Clear  bool   `json:"clear"`
	Error  string `json:"error"`
}

func setupRouter(t *testing.T) (*gin.Engine, *projdomain.Project) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog, err := templates.Builtin()
	require.NoError(t, err)
	projects := projservice.NewProjectService(projrepo.NewMemoryStore(), catalog, nil, nil)
	p, err := projects.Create(context.Background(), "alice", projdomain.CreateProjectInput{Name: "site", Template: "web"})
	require.NoError(t, err)

	r := gin.New()
	g := r.Group("/terminal", func(c *gin.Context) { c.Set(auth.CtxFirebaseUID, "alice") })
	New(projects, nil).Register(g)
	return r, p
}

func exec(t *testing.T, r http.Handler, body string) (int, execResp) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/terminal/exec", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp execResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestExecHandler(t *testing.T) {
	r, p := setupRouter(t)

	t.Run("ls reads the project", func(t *testing.T) {
		code, resp := exec(t, r, `{"line":"ls *.css","project_id":"`+p.ID+`"}`)
		require.Equal(t, http.StatusOK, code)
		assert.True(t, resp.OK)
		assert.Equal(t, "style.css", resp.Output)
	})

	t.Run("whoami falls back to uid", func(t *testing.T) {
		_, resp := exec(t, r, `{"line":"whoami"}`)
		assert.Equal(t, "alice", resp.Output)
	})

	t.Run("clear flag", func(t *testing.T) {
		_, resp := exec(t, r, `{"line":"clear"}`)
		assert.True(t, resp.Clear)
		assert.Empty(t, resp.Output)
	})

	t.Run("unknown command", func(t *testing.T) {
		code, resp := exec(t, r, `{"line":"vim"}`)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "command not found: vim", resp.Output)
	})

	t.Run("unknown project", func(t *testing.T) {
		code, resp := exec(t, r, `{"line":"ls","project_id":"qc-0"}`)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "project not found", resp.Error)
	})

	t.Run("bad body", func(t *testing.T) {
		code, resp := exec(t, r, `{`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.False(t, resp.OK)
	})

	t.Run("line too long", func(t *testing.T) {
		code, _ := exec(t, r, `{"line":"echo `+strings.Repeat("a", maxLineLength)+`"}`)
		assert.Equal(t, http.StatusBadRequest, code)
	})
}
