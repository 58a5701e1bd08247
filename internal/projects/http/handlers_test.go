package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/quantumcode/quantumcode-backend/internal/api/http/middleware"
	"github.com/quantumcode/quantumcode-backend/internal/auth"
	"github.com/quantumcode/quantumcode-backend/internal/projects/domain"
	"github.com/quantumcode/quantumcode-backend/internal/projects/repository"
	"github.com/quantumcode/quantumcode-backend/internal/projects/service"
	"github.com/quantumcode/quantumcode-backend/internal/projects/templates"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog, err := templates.Builtin()
	require.NoError(t, err)
	svc := service.NewProjectService(repository.NewMemoryStore(), catalog, nil, nil)

	r := gin.New()
	g := r.Group("/projects", func(c *gin.Context) {
		uid := c.GetHeader("X-User-Id")
		if uid == "" {
			uid = "alice"
		}
		c.Set(auth.CtxFirebaseUID, uid)
	})
	New(svc, nil).Register(g)
	return r
}

func call(t *testing.T, r http.Handler, method, path, body string, out any) int {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

type projectResp struct {
	OK      bool           `json:"ok"`
	Project domain.Project `json:"project"`
	Error   string         `json:"error"`
}

type fileResp struct {
	OK   bool        `json:"ok"`
	File domain.File `json:"file"`
}

func createProject(t *testing.T, r http.Handler) domain.Project {
	t.Helper()
	var resp projectResp
	code := call(t, r, http.MethodPost, "/projects", `{"name":"Site","description":"demo"}`, &resp)
	require.Equal(t, http.StatusCreated, code)
	require.True(t, resp.OK)
	return resp.Project
}

func TestCreateAndGet(t *testing.T) {
	r := setupRouter(t)
	p := createProject(t, r)
	assert.Len(t, p.Files, 3)

	var got projectResp
	code := call(t, r, http.MethodGet, "/projects/"+p.ID, "", &got)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Site", got.Project.Name)

	req := httptest.NewRequest(http.MethodGet, "/projects/"+p.ID, nil)
	req.Header.Set("X-User-Id", "mallory")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreate_BadInput(t *testing.T) {
	r := setupRouter(t)

	var resp projectResp
	assert.Equal(t, http.StatusBadRequest, call(t, r, http.MethodPost, "/projects", `{"name":""}`, &resp))
	assert.False(t, resp.OK)
	assert.Equal(t, http.StatusBadRequest, call(t, r, http.MethodPost, "/projects", `{"name":"x","template":"nope"}`, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, r, http.MethodPost, "/projects", `{`, nil))
}

func TestListAndTemplates(t *testing.T) {
	r := setupRouter(t)
	createProject(t, r)

	var list struct {
		Projects []domain.ProjectSummary `json:"projects"`
	}
	assert.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/projects", "", &list))
	require.Len(t, list.Projects, 1)
	assert.Equal(t, 3, list.Projects[0].FileCount)

	var tmpl struct {
		Templates []templates.Template `json:"templates"`
	}
	assert.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/projects/templates", "", &tmpl))
	assert.Len(t, tmpl.Templates, 3)
}

func TestUpdateAndDelete(t *testing.T) {
	r := setupRouter(t)
	p := createProject(t, r)

	var resp projectResp
	assert.Equal(t, http.StatusOK, call(t, r, http.MethodPatch, "/projects/"+p.ID, `{"name":"Renamed"}`, &resp))
	assert.Equal(t, "Renamed", resp.Project.Name)
	assert.Equal(t, "demo", resp.Project.Description)

	assert.Equal(t, http.StatusOK, call(t, r, http.MethodDelete, "/projects/"+p.ID, "", nil))
	assert.Equal(t, http.StatusNotFound, call(t, r, http.MethodDelete, "/projects/"+p.ID, "", nil))
}

func TestFileLifecycle(t *testing.T) {
	r := setupRouter(t)
	p := createProject(t, r)
	base := "/projects/" + p.ID + "/files"

	var added fileResp
	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, base, `{"path":"src/app.ts","content":"let x = 1"}`, &added))
	assert.Equal(t, "typescript", added.File.Language)

	assert.Equal(t, http.StatusConflict, call(t, r, http.MethodPost, base, `{"path":"src/app.ts"}`, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, r, http.MethodPost, base, `{"path":"../x"}`, nil))

	var saved fileResp
	require.Equal(t, http.StatusOK, call(t, r, http.MethodPut, base+"/"+added.File.ID, `{"content":"let x = 2"}`, &saved))
	assert.Equal(t, "let x = 2", saved.File.Content)
	assert.Equal(t, http.StatusBadRequest, call(t, r, http.MethodPut, base+"/"+added.File.ID, `{}`, nil))

	var got fileResp
	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, base+"/"+added.File.ID, "", &got))
	assert.Equal(t, "let x = 2", got.File.Content)

	var moved fileResp
	require.Equal(t, http.StatusOK, call(t, r, http.MethodPatch, base+"/"+added.File.ID, `{"path":"lib/app.js"}`, &moved))
	assert.Equal(t, "app.js", moved.File.Name)
	assert.Equal(t, "javascript", moved.File.Language)

	var files struct {
		Files []domain.File `json:"files"`
	}
	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, base+"?glob=**/*.js", "", &files))
	require.Len(t, files.Files, 2)
	assert.Empty(t, files.Files[0].Content)

	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, base+"?glob=lib/*&content=true", "", &files))
	require.Len(t, files.Files, 1)
	assert.Equal(t, "let x = 2", files.Files[0].Content)

	assert.Equal(t, http.StatusOK, call(t, r, http.MethodDelete, base+"/"+added.File.ID, "", nil))
	assert.Equal(t, http.StatusNotFound, call(t, r, http.MethodGet, base+"/"+added.File.ID, "", nil))
}

func TestTree(t *testing.T) {
	r := setupRouter(t)
	p := createProject(t, r)
	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, "/projects/"+p.ID+"/files", `{"path":"assets/img/logo.svg"}`, nil))

	var resp struct {
		Tree domain.TreeNode `json:"tree"`
	}
	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/projects/"+p.ID+"/tree", "", &resp))
	require.NotEmpty(t, resp.Tree.Children)
	assets := resp.Tree.Children[0]
	assert.Equal(t, "assets", assets.Name)
	assert.Equal(t, domain.NodeFolder, assets.Type)
	assert.Equal(t, "assets/img/logo.svg", assets.Children[0].Children[0].Path)
}

type brokenStore struct {
	repository.Store
}

func (brokenStore) List(context.Context, string) ([]domain.ProjectSummary, error) {
	return nil, errors.New("connection reset")
}

func TestFail_LogsWithRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	catalog, err := templates.Builtin()
	require.NoError(t, err)
	svc := service.NewProjectService(brokenStore{}, catalog, nil, nil)

	r := gin.New()
	r.Use(middleware.RequestID(zap.New(core)))
	g := r.Group("/projects", func(c *gin.Context) { c.Set(auth.CtxFirebaseUID, "alice") })
	New(svc, nil).Register(g)

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set(middleware.HeaderRequestID, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"internal error"}`, w.Body.String())

	failed := logs.FilterMessage("project request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "rid-1", failed[0].ContextMap()["request_id"])
}
