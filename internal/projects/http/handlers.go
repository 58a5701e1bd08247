package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quantumcode/quantumcode-backend/internal/auth"
	"github.com/quantumcode/quantumcode-backend/internal/projects/domain"
)

func (h *Handler) templates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "templates": h.svc.Templates()})
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.svc.Create(c.Request.Context(), auth.UserFirebaseUID(c), domain.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Template:    req.Template,
		Temporary:   req.IsTemporary,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) update(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.svc.Update(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), domain.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) tree(c *gin.Context) {
	root, err := h.svc.Tree(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tree": root})
}

// listFiles returns file metadata, optionally filtered by ?glob=.
// Contents are included only with ?content=true.
func (h *Handler) listFiles(c *gin.Context) {
	files, err := h.svc.FindFiles(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Query("glob"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !strings.EqualFold(c.Query("content"), "true") {
		for i := range files {
			files[i].Content = ""
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "files": files})
}

func (h *Handler) getFile(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	f, _ := p.FileByID(c.Param("fileId"))
	if f == nil {
		h.fail(c, domain.ErrFileNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "file": f})
}

func (h *Handler) addFile(c *gin.Context) {
	var req addFileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	f, err := h.svc.AddFile(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), req.Path, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "file": f})
}

func (h *Handler) saveFile(c *gin.Context) {
	var req saveFileReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "content is required"})
		return
	}

	f, err := h.svc.SaveFile(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("fileId"), *req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "file": f})
}

func (h *Handler) renameFile(c *gin.Context) {
	var req renameFileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	f, err := h.svc.RenameFile(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("fileId"), req.Path)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "file": f})
}

func (h *Handler) deleteFile(c *gin.Context) {
	if err := h.svc.DeleteFile(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("fileId")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
