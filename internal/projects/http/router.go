package http

import "github.com/gin-gonic/gin"

// Register attaches project routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/templates", h.templates)

	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.delete)

	rg.GET("/:id/tree", h.tree)
	rg.GET("/:id/files", h.listFiles)
	rg.POST("/:id/files", h.addFile)
	rg.GET("/:id/files/:fileId", h.getFile)
	rg.PUT("/:id/files/:fileId", h.saveFile)
	rg.PATCH("/:id/files/:fileId", h.renameFile)
	rg.DELETE("/:id/files/:fileId", h.deleteFile)
}
