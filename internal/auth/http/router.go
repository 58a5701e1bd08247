package http

import "github.com/gin-gonic/gin"

// RegisterPublic attaches the routes that work without credentials.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.POST("/signup", h.SignUp)
	rg.POST("/session", h.CreateSession)
	rg.POST("/logout", h.Logout)
}

// RegisterProtected attaches the routes behind the auth middleware.
func (h *Handler) RegisterProtected(rg *gin.RouterGroup) {
	rg.GET("/me", h.Me)
}
