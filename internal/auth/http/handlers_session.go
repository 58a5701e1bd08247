package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quantumcode/quantumcode-backend/internal/auth"
	"github.com/quantumcode/quantumcode-backend/internal/auth/domain"
	"github.com/quantumcode/quantumcode-backend/internal/logging"
)

// SignUp creates a Firebase email/password user.
func (h *Handler) SignUp(c *gin.Context) {
	if h.authService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": domain.ErrNotConfigured.Error()})
		return
	}

	var req domain.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	id, err := h.authService.SignUp(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		case errors.Is(err, domain.ErrEmailExists):
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "email already exists"})
		default:
			logging.FromContext(c.Request.Context(), h.log).Error("sign-up failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to create user"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "user": id})
}

// CreateSession exchanges an ID token for the http-only session cookie.
func (h *Handler) CreateSession(c *gin.Context) {
	if h.authService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": domain.ErrNotConfigured.Error()})
		return
	}

	var req sessionReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.IDToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "id_token is required"})
		return
	}

	cookie, id, err := h.authService.CreateSession(c.Request.Context(), strings.TrimSpace(req.IDToken))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			return
		}
		logging.FromContext(c.Request.Context(), h.log).Error("session exchange failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to create session"})
		return
	}

	h.setCookie(c, cookie, int(h.authService.SessionTTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": id})
}

// Logout clears the cookie and, when the session is still valid, revokes the
// user's refresh tokens so other sessions end too.
func (h *Handler) Logout(c *gin.Context) {
	if h.authService != nil {
		if cookie, err := c.Cookie(h.cookieName); err == nil && cookie != "" {
			if id, err := h.authService.VerifySession(c.Request.Context(), cookie); err == nil {
				if err := h.authService.Logout(c.Request.Context(), id.UID); err != nil {
					logging.FromContext(c.Request.Context(), h.log).Warn("revoke on logout failed", zap.String("uid", id.UID), zap.Error(err))
				}
			}
		}
	}

	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me returns the verified identity of the caller.
func (h *Handler) Me(c *gin.Context) {
	id := auth.IdentityFrom(c)
	if id == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": domain.ErrUnauthenticated.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": id})
}

func (h *Handler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, value, maxAge, "/", "", h.secureCookie, true)
}
