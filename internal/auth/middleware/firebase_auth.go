package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quantumcode/quantumcode-backend/internal/auth"
	"github.com/quantumcode/quantumcode-backend/internal/auth/domain"
)

// Verifier checks bearer ID tokens and session cookies.
type Verifier interface {
	VerifyBearer(ctx context.Context, idToken string) (*domain.Identity, error)
	VerifySession(ctx context.Context, cookie string) (*domain.Identity, error)
}

// FirebaseAuthMiddleware validates a Firebase ID token from the Authorization
// header, or else the session cookie, and stores the identity in context.
func FirebaseAuthMiddleware(v Verifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := verifyRequest(c, v, cookieName)
		if !ok {
			return
		}
		auth.SetIdentity(c, id)
		c.Next()
	}
}

// DevAuthMiddleware trusts the X-User-Id header, falling back to
// auth.DevUserID. Use this ONLY for development/testing.
func DevAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if uid == "" {
			uid = auth.DevUserID
		}
		auth.SetIdentity(c, &domain.Identity{
			UID:   uid,
			Email: strings.TrimSpace(c.GetHeader("X-User-Email")),
		})
		c.Next()
	}
}

func verifyRequest(c *gin.Context, v Verifier, cookieName string) (*domain.Identity, bool) {
	ctx := c.Request.Context()

	if token := extractToken(c); token != "" {
		id, err := v.VerifyBearer(ctx, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			return nil, false
		}
		return id, true
	}

	if cookie := sessionCookie(c, cookieName); cookie != "" {
		id, err := v.VerifySession(ctx, cookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "session expired"})
			return nil, false
		}
		return id, true
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing authorization token"})
	return nil, false
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.EqualFold(bearerToken[:7], "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	return ""
}

func sessionCookie(c *gin.Context, name string) string {
	if name == "" {
		return ""
	}
	v, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}
