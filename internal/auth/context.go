package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quantumcode/quantumcode-backend/internal/auth/domain"
)

const (
	CtxFirebaseUID = "firebase_uid"
	CtxEmail       = "email"
	CtxIdentity    = "identity"

	// DevUserID is used in dev mode when no X-User-Id header is sent.
	DevUserID = "demo-user"
)

// UserFirebaseUID extracts the Firebase UID from the Gin context
// This is set by the auth middleware
func UserFirebaseUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxFirebaseUID))
}

// SetIdentity stores the verified caller in the Gin context.
func SetIdentity(c *gin.Context, id *domain.Identity) {
	c.Set(CtxFirebaseUID, id.UID)
	if id.Email != "" {
		c.Set(CtxEmail, id.Email)
	}
	c.Set(CtxIdentity, id)
}

// IdentityFrom returns the identity set by the auth middleware, or nil.
func IdentityFrom(c *gin.Context) *domain.Identity {
	v, ok := c.Get(CtxIdentity)
	if !ok {
		return nil
	}
	id, _ := v.(*domain.Identity)
	return id
}
