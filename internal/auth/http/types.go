package http

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/quantumcode/quantumcode-backend/internal/auth/domain"
)

// Authenticator is implemented by service.AuthService.
type Authenticator interface {
	SignUp(ctx context.Context, in domain.SignupInput) (*domain.Identity, error)
	CreateSession(ctx context.Context, idToken string) (string, *domain.Identity, error)
	VerifySession(ctx context.Context, cookie string) (*domain.Identity, error)
	Logout(ctx context.Context, uid string) error
	SessionTTL() time.Duration
}

type Handler struct {
	authService  Authenticator
	cookieName   string
	secureCookie bool
	log          *zap.Logger
}

// New builds the auth handler. authService is nil in dev mode, where sign-up
// and session exchange answer 503.
func New(authService Authenticator, cookieName string, secureCookie bool, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		authService:  authService,
		cookieName:   cookieName,
		secureCookie: secureCookie,
		log:          log,
	}
}

type sessionReq struct {
	IDToken string `json:"id_token"`
}
