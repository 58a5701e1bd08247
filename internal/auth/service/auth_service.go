package service

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"github.com/quantumcode/quantumcode-backend/internal/auth/domain"
)

// Firebase bounds for session cookie lifetimes.
const (
	minSessionTTL = 5 * time.Minute
	maxSessionTTL = 14 * 24 * time.Hour
)

// isEmailTaken recognises the Firebase duplicate-email error.
var isEmailTaken = auth.IsEmailAlreadyExists

// IdentityProvider is the subset of the Firebase Auth client the service
// needs. *auth.Client satisfies it.
type IdentityProvider interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	VerifySessionCookieAndCheckRevoked(ctx context.Context, sessionCookie string) (*auth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

type AuthService struct {
	idp        IdentityProvider
	sessionTTL time.Duration
	log        *zap.Logger
}

func NewAuthService(idp IdentityProvider, sessionTTL time.Duration, log *zap.Logger) *AuthService {
	if sessionTTL < minSessionTTL {
		sessionTTL = minSessionTTL
	}
	if sessionTTL > maxSessionTTL {
		sessionTTL = maxSessionTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{idp: idp, sessionTTL: sessionTTL, log: log}
}

// SessionTTL is the lifetime of cookies minted by CreateSession.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// SignUp creates a Firebase user with email and password.
func (s *AuthService) SignUp(ctx context.Context, in domain.SignupInput) (*domain.Identity, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	params := (&auth.UserToCreate{}).
		Email(in.Email).
		Password(in.Password).
		EmailVerified(false)
	if in.DisplayName != "" {
		params = params.DisplayName(in.DisplayName)
	}

	rec, err := s.idp.CreateUser(ctx, params)
	if err != nil {
		if isEmailTaken(err) {
			return nil, domain.ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user signed up", zap.String("uid", rec.UID))
	return &domain.Identity{
		UID:           rec.UID,
		Email:         rec.Email,
		DisplayName:   rec.DisplayName,
		EmailVerified: rec.EmailVerified,
	}, nil
}

// CreateSession exchanges a client-side ID token for a session cookie.
func (s *AuthService) CreateSession(ctx context.Context, idToken string) (string, *domain.Identity, error) {
	id, err := s.VerifyBearer(ctx, idToken)
	if err != nil {
		return "", nil, err
	}
	cookie, err := s.idp.SessionCookie(ctx, idToken, s.sessionTTL)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return cookie, id, nil
}

// VerifyBearer verifies a Firebase ID token.
func (s *AuthService) VerifyBearer(ctx context.Context, idToken string) (*domain.Identity, error) {
	tok, err := s.idp.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return identityFromToken(tok), nil
}

// VerifySession verifies a session cookie, rejecting revoked sessions.
func (s *AuthService) VerifySession(ctx context.Context, cookie string) (*domain.Identity, error) {
	tok, err := s.idp.VerifySessionCookieAndCheckRevoked(ctx, cookie)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return identityFromToken(tok), nil
}

// Logout revokes the user's refresh tokens, which also invalidates every
// session cookie minted before now.
func (s *AuthService) Logout(ctx context.Context, uid string) error {
	if err := s.idp.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	s.log.Info("user signed out", zap.String("uid", uid))
	return nil
}

func identityFromToken(tok *auth.Token) *domain.Identity {
	id := &domain.Identity{UID: tok.UID}
	if email, ok := tok.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := tok.Claims["name"].(string); ok {
		id.DisplayName = name
	}
	if verified, ok := tok.Claims["email_verified"].(bool); ok {
		id.EmailVerified = verified
	}
	return id
}
