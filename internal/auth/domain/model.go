package domain

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var (
	ErrEmailExists     = errors.New("email already exists")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotConfigured   = errors.New("authentication is not configured")
	ErrUnauthenticated = errors.New("user not authenticated")
)

// Identity is the verified caller. Firebase UID is the primary identifier.
type Identity struct {
	UID           string `json:"uid"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// SignupInput represents data needed to create a new user
type SignupInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// Validate trims and checks the sign-up fields. Firebase requires passwords
// of at least six characters.
func (in *SignupInput) Validate() error {
	in.Email = strings.TrimSpace(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)

	err := validation.ValidateStruct(in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.RuneLength(6, 128)),
		validation.Field(&in.DisplayName, validation.RuneLength(0, 100)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
