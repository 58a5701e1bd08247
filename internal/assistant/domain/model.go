package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrBusy          = errors.New("assistant is busy")
	ErrNotConfigured = errors.New("assistant is not configured")
	ErrUnavailable   = errors.New("assistant is temporarily unavailable")
	ErrUpstream      = errors.New("assistant request failed")
	ErrInvalidInput  = errors.New("invalid input")
)

const (
	MaxMessageLength = 8000
	// NoProject keys history that is not tied to a project.
	NoProject = "_"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one stored message of a conversation.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	Intent  Intent    `json:"intent,omitempty"`
	At      time.Time `json:"at"`
}

// FileContext is the editor file sent along with a question.
type FileContext struct {
	Path     string
	Language string
	Content  string
}

// AskInput is one question from the chat panel.
type AskInput struct {
	ProjectID string
	FileID    string
	Message   string
}

func (in *AskInput) Validate() error {
	in.Message = strings.TrimSpace(in.Message)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.FileID = strings.TrimSpace(in.FileID)

	err := validation.ValidateStruct(in,
		validation.Field(&in.Message, validation.Required, validation.RuneLength(1, MaxMessageLength)),
		validation.Field(&in.ProjectID, validation.When(in.FileID != "", validation.Required)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// Answer is what Ask returns to the caller.
type Answer struct {
	Reply  string    `json:"reply"`
	Intent Intent    `json:"intent"`
	At     time.Time `json:"at"`
}

// HistoryScope returns the project part of a history key.
func HistoryScope(projectID string) string {
	if projectID == "" {
		return NoProject
	}
	return projectID
}
