package domain

import (
	"errors"
	"time"
)

var (
	ErrNoSession       = errors.New("no file is open")
	ErrUnsavedChanges  = errors.New("the open file has unsaved changes")
	ErrMissingFileArgs = errors.New("project_id and file_id are required")
)

// Session is the editor surface of one user: the open file and its buffer.
type Session struct {
	ProjectID string    `json:"project_id"`
	FileID    string    `json:"file_id"`
	Path      string    `json:"path"`
	Language  string    `json:"language"`
	Buffer    string    `json:"buffer"`
	Dirty     bool      `json:"dirty"`
	UpdatedAt time.Time `json:"updated_at"`
}
