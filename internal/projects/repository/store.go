package repository

import (
	"context"
	"errors"
	"time"

	"github.com/quantumcode/quantumcode-backend/internal/projects/domain"
)

// ErrIDTaken is returned by Create when the public id already exists.
var ErrIDTaken = errors.New("project id already taken")

// MutateFunc edits a loaded project in place. Returning an error aborts the
// write and is passed back to the caller unchanged.
type MutateFunc func(p *domain.Project) error

// ProjectRef identifies a project without loading it.
type ProjectRef struct {
	ID      string
	OwnerID string
}

// Store persists projects and their files.
// Projects owned by another user are reported as domain.ErrNotFound.
type Store interface {
	Create(ctx context.Context, p *domain.Project) error
	Get(ctx context.Context, ownerID, projectID string) (*domain.Project, error)
	List(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error)
	Update(ctx context.Context, ownerID, projectID string, mutate MutateFunc) (*domain.Project, error)
	Delete(ctx context.Context, ownerID, projectID string) error
	ListExpiredTemporary(ctx context.Context, cutoff time.Time) ([]ProjectRef, error)
	Ping(ctx context.Context) error
}
