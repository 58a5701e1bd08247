package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/quantumcode/quantumcode-backend/internal/projects/domain"
)

const projectsCollection = "projects"

// FirestoreStore keeps one document per project with its files embedded as an
// ordered array. Read-modify-write runs inside a Firestore transaction.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) doc(projectID string) *firestore.DocumentRef {
	return s.client.Collection(projectsCollection).Doc(projectID)
}

func (s *FirestoreStore) Create(ctx context.Context, p *domain.Project) error {
	if p.Files == nil {
		p.Files = []domain.File{}
	}
	_, err := s.doc(p.ID).Create(ctx, p)
	if status.Code(err) == codes.AlreadyExists {
		return ErrIDTaken
	}
	if err != nil {
		return fmt.Errorf("firestore create project: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Get(ctx context.Context, ownerID, projectID string) (*domain.Project, error) {
	snap, err := s.doc(projectID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore get project: %w", err)
	}
	return decodeOwned(snap, ownerID)
}

func (s *FirestoreStore) List(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error) {
	iter := s.client.Collection(projectsCollection).Where("owner_id", "==", ownerID).Documents(ctx)
	defer iter.Stop()

	out := make([]domain.ProjectSummary, 0, 16)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore list projects: %w", err)
		}
		var p domain.Project
		if err := snap.DataTo(&p); err != nil {
			return nil, fmt.Errorf("decode project %s: %w", snap.Ref.ID, err)
		}
		out = append(out, p.Summary())
	}

	// Sorted here rather than with OrderBy so no composite index is needed.
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *FirestoreStore) Update(ctx context.Context, ownerID, projectID string, mutate MutateFunc) (*domain.Project, error) {
	ref := s.doc(projectID)

	var updated *domain.Project
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return domain.ErrNotFound
			}
			return err
		}
		p, err := decodeOwned(snap, ownerID)
		if err != nil {
			return err
		}
		if err := mutate(p); err != nil {
			return err
		}
		if p.Files == nil {
			p.Files = []domain.File{}
		}
		updated = p
		return tx.Set(ref, p)
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("firestore update project: %w", err)
	}
	return updated, nil
}

func (s *FirestoreStore) Delete(ctx context.Context, ownerID, projectID string) error {
	ref := s.doc(projectID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return domain.ErrNotFound
			}
			return err
		}
		if _, err := decodeOwned(snap, ownerID); err != nil {
			return err
		}
		return tx.Delete(ref)
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		return fmt.Errorf("firestore delete project: %w", err)
	}
	return nil
}

func (s *FirestoreStore) ListExpiredTemporary(ctx context.Context, cutoff time.Time) ([]ProjectRef, error) {
	iter := s.client.Collection(projectsCollection).Where("is_temporary", "==", true).Documents(ctx)
	defer iter.Stop()

	var out []ProjectRef
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore list temporary projects: %w", err)
		}
		var p domain.Project
		if err := snap.DataTo(&p); err != nil {
			return nil, fmt.Errorf("decode project %s: %w", snap.Ref.ID, err)
		}
		if p.UpdatedAt.Before(cutoff) {
			out = append(out, ProjectRef{ID: p.ID, OwnerID: p.OwnerID})
		}
	}
	return out, nil
}

func (s *FirestoreStore) Ping(ctx context.Context) error {
	iter := s.client.Collection(projectsCollection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

func decodeOwned(snap *firestore.DocumentSnapshot, ownerID string) (*domain.Project, error) {
	var p domain.Project
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("decode project %s: %w", snap.Ref.ID, err)
	}
	if p.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	if p.ID == "" {
		p.ID = snap.Ref.ID
	}
	return &p, nil
}

// isDomainError reports errors produced by the domain layer or a mutate func,
// which are returned to callers unwrapped.
func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound,
		domain.ErrFileNotFound,
		domain.ErrFileExists,
		domain.ErrInvalidPath,
		domain.ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
