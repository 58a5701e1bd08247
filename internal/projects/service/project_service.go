package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/quantumcode/quantumcode-backend/internal/projects/domain"
	"github.com/quantumcode/quantumcode-backend/internal/projects/repository"
	"github.com/quantumcode/quantumcode-backend/internal/projects/templates"
)

const maxIDAttempts = 5

// EventPublisher announces project mutations.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.ProjectEvent) error
}

// DeleteHook is told about deletions after they are stored.
type DeleteHook interface {
	ProjectDeleted(ctx context.Context, ownerID, projectID string)
	FileDeleted(ctx context.Context, ownerID, projectID, fileID string)
}

// ProjectService handles project-related business logic
type ProjectService struct {
	store   repository.Store
	catalog *templates.Catalog
	events  EventPublisher
	hooks   []DeleteHook
	log     *zap.Logger

	now   func() time.Time
	newID func() (string, error)
}

// NewProjectService creates a new project service. events may be nil.
func NewProjectService(store repository.Store, catalog *templates.Catalog, events EventPublisher, log *zap.Logger) *ProjectService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProjectService{
		store:   store,
		catalog: catalog,
		events:  events,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   domain.NewProjectID,
	}
}

// AddDeleteHook registers h; it must be called before serving requests.
func (s *ProjectService) AddDeleteHook(h DeleteHook) {
	s.hooks = append(s.hooks, h)
}

// Templates lists the starter templates a project can be created from.
func (s *ProjectService) Templates() []templates.Template {
	return s.catalog.List()
}

// Create validates the input, seeds the starter files and stores the project
// under a fresh public id.
func (s *ProjectService) Create(ctx context.Context, ownerID string, in domain.CreateProjectInput) (*domain.Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	tmpl, ok := s.catalog.Get(in.Template)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTemplate, in.Template)
	}

	now := s.now()
	p := &domain.Project{
		OwnerID:     ownerID,
		Name:        in.Name,
		Description: in.Description,
		Temporary:   in.Temporary,
		Files:       make([]domain.File, 0, len(tmpl.Files)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, sf := range tmpl.Files {
		f, err := domain.NewFile(sf.Path, sf.Content, now)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", tmpl.Name, err)
		}
		if err := p.AddFile(f, now); err != nil {
			return nil, fmt.Errorf("template %s: %w", tmpl.Name, err)
		}
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return nil, fmt.Errorf("generate project id: %w", err)
		}
		p.ID = id

		err = s.store.Create(ctx, p)
		if err == nil {
			s.log.Info("project created",
				zap.String("project_id", p.ID),
				zap.String("owner_id", ownerID),
				zap.String("template", tmpl.Name),
				zap.Bool("temporary", p.Temporary))
			return p, nil
		}
		if !errors.Is(err, repository.ErrIDTaken) {
			return nil, err
		}
		s.log.Debug("project id collision", zap.String("project_id", id), zap.Int("attempt", attempt+1))
	}
	return nil, domain.ErrIDExhausted
}

// List returns the owner's projects, newest-updated first.
func (s *ProjectService) List(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error) {
	items, err := s.store.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
	return items, nil
}

func (s *ProjectService) Get(ctx context.Context, ownerID, projectID string) (*domain.Project, error) {
	return s.store.Get(ctx, ownerID, projectID)
}

// Update changes the project's name and/or description.
func (s *ProjectService) Update(ctx context.Context, ownerID, projectID string, in domain.UpdateProjectInput) (*domain.Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	p, err := s.store.Update(ctx, ownerID, projectID, func(p *domain.Project) error {
		if in.Name != nil {
			p.Name = *in.Name
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, domain.EventProjectUpdated, projectID, "", now)
	return p, nil
}

// Delete removes the project with all of its files.
func (s *ProjectService) Delete(ctx context.Context, ownerID, projectID string) error {
	if err := s.store.Delete(ctx, ownerID, projectID); err != nil {
		return err
	}
	s.log.Info("project deleted", zap.String("project_id", projectID), zap.String("owner_id", ownerID))

	for _, h := range s.hooks {
		h.ProjectDeleted(ctx, ownerID, projectID)
	}
	s.publish(ctx, domain.EventProjectDeleted, projectID, "", s.now())
	return nil
}

// AddFile creates a file at path. The path must not be taken.
func (s *ProjectService) AddFile(ctx context.Context, ownerID, projectID, path, content string) (*domain.File, error) {
	now := s.now()
	f, err := domain.NewFile(path, content, now)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Update(ctx, ownerID, projectID, func(p *domain.Project) error {
		return p.AddFile(f, now)
	}); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.EventFileCreated, projectID, f.ID, now)
	return &f, nil
}

// SaveFile replaces one file's content.
func (s *ProjectService) SaveFile(ctx context.Context, ownerID, projectID, fileID, content string) (*domain.File, error) {
	now := s.now()
	var saved *domain.File
	if _, err := s.store.Update(ctx, ownerID, projectID, func(p *domain.Project) error {
		f, err := p.SaveFileContent(fileID, content, now)
		saved = f
		return err
	}); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.EventFileSaved, projectID, fileID, now)
	return saved, nil
}

// RenameFile moves a file to newPath.
func (s *ProjectService) RenameFile(ctx context.Context, ownerID, projectID, fileID, newPath string) (*domain.File, error) {
	now := s.now()
	var moved *domain.File
	if _, err := s.store.Update(ctx, ownerID, projectID, func(p *domain.Project) error {
		f, err := p.MoveFile(fileID, newPath, now)
		moved = f
		return err
	}); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.EventFileRenamed, projectID, fileID, now)
	return moved, nil
}

// DeleteFile removes one file from the project.
func (s *ProjectService) DeleteFile(ctx context.Context, ownerID, projectID, fileID string) error {
	now := s.now()
	if _, err := s.store.Update(ctx, ownerID, projectID, func(p *domain.Project) error {
		_, err := p.RemoveFile(fileID, now)
		return err
	}); err != nil {
		return err
	}

	for _, h := range s.hooks {
		h.FileDeleted(ctx, ownerID, projectID, fileID)
	}
	s.publish(ctx, domain.EventFileDeleted, projectID, fileID, now)
	return nil
}

// Tree derives the folder hierarchy from the project's file paths.
func (s *ProjectService) Tree(ctx context.Context, ownerID, projectID string) (*domain.TreeNode, error) {
	p, err := s.store.Get(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	return domain.BuildTree(p.Files), nil
}

// FindFiles returns the files whose path matches a doublestar pattern,
// in project order.
func (s *ProjectService) FindFiles(ctx context.Context, ownerID, projectID, pattern string) ([]domain.File, error) {
	p, err := s.store.Get(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	return MatchFiles(p.Files, pattern)
}

// MatchFiles filters files by a doublestar pattern. An empty pattern matches
// everything.
func MatchFiles(files []domain.File, pattern string) ([]domain.File, error) {
	pattern = domain.NormalizePath(pattern)
	if pattern == "" {
		return append([]domain.File(nil), files...), nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: bad glob pattern %q", domain.ErrInvalidInput, pattern)
	}

	out := make([]domain.File, 0, len(files))
	for _, f := range files {
		ok, err := doublestar.Match(pattern, f.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// PurgeExpiredTemporary deletes temporary projects last updated before
// cutoff and returns how many were removed. A failed delete is logged and
// the rest still run.
func (s *ProjectService) PurgeExpiredTemporary(ctx context.Context, cutoff time.Time) (int, error) {
	refs, err := s.store.ListExpiredTemporary(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list expired projects: %w", err)
	}

	removed := 0
	for _, ref := range refs {
		if err := s.Delete(ctx, ref.OwnerID, ref.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			s.log.Warn("purge temporary project failed", zap.String("project_id", ref.ID), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

func (s *ProjectService) publish(ctx context.Context, t domain.EventType, projectID, fileID string, at time.Time) {
	if s.events == nil {
		return
	}
	ev := domain.ProjectEvent{Type: t, ProjectID: projectID, FileID: fileID, At: at}
	if err := s.events.Publish(ctx, ev); err != nil {
		// subscribers miss one reload; the write itself already succeeded
		s.log.Warn("publish project event failed",
			zap.String("type", string(t)),
			zap.String("project_id", projectID),
			zap.Error(err))
	}
}
