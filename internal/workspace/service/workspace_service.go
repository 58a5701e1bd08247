package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	projdomain "github.com/quantumcode/quantumcode-backend/internal/projects/domain"
	"github.com/quantumcode/quantumcode-backend/internal/workspace/domain"
)

// Projects is the part of the project service the workspace relies on.
type Projects interface {
	Get(ctx context.Context, ownerID, projectID string) (*projdomain.Project, error)
	SaveFile(ctx context.Context, ownerID, projectID, fileID, content string) (*projdomain.File, error)
}

// SessionStore persists one session per user.
type SessionStore interface {
	Get(ctx context.Context, uid string) (*domain.Session, error)
	Save(ctx context.Context, uid string, s *domain.Session) error
	Delete(ctx context.Context, uid string) error
	DeleteIf(ctx context.Context, uid string, match func(*domain.Session) bool) (bool, error)
}

// WorkspaceService keeps the editor state between the browser and the
// project store: which file is open and what its unsaved buffer holds.
type WorkspaceService struct {
	projects Projects
	sessions SessionStore
	log      *zap.Logger
	now      func() time.Time
}

func NewWorkspaceService(projects Projects, sessions SessionStore, log *zap.Logger) *WorkspaceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkspaceService{
		projects: projects,
		sessions: sessions,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Open loads a file into the buffer. An open file with unsaved edits blocks
// switching unless discard is set.
func (s *WorkspaceService) Open(ctx context.Context, uid, projectID, fileID string, discard bool) (*domain.Session, error) {
	projectID = strings.TrimSpace(projectID)
	fileID = strings.TrimSpace(fileID)
	if projectID == "" || fileID == "" {
		return nil, domain.ErrMissingFileArgs
	}

	if !discard {
		cur, err := s.sessions.Get(ctx, uid)
		switch {
		case err == nil:
			if cur.Dirty {
				if cur.ProjectID != projectID || cur.FileID != fileID {
					return nil, domain.ErrUnsavedChanges
				}
				// reopening the same file keeps the pending edits
				return cur, nil
			}
		case !errors.Is(err, domain.ErrNoSession):
			return nil, fmt.Errorf("load workspace session: %w", err)
		}
	}

	p, err := s.projects.Get(ctx, uid, projectID)
	if err != nil {
		return nil, err
	}
	f, _ := p.FileByID(fileID)
	if f == nil {
		return nil, projdomain.ErrFileNotFound
	}

	sess := &domain.Session{
		ProjectID: p.ID,
		FileID:    f.ID,
		Path:      f.Path,
		Language:  f.Language,
		Buffer:    f.Content,
		UpdatedAt: s.now(),
	}
	if err := s.sessions.Save(ctx, uid, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Edit replaces the buffer and marks it dirty. Content equal to the buffer
// leaves the dirty flag as it was.
func (s *WorkspaceService) Edit(ctx context.Context, uid, content string) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if sess.Buffer == content {
		return sess, nil
	}
	sess.Buffer = content
	sess.Dirty = true
	sess.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, uid, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save writes the buffer to the project file and clears the dirty flag.
func (s *WorkspaceService) Save(ctx context.Context, uid string) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, uid)
	if err != nil {
		return nil, err
	}

	f, err := s.projects.SaveFile(ctx, uid, sess.ProjectID, sess.FileID, sess.Buffer)
	if err != nil {
		return nil, err
	}

	sess.Dirty = false
	sess.Path = f.Path
	sess.Language = f.Language
	sess.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, uid, sess); err != nil {
		// the file is saved; only the dirty flag is stale
		s.log.Warn("session update after save failed", zap.String("uid", uid), zap.Error(err))
	}
	return sess, nil
}

func (s *WorkspaceService) Get(ctx context.Context, uid string) (*domain.Session, error) {
	return s.sessions.Get(ctx, uid)
}

// Close drops the session, discarding unsaved edits.
func (s *WorkspaceService) Close(ctx context.Context, uid string) error {
	return s.sessions.Delete(ctx, uid)
}

// ProjectDeleted clears the owner's session when it points into the project.
func (s *WorkspaceService) ProjectDeleted(ctx context.Context, ownerID, projectID string) {
	s.clearIf(ctx, ownerID, func(sess *domain.Session) bool {
		return sess.ProjectID == projectID
	})
}

// FileDeleted clears the owner's session when that file is open.
func (s *WorkspaceService) FileDeleted(ctx context.Context, ownerID, projectID, fileID string) {
	s.clearIf(ctx, ownerID, func(sess *domain.Session) bool {
		return sess.ProjectID == projectID && sess.FileID == fileID
	})
}

func (s *WorkspaceService) clearIf(ctx context.Context, uid string, match func(*domain.Session) bool) {
	deleted, err := s.sessions.DeleteIf(ctx, uid, match)
	if err != nil {
		s.log.Warn("clear workspace session failed", zap.String("uid", uid), zap.Error(err))
		return
	}
	if deleted {
		s.log.Debug("workspace session cleared", zap.String("uid", uid))
	}
}
