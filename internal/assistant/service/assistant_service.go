package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quantumcode/quantumcode-backend/internal/assistant/domain"
	"github.com/quantumcode/quantumcode-backend/internal/assistant/provider"
	"github.com/quantumcode/quantumcode-backend/internal/metrics"
	projdomain "github.com/quantumcode/quantumcode-backend/internal/projects/domain"
)

// contextTurns is how many stored turns are replayed to the provider.
const contextTurns = 10

type HistoryStore interface {
	Append(ctx context.Context, uid, projectID string, turns ...domain.Turn) error
	List(ctx context.Context, uid, projectID string, limit int) ([]domain.Turn, error)
	Clear(ctx context.Context, uid, projectID string) error
}

type ProjectReader interface {
	Get(ctx context.Context, ownerID, projectID string) (*projdomain.Project, error)
}

// AssistantService handles chat-assistant business logic
type AssistantService struct {
	provider provider.Provider
	history  HistoryStore
	projects ProjectReader
	metrics  *metrics.Metrics
	timeout  time.Duration
	log      *zap.Logger

	now func() time.Time
}

// NewAssistantService creates a new assistant service. m may be nil.
func NewAssistantService(p provider.Provider, history HistoryStore, projects ProjectReader, m *metrics.Metrics, timeout time.Duration, log *zap.Logger) *AssistantService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AssistantService{
		provider: p,
		history:  history,
		projects: projects,
		metrics:  m,
		timeout:  timeout,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ask sends one question to the provider and records both turns.
func (s *AssistantService) Ask(ctx context.Context, uid string, in domain.AskInput) (*domain.Answer, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	intent := domain.DetectIntent(in.Message)

	file, err := s.fileContext(ctx, uid, in.ProjectID, in.FileID)
	if err != nil {
		return nil, err
	}

	past, err := s.history.List(ctx, uid, in.ProjectID, contextTurns)
	if err != nil {
		// answer without context rather than fail the question
		s.log.Warn("load assistant history failed", zap.String("uid", uid), zap.Error(err))
		past = nil
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := s.provider.Generate(callCtx, provider.Request{
		System:  domain.SystemPrompt,
		History: past,
		Prompt:  domain.BuildPrompt(intent, in.Message, file),
	})
	s.observe(intent, err)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			err = fmt.Errorf("%w: provider timed out after %s", domain.ErrUpstream, s.timeout)
		case ctx.Err() != nil:
			// caller went away; nothing to classify
		case !errors.Is(err, domain.ErrBusy) && !errors.Is(err, domain.ErrNotConfigured) &&
			!errors.Is(err, domain.ErrUnavailable) && !errors.Is(err, domain.ErrUpstream):
			err = fmt.Errorf("%w: %w", domain.ErrUpstream, err)
		}
		s.log.Warn("assistant call failed",
			zap.String("provider", s.provider.Name()),
			zap.String("intent", string(intent)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	now := s.now()
	if err := s.history.Append(ctx, uid, in.ProjectID,
		domain.Turn{Role: domain.RoleUser, Content: in.Message, Intent: intent, At: now},
		domain.Turn{Role: domain.RoleAssistant, Content: reply, Intent: intent, At: now},
	); err != nil {
		s.log.Warn("store assistant history failed", zap.String("uid", uid), zap.Error(err))
	}

	s.log.Info("assistant answered",
		zap.String("provider", s.provider.Name()),
		zap.String("intent", string(intent)),
		zap.String("project_id", in.ProjectID),
		zap.Duration("elapsed", time.Since(start)))
	return &domain.Answer{Reply: reply, Intent: intent, At: now}, nil
}

func (s *AssistantService) History(ctx context.Context, uid, projectID string) ([]domain.Turn, error) {
	return s.history.List(ctx, uid, projectID, 0)
}

func (s *AssistantService) ClearHistory(ctx context.Context, uid, projectID string) error {
	return s.history.Clear(ctx, uid, projectID)
}

// fileContext loads the file the question is about. Without a file id but
// with a project id, the project must still belong to uid.
func (s *AssistantService) fileContext(ctx context.Context, uid, projectID, fileID string) (*domain.FileContext, error) {
	if projectID == "" {
		return nil, nil
	}
	p, err := s.projects.Get(ctx, uid, projectID)
	if err != nil {
		return nil, err
	}
	if fileID == "" {
		return nil, nil
	}
	f, _ := p.FileByID(fileID)
	if f == nil {
		return nil, projdomain.ErrFileNotFound
	}
	return &domain.FileContext{Path: f.Path, Language: f.Language, Content: f.Content}, nil
}

func (s *AssistantService) observe(intent domain.Intent, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.AssistantCalls.WithLabelValues(string(intent), outcome(err)).Inc()
}

// outcome names the result of a provider call for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrBusy):
		return "busy"
	case errors.Is(err, domain.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
