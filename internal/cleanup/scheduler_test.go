package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	projdomain "github.com/quantumcode/quantumcode-backend/internal/projects/domain"
	projrepo "github.com/quantumcode/quantumcode-backend/internal/projects/repository"
	projservice "github.com/quantumcode/quantumcode-backend/internal/projects/service"
	"github.com/quantumcode/quantumcode-backend/internal/projects/templates"
)

type fakePurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	removed int
	err     error
	gate    chan struct{}
}

func (f *fakePurger) PurgeExpiredTemporary(ctx context.Context, cutoff time.Time) (int, error) {
	f.mu.Lock()
	f.cutoffs = append(f.cutoffs, cutoff)
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	return f.removed, f.err
}

func (f *fakePurger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestRunOnce_UsesTTLCutoff(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	p := &fakePurger{removed: 3}
	s := NewScheduler(p, "", 24*time.Hour, nil)
	s.now = func() time.Time { return now }

	assert.Equal(t, 3, s.RunOnce(context.Background()))
	require.Len(t, p.cutoffs, 1)
	assert.Equal(t, now.Add(-24*time.Hour), p.cutoffs[0])
}

func TestRunOnce_ErrorReportsZero(t *testing.T) {
	s := NewScheduler(&fakePurger{err: errors.New("store down")}, "", time.Hour, nil)
	assert.Equal(t, 0, s.RunOnce(context.Background()))
}

func TestRunOnce_SkipsOverlap(t *testing.T) {
	p := &fakePurger{gate: make(chan struct{})}
	s := NewScheduler(p, "", time.Hour, nil)

	done := make(chan int)
	go func() { done <- s.RunOnce(context.Background()) }()
	require.Eventually(t, func() bool { return p.calls() == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, -1, s.RunOnce(context.Background()))
	close(p.gate)
	assert.Equal(t, 0, <-done)
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&fakePurger{}, "every hour", time.Hour, nil)
	assert.Error(t, s.Start())
}

func TestStart_RunsOnSchedule(t *testing.T) {
	p := &fakePurger{}
	s := NewScheduler(p, "* * * * * *", time.Hour, nil)
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	require.Eventually(t, func() bool { return p.calls() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestRunOnce_PurgesExpiredTemporaryProjects(t *testing.T) {
	catalog, err := templates.Builtin()
	require.NoError(t, err)
	store := projrepo.NewMemoryStore()
	svc := projservice.NewProjectService(store, catalog, nil, nil)
	ctx := context.Background()

	scratch, err := svc.Create(ctx, "alice", projdomain.CreateProjectInput{Name: "scratch", Template: "blank", Temporary: true})
	require.NoError(t, err)
	kept, err := svc.Create(ctx, "alice", projdomain.CreateProjectInput{Name: "kept", Template: "blank"})
	require.NoError(t, err)

	s := NewScheduler(svc, "", 24*time.Hour, nil)
	s.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	assert.Equal(t, 1, s.RunOnce(ctx))

	_, err = svc.Get(ctx, "alice", scratch.ID)
	assert.ErrorIs(t, err, projdomain.ErrNotFound)
	_, err = svc.Get(ctx, "alice", kept.ID)
	assert.NoError(t, err)
}
