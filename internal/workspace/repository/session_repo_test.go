package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumcode/quantumcode-backend/internal/workspace/domain"
)

func setupRepo(t *testing.T) (*SessionRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionRepository(client), mr
}

func TestSessionRepository_SaveGetDelete(t *testing.T) {
	repo, mr := setupRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNoSession)

	s := &domain.Session{ProjectID: "qc-1", FileID: "f1", Buffer: "hello", Dirty: true, UpdatedAt: time.Now().UTC()}
	require.NoError(t, repo.Save(ctx, "alice", s))
	assert.Equal(t, sessionTTL, mr.TTL("qc:ws:alice"))

	got, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Buffer)
	assert.True(t, got.Dirty)

	require.NoError(t, repo.Delete(ctx, "alice"))
	_, err = repo.Get(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestSessionRepository_Expires(t *testing.T) {
	repo, mr := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "alice", &domain.Session{ProjectID: "qc-1"}))
	mr.FastForward(sessionTTL + time.Second)

	_, err := repo.Get(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestSessionRepository_DeleteIf(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, "alice", &domain.Session{ProjectID: "qc-1", FileID: "f1"}))

	deleted, err := repo.DeleteIf(ctx, "alice", func(s *domain.Session) bool { return s.ProjectID == "qc-2" })
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.DeleteIf(ctx, "alice", func(s *domain.Session) bool { return s.ProjectID == "qc-1" })
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteIf(ctx, "nobody", func(*domain.Session) bool { return true })
	require.NoError(t, err)
	assert.False(t, deleted)
}
