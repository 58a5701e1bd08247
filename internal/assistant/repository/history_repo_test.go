package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumcode/quantumcode-backend/internal/assistant/domain"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestHistoryRepository_AppendAndList(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewHistoryRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "alice", "qc-1",
		domain.Turn{Role: domain.RoleUser, Content: "q1"},
		domain.Turn{Role: domain.RoleAssistant, Content: "a1"},
	))
	require.NoError(t, repo.Append(ctx, "alice", "qc-1",
		domain.Turn{Role: domain.RoleUser, Content: "q2"},
		domain.Turn{Role: domain.RoleAssistant, Content: "a2"},
	))

	turns, err := repo.List(ctx, "alice", "qc-1", 0)
	require.NoError(t, err)
	require.Len(t, turns, 4)
	assert.Equal(t, []string{"q1", "a1", "q2", "a2"}, contents(turns))

	latest, err := repo.List(ctx, "alice", "qc-1", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"q2", "a2"}, contents(latest))

	assert.True(t, mr.Exists("qc:ai:alice:qc-1"))
	assert.Equal(t, 7*24*time.Hour, mr.TTL("qc:ai:alice:qc-1"))
}

func TestHistoryRepository_TrimsToMaxTurns(t *testing.T) {
	_, client := setupTestRedis(t)
	repo := NewHistoryRepository(client)
	ctx := context.Background()

	for i := 0; i < historyMaxTurns+10; i++ {
		require.NoError(t, repo.Append(ctx, "alice", "", domain.Turn{Role: domain.RoleUser, Content: fmt.Sprintf("m%d", i)}))
	}

	turns, err := repo.List(ctx, "alice", "", 0)
	require.NoError(t, err)
	require.Len(t, turns, historyMaxTurns)
	assert.Equal(t, "m10", turns[0].Content)
	assert.Equal(t, fmt.Sprintf("m%d", historyMaxTurns+9), turns[len(turns)-1].Content)
}

func TestHistoryRepository_ScopesAndClear(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewHistoryRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "alice", "", domain.Turn{Role: domain.RoleUser, Content: "global"}))
	require.NoError(t, repo.Append(ctx, "alice", "qc-1", domain.Turn{Role: domain.RoleUser, Content: "scoped"}))
	assert.True(t, mr.Exists("qc:ai:alice:_"))

	global, err := repo.List(ctx, "alice", "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"global"}, contents(global))

	require.NoError(t, repo.Clear(ctx, "alice", "qc-1"))
	scoped, err := repo.List(ctx, "alice", "qc-1", 0)
	require.NoError(t, err)
	assert.Empty(t, scoped)

	other, err := repo.List(ctx, "bob", "", 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestHistoryRepository_RedisDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewHistoryRepository(client)
	mr.Close()

	err := repo.Append(context.Background(), "alice", "", domain.Turn{Role: domain.RoleUser, Content: "x"})
	assert.Error(t, err)
}

func contents(turns []domain.Turn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.Content
	}
	return out
}
