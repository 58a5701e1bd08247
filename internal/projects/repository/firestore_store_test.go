package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumcode/quantumcode-backend/internal/projects/domain"
)

// Runs against the Firestore emulator only:
// FIRESTORE_EMULATOR_HOST=localhost:8080 go test ./internal/projects/repository/
func setupFirestoreStore(t *testing.T) *FirestoreStore {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "quantumcode-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewFirestoreStore(client)
}

func TestFirestoreStore_RoundTrip(t *testing.T) {
	s := setupFirestoreStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	id, err := domain.NewProjectID()
	require.NoError(t, err)
	p := sampleProject(id, "alice", now)
	p.Temporary = true

	require.NoError(t, s.Create(ctx, p))
	t.Cleanup(func() { _ = s.Delete(ctx, "alice", id) })
	assert.ErrorIs(t, s.Create(ctx, p), ErrIDTaken)

	got, err := s.Get(ctx, "alice", id)
	require.NoError(t, err)
	assert.Equal(t, p.Files[0].Content, got.Files[0].Content)

	_, err = s.Get(ctx, "bob", id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	updated, err := s.Update(ctx, "alice", id, func(p *domain.Project) error {
		_, err := p.SaveFileContent("f1", "<p>saved</p>", now.Add(time.Second))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>saved</p>", updated.Files[0].Content)

	refs, err := s.ListExpiredTemporary(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Contains(t, refs, ProjectRef{ID: id, OwnerID: "alice"})

	require.NoError(t, s.Delete(ctx, "alice", id))
	assert.ErrorIs(t, s.Delete(ctx, "alice", id), domain.ErrNotFound)
}
