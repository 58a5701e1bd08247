package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumcode/quantumcode-backend/internal/metrics"
	"github.com/quantumcode/quantumcode-backend/internal/projects/domain"
)

func setupEventBus(t *testing.T) (*EventBus, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewEventBus(client, nil), mr
}

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus, _ := setupEventBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := bus.Subscribe(ctx, "qc-1")
	require.NoError(t, err)
	defer sub.Close()

	// an event for another project must not arrive
	require.NoError(t, bus.Publish(ctx, domain.ProjectEvent{Type: domain.EventFileSaved, ProjectID: "qc-2"}))
	require.NoError(t, bus.Publish(ctx, domain.ProjectEvent{
		Type:      domain.EventFileSaved,
		ProjectID: "qc-1",
		FileID:    "f1",
		At:        time.Now().UTC(),
	}))

	select {
	case ev := <-sub.Events:
		assert.Equal(t, domain.EventFileSaved, ev.Type)
		assert.Equal(t, "qc-1", ev.ProjectID)
		assert.Equal(t, "f1", ev.FileID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventBus_CountsPublished(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	m := metrics.New()
	bus := NewEventBus(client, m)

	require.NoError(t, bus.Publish(context.Background(), domain.ProjectEvent{Type: domain.EventFileSaved, ProjectID: "qc-1"}))
	require.NoError(t, bus.Publish(context.Background(), domain.ProjectEvent{Type: domain.EventFileSaved, ProjectID: "qc-1"}))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProjectEvents.WithLabelValues("file.saved")))
}

func TestEventBus_CancelClosesFeed(t *testing.T) {
	bus, _ := setupEventBus(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := bus.Subscribe(ctx, "qc-1")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-sub.Events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("feed not closed after cancel")
	}
}

func TestEventBus_PublishFailsWhenRedisDown(t *testing.T) {
	bus, mr := setupEventBus(t)
	mr.Close()

	err := bus.Publish(context.Background(), domain.ProjectEvent{Type: domain.EventFileSaved, ProjectID: "qc-1"})
	assert.Error(t, err)
}
