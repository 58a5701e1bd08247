package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/quantumcode/quantumcode-backend/internal/metrics"
	"github.com/quantumcode/quantumcode-backend/internal/projects/domain"
)

const eventChannelPrefix = "qc:events:" // Pub/Sub channel per project: qc:events:{project_id}

// EventBus fans project events out over Redis Pub/Sub so every API replica
// can feed its own SSE clients.
type EventBus struct {
	client  *redis.Client
	metrics *metrics.Metrics
}

// NewEventBus creates a bus on client. m may be nil.
func NewEventBus(client *redis.Client, m *metrics.Metrics) *EventBus {
	return &EventBus{client: client, metrics: m}
}

// Publish sends ev to the project's channel.
func (b *EventBus) Publish(ctx context.Context, ev domain.ProjectEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, eventChannel(ev.ProjectID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if b.metrics != nil {
		b.metrics.ProjectEvents.WithLabelValues(string(ev.Type)).Inc()
	}
	return nil
}

// Subscription is a live feed of one project's events.
type Subscription struct {
	Events <-chan domain.ProjectEvent
	pubsub *redis.PubSub
}

// Close stops the feed and closes Events.
func (s *Subscription) Close() error {
	return s.pubsub.Close()
}

// Subscribe listens on the project's channel until ctx is done or Close is
// called. Malformed payloads are skipped.
func (b *EventBus) Subscribe(ctx context.Context, projectID string) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, eventChannel(projectID))

	// wait for the subscription confirmation so no event published after
	// Subscribe returns is lost
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan domain.ProjectEvent, 16)
	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev domain.ProjectEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					_ = pubsub.Close()
					return
				}
			}
		}
	}()

	return &Subscription{Events: out, pubsub: pubsub}, nil
}

func eventChannel(projectID string) string {
	return fmt.Sprintf("%s%s", eventChannelPrefix, projectID)
}
