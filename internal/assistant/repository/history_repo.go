package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantumcode/quantumcode-backend/internal/assistant/domain"
)

const (
	historyKeyPrefix = "qc:ai:"            // Key for a conversation: qc:ai:{uid}:{project_id or _}
	historyTTL       = 7 * 24 * time.Hour // TTL for idle conversations (7 days)
	historyMaxTurns  = 50
)

// HistoryRepository keeps the most recent turns of each conversation in a
// Redis list, newest first.
type HistoryRepository struct {
	client *redis.Client
}

func NewHistoryRepository(client *redis.Client) *HistoryRepository {
	return &HistoryRepository{client: client}
}

// Append stores turns in order, trims the list and refreshes its TTL.
func (r *HistoryRepository) Append(ctx context.Context, uid, projectID string, turns ...domain.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal turn: %w", err)
		}
		values = append(values, data)
	}

	key := historyKey(uid, projectID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, values...)
		pipe.LTrim(ctx, key, 0, historyMaxTurns-1)
		pipe.Expire(ctx, key, historyTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// List returns up to limit of the latest turns in chronological order.
// limit <= 0 returns everything kept.
func (r *HistoryRepository) List(ctx context.Context, uid, projectID string, limit int) ([]domain.Turn, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	raw, err := r.client.LRange(ctx, historyKey(uid, projectID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	turns := make([]domain.Turn, len(raw))
	for i, s := range raw {
		var t domain.Turn
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal turn: %w", err)
		}
		turns[len(raw)-1-i] = t
	}
	return turns, nil
}

func (r *HistoryRepository) Clear(ctx context.Context, uid, projectID string) error {
	if err := r.client.Del(ctx, historyKey(uid, projectID)).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func historyKey(uid, projectID string) string {
	return fmt.Sprintf("%s%s:%s", historyKeyPrefix, uid, domain.HistoryScope(projectID))
}
