package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantumcode/quantumcode-backend/internal/workspace/domain"
)

const (
	sessionKeyPrefix = "qc:ws:"            // Key for a user's editor session: qc:ws:{uid}
	sessionTTL       = 7 * 24 * time.Hour // TTL for idle sessions (7 days)
)

// SessionRepository handles Redis operations for workspace sessions
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Get returns the user's session, or domain.ErrNoSession.
func (r *SessionRepository) Get(ctx context.Context, uid string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(uid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// Save writes the session and refreshes its TTL.
func (r *SessionRepository) Save(ctx context.Context, uid string, s *domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(uid), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, uid string) error {
	if err := r.client.Del(ctx, sessionKey(uid)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteIf removes the session only when match accepts it. The check and
// delete run under WATCH so a concurrent Open is never dropped.
func (r *SessionRepository) DeleteIf(ctx context.Context, uid string, match func(*domain.Session) bool) (bool, error) {
	key := sessionKey(uid)
	deleted := false

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		var s domain.Session
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if !match(&s) {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		if err == nil {
			deleted = true
		}
		return err
	}, key)
	if err != nil {
		return false, fmt.Errorf("failed to clear session: %w", err)
	}
	return deleted, nil
}

func sessionKey(uid string) string {
	return fmt.Sprintf("%s%s", sessionKeyPrefix, uid)
}
