package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog-assistant/internal/models"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "assistant:session:"

// RedisStore keeps sessions as JSON under prefix+id with a sliding TTL.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (models.ConversationState, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.NewConversationState(), nil
	}
	if err != nil {
		return models.ConversationState{}, fmt.Errorf("%w: load %s: %v", ErrStore, sessionID, err)
	}

	var state models.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return models.ConversationState{}, fmt.Errorf("%w: decode %s: %v", ErrStore, sessionID, err)
	}
	return state, nil
}

// Save writes state; an idle state removes the key.
func (s *RedisStore) Save(ctx context.Context, sessionID string, state models.ConversationState) error {
	if state.IsIdle() {
		return s.Delete(ctx, sessionID)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrStore, sessionID, err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrStore, sessionID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrStore, sessionID, err)
	}
	return nil
}
