package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "kirana-agent/internal/core/error"
	logx "kirana-agent/pkg/logger"
)

// RedisRepository stores each session as a JSON blob with a TTL that is
// extended on every touch.
type RedisRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisRepository(rdb redis.Cmdable, ttl time.Duration) *RedisRepository {
	return &RedisRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisRepository) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:state", sessionID)
}

func (r *RedisRepository) Load(ctx context.Context, sessionID string) (*State, error) {
	key := r.sessionKey(sessionID)

	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(sessionID), nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session from redis")
		return nil, errx.WrapRedis(err)
	}

	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to unmarshal session state")
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}
	if s.UserMemory == nil {
		s.UserMemory = map[string]MemoryEntry{}
	}
	// The item list is authoritative; a drifted counter is repaired on load.
	if s.RepairTotal() {
		logx.Warn().Str("sessionID", sessionID).Int("cart_total", s.CartTotal).
			Msg("cart total drifted from item list; recomputed")
	}
	return &s, nil
}

func (r *RedisRepository) Save(ctx context.Context, state *State) error {
	b, err := json.Marshal(state)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", state.ID).Msg("failed to marshal session state")
		return fmt.Errorf("marshal session state: %w", err)
	}
	key := r.sessionKey(state.ID)

	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save session to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisRepository) Clear(ctx context.Context, sessionID string) error {
	key := r.sessionKey(sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete session from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ Repository = (*RedisRepository)(nil)
