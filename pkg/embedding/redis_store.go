package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"contact-autoclose/pkg/constants"
)

// RedisStore persists embedding vectors across process restarts so repeated
// evaluation runs do not re-pay the remote call for the same texts. Keys are
// the exact text, matching the in-process cache contract.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Lookup(ctx context.Context, text string) ([]float64, bool, error) {
	raw, err := s.rdb.Get(ctx, constants.EmbeddingCacheKeyPrefix+text).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to look up embedding: %w", err)
	}

	var vector []float64
	if err := json.Unmarshal([]byte(raw), &vector); err != nil {
		return nil, false, fmt.Errorf("invalid stored embedding format: %w", err)
	}

	return vector, true, nil
}

func (s *RedisStore) Save(ctx context.Context, text string, vector []float64) error {
	raw, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	if err := s.rdb.Set(ctx, constants.EmbeddingCacheKeyPrefix+text, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save embedding: %w", err)
	}

	return nil
}
