package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mediahub/internal/http-api/models"
	"mediahub/internal/shared"

	"github.com/redis/go-redis/v9"
)

// EssentialRedisRepo keeps a hot copy of essential data in front of the
// fresh-read path. Entries expire together with the record's nextFetch
// window so redis never serves data the database would refuse to.
type EssentialRedisRepo struct {
	client *redis.Client
}

// NewEssentialRedisRepo connects to redis. An empty address returns a repo
// in no-op mode: every read misses and every write succeeds silently, so
// tests and redis-less deployments need no special casing.
func NewEssentialRedisRepo(addr, password string) (*EssentialRedisRepo, error) {
	if addr == "" {
		return &EssentialRedisRepo{}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &EssentialRedisRepo{client: rdb}, nil
}

func essentialKey(provider shared.Provider, externalID string, kind shared.MediaKind) string {
	return fmt.Sprintf("essential:%s:%s:%s", provider, kind, externalID)
}

// Get returns the cached essential data, or nil on a miss. Redis errors
// degrade to a miss; the database remains the source of truth.
func (r *EssentialRedisRepo) Get(ctx context.Context, provider shared.Provider, externalID string, kind shared.MediaKind) *models.EssentialData {
	if r == nil || r.client == nil {
		return nil
	}

	raw, err := r.client.Get(ctx, essentialKey(provider, externalID, kind)).Bytes()
	if err != nil {
		return nil
	}

	var data models.EssentialData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return &data
}

// Set stores essential data until the record's next scheduled fetch.
func (r *EssentialRedisRepo) Set(ctx context.Context, provider shared.Provider, externalID string, kind shared.MediaKind, data *models.EssentialData, ttl time.Duration) error {
	if r == nil || r.client == nil || ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, essentialKey(provider, externalID, kind), raw, ttl).Err()
}

// Invalidate drops the hot copy, used when a record is purged or evicted.
func (r *EssentialRedisRepo) Invalidate(ctx context.Context, provider shared.Provider, externalID string, kind shared.MediaKind) error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Del(ctx, essentialKey(provider, externalID, kind)).Err()
}
