package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/ideahub/internal/model"
)

// FeedSnapshotRepository keeps the last committed feed collection so a fresh
// session can show stale-but-present data before its first fetch settles.
type FeedSnapshotRepository interface {
	Save(ctx context.Context, sortHint string, ideas []model.Idea) error
	// Load returns nil, nil on a miss.
	Load(ctx context.Context, sortHint string) ([]model.Idea, error)
}

type RedisFeedSnapshot struct {
	cache *redis.Client
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisFeedSnapshot builds a snapshot store on the given client.
func NewRedisFeedSnapshot(cache *redis.Client, ttl time.Duration) *RedisFeedSnapshot {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisFeedSnapshot{cache: cache, ttl: ttl}
}

func snapshotKey(sortHint string) string {
	if sortHint == "" {
		sortHint = "all"
	}
	return fmt.Sprintf("ideahub:feed:%s", sortHint)
}

func (s *RedisFeedSnapshot) Save(ctx context.Context, sortHint string, ideas []model.Idea) error {
	payload, err := json.Marshal(ideas)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, snapshotKey(sortHint), payload, s.ttl).Err()
}

func (s *RedisFeedSnapshot) Load(ctx context.Context, sortHint string) ([]model.Idea, error) {
	data, err := s.cache.Get(ctx, snapshotKey(sortHint)).Bytes()
	if errors.Is(err, redis.Nil) {
		s.misses.Add(1)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []model.Idea
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode feed snapshot: %w", err)
	}
	s.hits.Add(1)
	return out, nil
}

// Counters reports snapshot hits and misses since creation.
func (s *RedisFeedSnapshot) Counters() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}
