package redis

import (
	"context"
	"errors"

	"github.com/arlearn/arlearn-engine/internal/application/query"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ANALYTICS SNAPSHOT CACHE
// Implements query.SnapshotCache and the command-side invalidator. Get
// returns (nil, nil) on a miss so callers treat miss and invalidated
// identically.
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotCache caches per-learner analytics snapshots.
type SnapshotCache struct {
	cache *Cache
}

// NewSnapshotCache creates a new SnapshotCache.
func NewSnapshotCache(cache *Cache) *SnapshotCache {
	return &SnapshotCache{cache: cache}
}

// Get returns the cached snapshot, or nil on a miss.
func (s *SnapshotCache) Get(ctx context.Context, learnerID shared.LearnerID) (*query.AnalyticsSnapshot, error) {
	var snapshot query.AnalyticsSnapshot
	err := s.cache.Get(ctx, SnapshotKey(string(learnerID)), &snapshot)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Set stores a snapshot with the standard TTL.
func (s *SnapshotCache) Set(ctx context.Context, snapshot *query.AnalyticsSnapshot) error {
	return s.cache.Set(ctx, SnapshotKey(string(snapshot.LearnerID)), snapshot, TTLSnapshot)
}

// Invalidate drops the learner's cached snapshot.
func (s *SnapshotCache) Invalidate(ctx context.Context, learnerID shared.LearnerID) error {
	return s.cache.Delete(ctx, SnapshotKey(string(learnerID)))
}
