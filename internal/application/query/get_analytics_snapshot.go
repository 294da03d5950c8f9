package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ANALYTICS SNAPSHOT QUERY
// The learner-facing analytics read: raw counters, percentage breakdown, the
// stored classification, and the cumulative stats block. The snapshot is
// cached; commands that move the counters invalidate it.
// ══════════════════════════════════════════════════════════════════════════════

// AnalyticsSnapshot is the cacheable analytics read model.
type AnalyticsSnapshot struct {
	LearnerID shared.LearnerID `json:"learner_id"`

	// Engagement - the raw accumulated counters.
	Engagement learner.Engagement `json:"engagement"`

	// Breakdown - each dimension's share of the total accumulated score, in
	// percent. Nil while no score has accumulated: no synthetic uniform
	// distribution is fabricated.
	Breakdown map[shared.LearningStyle]float64 `json:"breakdown,omitempty"`

	// AnalyzedStyle - the stored classification snapshot. StyleUnset until the
	// first cadence hit; the breakdown above may be non-nil before that.
	AnalyzedStyle  shared.LearningStyle `json:"analyzed_style"`
	LastAnalyzedAt time.Time            `json:"last_analyzed_at"`

	// Stats - cumulative statistics.
	Stats learner.Stats `json:"stats"`

	// AchievementCount - number of earned badges.
	AchievementCount int `json:"achievement_count"`

	// GeneratedAt - when this snapshot was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// SnapshotCache caches computed analytics snapshots per learner. A cache
// failure on either side is logged and bypassed: the query always has the
// repository as its source of truth.
type SnapshotCache interface {
	Get(ctx context.Context, learnerID shared.LearnerID) (*AnalyticsSnapshot, error)
	Set(ctx context.Context, snapshot *AnalyticsSnapshot) error
	Invalidate(ctx context.Context, learnerID shared.LearnerID) error
}

// GetAnalyticsSnapshotQuery identifies the learner to analyze.
type GetAnalyticsSnapshotQuery struct {
	LearnerID string

	// BypassCache forces recomputation from storage.
	BypassCache bool
}

// Validate validates the query.
func (q GetAnalyticsSnapshotQuery) Validate() error {
	if _, err := shared.NewLearnerID(q.LearnerID); err != nil {
		return fmt.Errorf("analytics_snapshot: %w", err)
	}
	return nil
}

// GetAnalyticsSnapshotHandler handles the GetAnalyticsSnapshotQuery.
type GetAnalyticsSnapshotHandler struct {
	learnerRepo learner.Repository
	cache       SnapshotCache
	logger      *slog.Logger
}

// NewGetAnalyticsSnapshotHandler creates a new GetAnalyticsSnapshotHandler.
func NewGetAnalyticsSnapshotHandler(learnerRepo learner.Repository, cache SnapshotCache, logger *slog.Logger) *GetAnalyticsSnapshotHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetAnalyticsSnapshotHandler{learnerRepo: learnerRepo, cache: cache, logger: logger}
}

// Handle executes the query.
func (h *GetAnalyticsSnapshotHandler) Handle(ctx context.Context, q GetAnalyticsSnapshotQuery) (*AnalyticsSnapshot, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	learnerID := shared.LearnerID(q.LearnerID)

	if h.cache != nil && !q.BypassCache {
		cached, err := h.cache.Get(ctx, learnerID)
		if err != nil {
			h.logger.Debug("analytics_snapshot: cache read bypassed", "learner_id", q.LearnerID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	l, err := h.learnerRepo.GetByID(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("analytics_snapshot: %w", err)
	}

	snapshot := &AnalyticsSnapshot{
		LearnerID:        l.ID,
		Engagement:       l.Engagement,
		Breakdown:        learner.Breakdown(l.Engagement),
		AnalyzedStyle:    l.AnalyzedStyle.Style,
		LastAnalyzedAt:   l.AnalyzedStyle.LastAnalyzedAt,
		Stats:            l.Stats,
		AchievementCount: len(l.Achievements),
		GeneratedAt:      time.Now().UTC(),
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, snapshot); err != nil {
			h.logger.Debug("analytics_snapshot: cache write skipped", "learner_id", q.LearnerID, "error", err)
		}
	}

	return snapshot, nil
}
