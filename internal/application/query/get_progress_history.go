package query

import (
	"context"
	"fmt"
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/progress"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
	"github.com/arlearn/arlearn-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HISTORY QUERY
// Day-bucketed view of the learner's recent ledger movement. Days without a
// touched record appear with zero counts; no synthetic activity is invented
// for them.
// ══════════════════════════════════════════════════════════════════════════════

// HistoryDays is the length of the history window.
const HistoryDays = 7

// GetProgressHistoryQuery identifies the learner whose history to build.
type GetProgressHistoryQuery struct {
	LearnerID string
}

// Validate validates the query.
func (q GetProgressHistoryQuery) Validate() error {
	if _, err := shared.NewLearnerID(q.LearnerID); err != nil {
		return fmt.Errorf("progress_history: %w", err)
	}
	return nil
}

// HistoryDay is one day bucket, oldest first in the result.
type HistoryDay struct {
	// Date in YYYY-MM-DD (UTC).
	Date string

	// CoursesTouched - records whose LastAccessed falls on this day.
	CoursesTouched int

	// CoursesCompleted - records whose CompletionDate falls on this day.
	CoursesCompleted int
}

// GetProgressHistoryResult contains the last HistoryDays day buckets.
type GetProgressHistoryResult struct {
	Days []HistoryDay
}

// GetProgressHistoryHandler handles the GetProgressHistoryQuery.
type GetProgressHistoryHandler struct {
	progressRepo progress.Repository

	// now is swappable for tests.
	now func() time.Time
}

// NewGetProgressHistoryHandler creates a new GetProgressHistoryHandler.
func NewGetProgressHistoryHandler(progressRepo progress.Repository) *GetProgressHistoryHandler {
	return &GetProgressHistoryHandler{progressRepo: progressRepo, now: time.Now}
}

// Handle executes the query.
func (h *GetProgressHistoryHandler) Handle(ctx context.Context, q GetProgressHistoryQuery) (*GetProgressHistoryResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	records, err := h.progressRepo.ListByLearner(ctx, shared.LearnerID(q.LearnerID))
	if err != nil {
		return nil, fmt.Errorf("progress_history: %w", err)
	}

	days := timeutil.LastNDays(h.now(), HistoryDays)
	buckets := make([]HistoryDay, HistoryDays)
	index := make(map[string]int, HistoryDays)
	for i, day := range days {
		key := timeutil.DayKey(day)
		buckets[i] = HistoryDay{Date: key}
		index[key] = i
	}

	for _, rec := range records {
		if !rec.LastAccessed.IsZero() {
			if i, ok := index[timeutil.DayKey(rec.LastAccessed)]; ok {
				buckets[i].CoursesTouched++
			}
		}
		if rec.CompletionDate != nil {
			if i, ok := index[timeutil.DayKey(*rec.CompletionDate)]; ok {
				buckets[i].CoursesCompleted++
			}
		}
	}

	return &GetProgressHistoryResult{Days: buckets}, nil
}
