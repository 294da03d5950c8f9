package learner

import (
	"context"
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// The learner record is the single unit of mutual exclusion. Every mutating
// operation here is a keyed, single-statement update - never a whole-record
// read-modify-write - so concurrent activity and progress events cannot lose
// updates against each other. Implementations live in
// infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// StatsDelta describes an atomic increment to the learner's stats block.
// Zero fields are no-ops.
type StatsDelta struct {
	CoursesStarted   int
	CoursesCompleted int
	TimeSpentSeconds int
	LastActive       time.Time
}

// Repository defines storage operations for learner records.
type Repository interface {
	// Create creates a new learner record.
	// Returns a conflict error if the learner already exists.
	Create(ctx context.Context, l *Learner) error

	// GetByID returns a learner with engagement, style, stats and the full
	// ordered achievements sequence.
	// Returns shared.ErrLearnerNotFound if the learner is absent.
	GetByID(ctx context.Context, id shared.LearnerID) (*Learner, error)

	// AddEngagement atomically increments the counter for the given style by
	// score and TotalActivities by one, and refreshes last-active. Returns
	// the post-increment counters, which the caller uses to evaluate the
	// classification cadence: each concurrent call observes a distinct total.
	// Returns shared.ErrLearnerNotFound if the learner is absent.
	AddEngagement(ctx context.Context, id shared.LearnerID, style shared.LearningStyle, score int, at time.Time) (Engagement, error)

	// SetAnalyzedStyle writes the derived classification snapshot. The
	// engagement counters are untouched.
	SetAnalyzedStyle(ctx context.Context, id shared.LearnerID, style shared.LearningStyle, analyzedAt time.Time) error

	// AppendAchievements inserts achievements with set semantics keyed by
	// title: already-earned titles are silently skipped. Returns the subset
	// actually inserted, in input order.
	AppendAchievements(ctx context.Context, id shared.LearnerID, achievements []Achievement) ([]Achievement, error)

	// BumpStats applies an atomic stats increment.
	// Returns shared.ErrLearnerNotFound if the learner is absent.
	BumpStats(ctx context.Context, id shared.LearnerID, delta StatsDelta) error

	// ResetEngagement zeroes all engagement counters. The explicit reset is
	// the only path that decreases them.
	ResetEngagement(ctx context.Context, id shared.LearnerID) error
}

// ══════════════════════════════════════════════════════════════════════════════
// ANALYTICS REPORT SINK
// ══════════════════════════════════════════════════════════════════════════════

// StyleReport is the snapshot dispatched to the external analytics sink
// after a reclassification.
type StyleReport struct {
	LearnerID     shared.LearnerID
	Name          string
	Engagement    Engagement
	AnalyzedStyle shared.LearningStyle
	ReportedAt    time.Time
}

// StyleReportSink sends learning-style reports to an external collaborator.
// Delivery is best-effort: transport failures are logged and swallowed,
// never surfaced to the caller of the triggering endpoint.
type StyleReportSink interface {
	SendStyleReport(ctx context.Context, report StyleReport) error
}
