package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ACTIVITY COMMAND
// Accumulates one behavioral engagement signal: the content-type counter
// grows by the caller-supplied score, totalActivities grows by exactly one.
// When the post-increment total hits the classification cadence (10, 20,
// 30, ...) the dominant style is recomputed and the analytics reporter is
// notified best-effort via the event bus.
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityCommand contains the data to record an engagement signal.
type RecordActivityCommand struct {
	// LearnerID is the authenticated learner's internal ID.
	LearnerID string

	// ContentType is one of video, audio, interactive, text.
	ContentType string

	// Score is the engagement weight. Caller-supplied and not validated
	// beyond being numeric: zero and negative values are accepted as
	// near-no-op inputs, not rejected.
	Score int

	// DurationSeconds optionally reports time spent, feeding the learner's
	// cumulative stats.
	DurationSeconds int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordActivityCommand) Validate() error {
	if _, err := shared.NewLearnerID(c.LearnerID); err != nil {
		return fmt.Errorf("record_activity: %w", err)
	}
	if !shared.ActivityContentType(c.ContentType).IsValid() {
		return fmt.Errorf("record_activity: %w", shared.ErrUnknownContentType)
	}
	if c.DurationSeconds < 0 {
		return fmt.Errorf("record_activity: duration: %w", shared.ErrNegativeValue)
	}
	return nil
}

// RecordActivityResult contains the result of recording an activity.
type RecordActivityResult struct {
	// Engagement is the post-increment counter snapshot.
	Engagement learner.Engagement

	// Reclassified is true when this event hit the classification cadence.
	Reclassified bool

	// PreviousStyle and AnalyzedStyle are set when Reclassified is true.
	PreviousStyle shared.LearningStyle
	AnalyzedStyle shared.LearningStyle

	// NewAchievements lists achievements unlocked by this activity.
	NewAchievements []learner.Achievement

	// RecordedAt is when the signal was accumulated.
	RecordedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotInvalidator drops a learner's cached analytics snapshot after the
// underlying counters move. Optional: a nil invalidator is a no-op.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, learnerID shared.LearnerID) error
}

// RecordActivityHandler handles the RecordActivityCommand.
type RecordActivityHandler struct {
	learnerRepo  learner.Repository
	achievements *learner.Evaluator
	events       shared.EventPublisher
	snapshots    SnapshotInvalidator
	logger       *slog.Logger
}

// NewRecordActivityHandler creates a new RecordActivityHandler.
func NewRecordActivityHandler(
	learnerRepo learner.Repository,
	achievements *learner.Evaluator,
	events shared.EventPublisher,
	snapshots SnapshotInvalidator,
	logger *slog.Logger,
) *RecordActivityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordActivityHandler{
		learnerRepo:  learnerRepo,
		achievements: achievements,
		events:       events,
		snapshots:    snapshots,
		logger:       logger,
	}
}

// Handle executes the record activity command.
func (h *RecordActivityHandler) Handle(ctx context.Context, cmd RecordActivityCommand) (*RecordActivityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	learnerID := shared.LearnerID(cmd.LearnerID)
	contentType := shared.ActivityContentType(cmd.ContentType)
	now := time.Now().UTC()

	style, err := contentType.Style()
	if err != nil {
		return nil, fmt.Errorf("record_activity: %w", err)
	}

	// Atomic keyed increment. The returned snapshot carries the
	// post-increment total, so each concurrent caller observes a distinct
	// value and the cadence fires exactly once per crossing.
	engagement, err := h.learnerRepo.AddEngagement(ctx, learnerID, style, cmd.Score, now)
	if err != nil {
		return nil, fmt.Errorf("record_activity: %w", err)
	}

	if cmd.DurationSeconds > 0 {
		if err := h.learnerRepo.BumpStats(ctx, learnerID, learner.StatsDelta{TimeSpentSeconds: cmd.DurationSeconds, LastActive: now}); err != nil {
			h.logger.Warn("record_activity: stats bump failed", "learner_id", cmd.LearnerID, "error", err)
		}
	}

	result := &RecordActivityResult{
		Engagement: engagement,
		RecordedAt: now,
	}

	if h.events != nil {
		event := shared.NewActivityRecordedEvent(cmd.LearnerID, contentType, cmd.Score, engagement.TotalActivities)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		_ = h.events.Publish(event)
	}

	if engagement.ShouldClassify() {
		h.reclassify(ctx, cmd, learnerID, engagement, now, result)
	}

	if h.snapshots != nil {
		if err := h.snapshots.Invalidate(ctx, learnerID); err != nil {
			h.logger.Debug("record_activity: snapshot invalidation failed", "learner_id", cmd.LearnerID, "error", err)
		}
	}

	result.NewAchievements = evaluateAchievements(ctx, h.learnerRepo, h.achievements, h.events, h.logger, learnerID, now)

	return result, nil
}

// reclassify recomputes the dominant style from the post-increment counters
// and persists the snapshot. The counters themselves stay untouched.
// Reclassification failure never fails the activity recording.
func (h *RecordActivityHandler) reclassify(
	ctx context.Context,
	cmd RecordActivityCommand,
	learnerID shared.LearnerID,
	engagement learner.Engagement,
	now time.Time,
	result *RecordActivityResult,
) {
	l, err := h.learnerRepo.GetByID(ctx, learnerID)
	if err != nil {
		h.logger.Warn("record_activity: reclassification skipped", "learner_id", cmd.LearnerID, "error", err)
		return
	}

	previous := l.AnalyzedStyle.Style
	next := learner.Classify(engagement)

	if err := h.learnerRepo.SetAnalyzedStyle(ctx, learnerID, next, now); err != nil {
		h.logger.Warn("record_activity: persist analyzed style failed", "learner_id", cmd.LearnerID, "error", err)
		return
	}

	result.Reclassified = true
	result.PreviousStyle = previous
	result.AnalyzedStyle = next

	if h.events != nil {
		breakdown := make(map[string]float64)
		for s, pct := range learner.Breakdown(engagement) {
			breakdown[s.String()] = pct
		}
		event := shared.NewStyleReclassifiedEvent(cmd.LearnerID, previous, next, engagement.TotalActivities, breakdown)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		_ = h.events.Publish(event)
	}
}
