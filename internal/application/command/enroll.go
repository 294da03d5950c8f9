// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/course"
	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/progress"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLL COMMAND
// Creates the (learner, course) progress record. Re-enrollment is a benign
// idempotent outcome: the second call returns the first record as a no-op
// success, never a hard error.
// ══════════════════════════════════════════════════════════════════════════════

// EnrollCommand contains the data to enroll a learner in a course.
type EnrollCommand struct {
	// LearnerID is the authenticated learner's internal ID.
	LearnerID string

	// CourseID identifies the course in the external catalog.
	CourseID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c EnrollCommand) Validate() error {
	if _, err := shared.NewLearnerID(c.LearnerID); err != nil {
		return fmt.Errorf("enroll: %w", err)
	}
	if _, err := shared.NewCourseID(c.CourseID); err != nil {
		return fmt.Errorf("enroll: %w", err)
	}
	return nil
}

// EnrollResult contains the result of an enrollment attempt.
type EnrollResult struct {
	// Record is the progress record for the pair - freshly created, or the
	// pre-existing one when AlreadyEnrolled is true.
	Record *progress.Record

	// AlreadyEnrolled indicates the idempotent re-enrollment outcome.
	AlreadyEnrolled bool

	// NewAchievements lists achievements unlocked by this enrollment.
	NewAchievements []learner.Achievement
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// EnrollHandler handles the EnrollCommand.
type EnrollHandler struct {
	learnerRepo  learner.Repository
	progressRepo progress.Repository
	courses      course.Reader
	achievements *learner.Evaluator
	events       shared.EventPublisher
	logger       *slog.Logger
}

// NewEnrollHandler creates a new EnrollHandler.
func NewEnrollHandler(
	learnerRepo learner.Repository,
	progressRepo progress.Repository,
	courses course.Reader,
	achievements *learner.Evaluator,
	events shared.EventPublisher,
	logger *slog.Logger,
) *EnrollHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrollHandler{
		learnerRepo:  learnerRepo,
		progressRepo: progressRepo,
		courses:      courses,
		achievements: achievements,
		events:       events,
		logger:       logger,
	}
}

// Handle executes the enroll command.
func (h *EnrollHandler) Handle(ctx context.Context, cmd EnrollCommand) (*EnrollResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	learnerID := shared.LearnerID(cmd.LearnerID)
	courseID := shared.CourseID(cmd.CourseID)

	// Both referents must resolve before any mutation.
	if _, err := h.learnerRepo.GetByID(ctx, learnerID); err != nil {
		return nil, fmt.Errorf("enroll: resolve learner: %w", err)
	}
	if _, err := h.courses.GetByID(ctx, courseID); err != nil {
		return nil, fmt.Errorf("enroll: resolve course: %w", err)
	}

	now := time.Now().UTC()
	rec := progress.NewRecord(learnerID, courseID, now)

	if err := h.progressRepo.Create(ctx, rec); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			existing, getErr := h.progressRepo.Get(ctx, learnerID, courseID)
			if getErr != nil {
				return nil, fmt.Errorf("enroll: load existing record: %w", getErr)
			}
			return &EnrollResult{Record: existing, AlreadyEnrolled: true}, nil
		}
		return nil, fmt.Errorf("enroll: create record: %w", err)
	}

	if err := h.learnerRepo.BumpStats(ctx, learnerID, learner.StatsDelta{CoursesStarted: 1, LastActive: now}); err != nil {
		h.logger.Warn("enroll: stats bump failed", "learner_id", cmd.LearnerID, "error", err)
	}

	result := &EnrollResult{Record: rec}
	result.NewAchievements = evaluateAchievements(ctx, h.learnerRepo, h.achievements, h.events, h.logger, learnerID, now)

	event := shared.NewLearnerEnrolledEvent(cmd.LearnerID, cmd.CourseID, now)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	if h.events != nil {
		_ = h.events.Publish(event)
	}

	return result, nil
}

// evaluateAchievements runs the rule catalog against fresh learner state and
// persists any newly-earned badges. It is shared by every mutating command
// and never fails the triggering mutation: all errors are logged and the
// evaluator pass simply yields nothing.
func evaluateAchievements(
	ctx context.Context,
	repo learner.Repository,
	evaluator *learner.Evaluator,
	events shared.EventPublisher,
	logger *slog.Logger,
	id shared.LearnerID,
	now time.Time,
) []learner.Achievement {
	if evaluator == nil {
		return nil
	}

	l, err := repo.GetByID(ctx, id)
	if err != nil {
		logger.Warn("achievement evaluation skipped: learner load failed", "learner_id", id.String(), "error", err)
		return nil
	}

	earned, failures := evaluator.Evaluate(l, now)
	for _, f := range failures {
		logger.Warn("achievement rule failed", "rule", f.Title, "learner_id", id.String(), "error", f.Err)
	}
	if len(earned) == 0 {
		return nil
	}

	// Set semantics are enforced again at the storage layer, so a concurrent
	// evaluator pass cannot double-award a title.
	inserted, err := repo.AppendAchievements(ctx, id, earned)
	if err != nil {
		logger.Warn("achievement persist failed", "learner_id", id.String(), "error", err)
		return nil
	}

	if events != nil {
		for _, a := range inserted {
			_ = events.Publish(shared.NewAchievementUnlockedEvent(id.String(), a.Title, a.Icon))
		}
	}

	return inserted
}
