package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arlearn/arlearn-engine/internal/application/saga"
	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/progress"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PROGRESS COMMAND
// The central ledger mutation. The write itself is all-or-nothing; the
// dependent certificate workflow is best-effort - its failure degrades the
// response to success-with-warning and never rolls the completion back.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProgressCommand contains a single progress mutation.
type UpdateProgressCommand struct {
	// LearnerID is the authenticated learner's internal ID.
	LearnerID string

	// CourseID identifies the enrolled course.
	CourseID string

	// Completion is the client-supplied aggregate percentage (0-100).
	// Values below the stored completion are clamped, not applied.
	Completion int

	// ContentProgress entries are merged by content-item key; keys absent
	// here are never dropped from the record.
	ContentProgress map[string]int

	// QuizScore optionally appends a quiz result.
	QuizScore *progress.QuizScore

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command. Rejection happens before any mutation.
func (c UpdateProgressCommand) Validate() error {
	if _, err := shared.NewLearnerID(c.LearnerID); err != nil {
		return fmt.Errorf("update_progress: %w", err)
	}
	if _, err := shared.NewCourseID(c.CourseID); err != nil {
		return fmt.Errorf("update_progress: %w", err)
	}
	if _, err := shared.NewCompletion(c.Completion); err != nil {
		return fmt.Errorf("update_progress: %w", err)
	}
	for key, value := range c.ContentProgress {
		if !shared.ContentItemID(key).IsValid() {
			return fmt.Errorf("update_progress: invalid content item key %q: %w", key, shared.ErrInvalidID)
		}
		if value < 0 || value > 100 {
			return fmt.Errorf("update_progress: content item %q: %w", key, shared.ErrValueOutOfRange)
		}
	}
	return nil
}

// UpdateProgressResult contains the result of a progress mutation.
type UpdateProgressResult struct {
	// Record is the post-update ledger state.
	Record *progress.Record

	// Completed is true when this call transitioned the record to 100%.
	Completed bool

	// Clamped is true when the supplied completion was below the stored one
	// and the stored value won.
	Clamped bool

	// CertificateLocator is set when the completion transition issued (or
	// reused) a certificate.
	CertificateLocator string

	// CertificateError carries the dependent-workflow failure detail. The
	// progress mutation itself has committed; the caller reports overall
	// success with this warning attached and may retry issuance later.
	CertificateError string

	// NewAchievements lists achievements unlocked by this mutation.
	NewAchievements []learner.Achievement
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProgressHandler handles the UpdateProgressCommand.
type UpdateProgressHandler struct {
	learnerRepo  learner.Repository
	progressRepo progress.Repository
	certificates *saga.CertificateFlow
	achievements *learner.Evaluator
	events       shared.EventPublisher
	logger       *slog.Logger
}

// NewUpdateProgressHandler creates a new UpdateProgressHandler.
func NewUpdateProgressHandler(
	learnerRepo learner.Repository,
	progressRepo progress.Repository,
	certificates *saga.CertificateFlow,
	achievements *learner.Evaluator,
	events shared.EventPublisher,
	logger *slog.Logger,
) *UpdateProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdateProgressHandler{
		learnerRepo:  learnerRepo,
		progressRepo: progressRepo,
		certificates: certificates,
		achievements: achievements,
		events:       events,
		logger:       logger,
	}
}

// Handle executes the update progress command.
func (h *UpdateProgressHandler) Handle(ctx context.Context, cmd UpdateProgressCommand) (*UpdateProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	learnerID := shared.LearnerID(cmd.LearnerID)
	courseID := shared.CourseID(cmd.CourseID)
	now := time.Now().UTC()

	contentProgress := make(map[shared.ContentItemID]int, len(cmd.ContentProgress))
	for k, v := range cmd.ContentProgress {
		contentProgress[shared.ContentItemID(k)] = v
	}

	rec, justCompleted, err := h.progressRepo.ApplyUpdate(ctx, learnerID, courseID, progress.Update{
		Completion:      shared.Completion(cmd.Completion),
		ContentProgress: contentProgress,
		QuizScore:       cmd.QuizScore,
		Accessed:        now,
	})
	if err != nil {
		return nil, fmt.Errorf("update_progress: %w", err)
	}

	result := &UpdateProgressResult{
		Record:    rec,
		Completed: justCompleted,
		Clamped:   rec.Completion.Int() > cmd.Completion,
	}

	if h.events != nil {
		event := shared.NewProgressUpdatedEvent(cmd.LearnerID, cmd.CourseID, rec.Completion.Int(), cmd.Completion)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		_ = h.events.Publish(event)
	}

	if justCompleted {
		h.onCompleted(ctx, cmd, learnerID, courseID, now, result)
	}

	result.NewAchievements = evaluateAchievements(ctx, h.learnerRepo, h.achievements, h.events, h.logger, learnerID, now)

	return result, nil
}

// onCompleted runs the dependent steps of the 100% transition: stats bump,
// completion event, certificate issuance. None of them can fail the ledger
// write that already committed.
func (h *UpdateProgressHandler) onCompleted(
	ctx context.Context,
	cmd UpdateProgressCommand,
	learnerID shared.LearnerID,
	courseID shared.CourseID,
	now time.Time,
	result *UpdateProgressResult,
) {
	if err := h.learnerRepo.BumpStats(ctx, learnerID, learner.StatsDelta{CoursesCompleted: 1, LastActive: now}); err != nil {
		h.logger.Warn("update_progress: completion stats bump failed",
			"learner_id", cmd.LearnerID, "course_id", cmd.CourseID, "error", err)
	}

	if h.events != nil {
		_ = h.events.Publish(shared.NewCourseCompletedEvent(cmd.LearnerID, cmd.CourseID, now))
	}

	if h.certificates == nil {
		return
	}

	issued, err := h.certificates.Issue(ctx, saga.IssueCertificateInput{
		LearnerID:     learnerID,
		CourseID:      courseID,
		Trigger:       "completion",
		CorrelationID: cmd.CorrelationID,
	})
	if err != nil {
		// Degrade, don't fail: completion is already durable.
		result.CertificateError = err.Error()
		h.logger.Error("update_progress: certificate issuance degraded",
			"learner_id", cmd.LearnerID, "course_id", cmd.CourseID, "error", err)
		return
	}

	result.CertificateLocator = issued.Locator
	result.Record.CertificateLocator = issued.Locator
}
