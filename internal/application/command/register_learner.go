package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER LEARNER COMMAND
// Materializes the analytics-facing learner record. Identity itself lives in
// the external identity layer; the engine only needs a row to hang counters,
// style, stats and achievements on. Re-registration of an existing ID is a
// benign idempotent outcome.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterLearnerCommand contains the data to register a learner.
type RegisterLearnerCommand struct {
	// LearnerID is the external identity layer's ID for this learner.
	// Empty means the engine mints one.
	LearnerID string

	// Name is the display name, used verbatim on certificates.
	Name string

	// Email is the learner's contact address.
	Email string
}

// Validate validates the command.
func (c RegisterLearnerCommand) Validate() error {
	if c.LearnerID != "" {
		if _, err := shared.NewLearnerID(c.LearnerID); err != nil {
			return fmt.Errorf("register_learner: %w", err)
		}
	}
	if c.Name == "" {
		return fmt.Errorf("register_learner: name: %w", shared.ErrEmptyValue)
	}
	if c.Email == "" {
		return fmt.Errorf("register_learner: email: %w", shared.ErrEmptyValue)
	}
	return nil
}

// RegisterLearnerResult contains the result of a registration attempt.
type RegisterLearnerResult struct {
	// Learner is the registered record - fresh, or the pre-existing one when
	// AlreadyRegistered is true.
	Learner *learner.Learner

	// AlreadyRegistered indicates the idempotent re-registration outcome.
	AlreadyRegistered bool
}

// RegisterLearnerHandler handles the RegisterLearnerCommand.
type RegisterLearnerHandler struct {
	learnerRepo learner.Repository
	events      shared.EventPublisher
	logger      *slog.Logger
}

// NewRegisterLearnerHandler creates a new RegisterLearnerHandler.
func NewRegisterLearnerHandler(
	learnerRepo learner.Repository,
	events shared.EventPublisher,
	logger *slog.Logger,
) *RegisterLearnerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegisterLearnerHandler{
		learnerRepo: learnerRepo,
		events:      events,
		logger:      logger,
	}
}

// Handle executes the register learner command.
func (h *RegisterLearnerHandler) Handle(ctx context.Context, cmd RegisterLearnerCommand) (*RegisterLearnerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	id := cmd.LearnerID
	if id == "" {
		id = uuid.NewString()
	}

	l, err := learner.NewLearner(learner.NewLearnerParams{
		ID:    shared.LearnerID(id),
		Name:  cmd.Name,
		Email: cmd.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("register_learner: %w", err)
	}

	if err := h.learnerRepo.Create(ctx, l); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			existing, getErr := h.learnerRepo.GetByID(ctx, shared.LearnerID(id))
			if getErr != nil {
				return nil, fmt.Errorf("register_learner: load existing: %w", getErr)
			}
			return &RegisterLearnerResult{Learner: existing, AlreadyRegistered: true}, nil
		}
		return nil, fmt.Errorf("register_learner: %w", err)
	}

	h.logger.Info("learner registered", "learner_id", id)

	if h.events != nil {
		_ = h.events.Publish(shared.NewLearnerRegisteredEvent(id, time.Now().UTC()))
	}

	return &RegisterLearnerResult{Learner: l}, nil
}
