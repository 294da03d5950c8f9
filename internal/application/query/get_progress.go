// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/arlearn/arlearn-engine/internal/domain/progress"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Progress-read is a separate concern from the enrollment check: an
// un-enrolled pair reads as a zero-value record (completion 0), never as an
// error. The Enrolled flag carries the distinction.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery identifies the (learner, course) pair to read.
type GetProgressQuery struct {
	LearnerID string
	CourseID  string
}

// Validate validates the query.
func (q GetProgressQuery) Validate() error {
	if _, err := shared.NewLearnerID(q.LearnerID); err != nil {
		return fmt.Errorf("get_progress: %w", err)
	}
	if _, err := shared.NewCourseID(q.CourseID); err != nil {
		return fmt.Errorf("get_progress: %w", err)
	}
	return nil
}

// GetProgressResult contains the progress read.
type GetProgressResult struct {
	// Record is the ledger entry, or the zero-value default when the
	// learner is not enrolled.
	Record *progress.Record

	// Enrolled is false when Record is the zero-value default.
	Enrolled bool

	// CertificateAvailable is true once completion has reached 100%.
	CertificateAvailable bool
}

// GetProgressHandler handles the GetProgressQuery.
type GetProgressHandler struct {
	progressRepo progress.Repository
}

// NewGetProgressHandler creates a new GetProgressHandler.
func NewGetProgressHandler(progressRepo progress.Repository) *GetProgressHandler {
	return &GetProgressHandler{progressRepo: progressRepo}
}

// Handle executes the query.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*GetProgressResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	learnerID := shared.LearnerID(q.LearnerID)
	courseID := shared.CourseID(q.CourseID)

	rec, err := h.progressRepo.Get(ctx, learnerID, courseID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &GetProgressResult{
				Record:   progress.ZeroRecord(learnerID, courseID),
				Enrolled: false,
			}, nil
		}
		return nil, fmt.Errorf("get_progress: %w", err)
	}

	return &GetProgressResult{
		Record:               rec,
		Enrolled:             true,
		CertificateAvailable: rec.IsCompleted(),
	}, nil
}
