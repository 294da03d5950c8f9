package command

import (
	"context"
	"fmt"

	"github.com/arlearn/arlearn-engine/internal/application/saga"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ISSUE CERTIFICATE COMMAND
// Direct issue-or-fetch invocation of the certificate flow, outside the
// 100%-completion trigger. Fails with ErrCourseNotCompleted against an
// incomplete record; reuses the stored locator against an already
// certificated one.
// ══════════════════════════════════════════════════════════════════════════════

// IssueCertificateCommand identifies the record to certify.
type IssueCertificateCommand struct {
	// LearnerID is the authenticated learner's internal ID.
	LearnerID string

	// CourseID identifies the completed course.
	CourseID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c IssueCertificateCommand) Validate() error {
	if _, err := shared.NewLearnerID(c.LearnerID); err != nil {
		return fmt.Errorf("issue_certificate: %w", err)
	}
	if _, err := shared.NewCourseID(c.CourseID); err != nil {
		return fmt.Errorf("issue_certificate: %w", err)
	}
	return nil
}

// IssueCertificateHandler handles the IssueCertificateCommand.
type IssueCertificateHandler struct {
	flow *saga.CertificateFlow
}

// NewIssueCertificateHandler creates a new IssueCertificateHandler.
func NewIssueCertificateHandler(flow *saga.CertificateFlow) *IssueCertificateHandler {
	return &IssueCertificateHandler{flow: flow}
}

// Handle executes the issue certificate command.
func (h *IssueCertificateHandler) Handle(ctx context.Context, cmd IssueCertificateCommand) (*saga.IssueCertificateResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return h.flow.Issue(ctx, saga.IssueCertificateInput{
		LearnerID:     shared.LearnerID(cmd.LearnerID),
		CourseID:      shared.CourseID(cmd.CourseID),
		Trigger:       "direct",
		CorrelationID: cmd.CorrelationID,
	})
}
