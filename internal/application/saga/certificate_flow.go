// Package saga contains multi-step business processes that orchestrate
// several domain operations in a coordinated manner.
package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/certificate"
	"github.com/arlearn/arlearn-engine/internal/domain/course"
	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/progress"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CERTIFICATE ISSUANCE FLOW
// Flow: Load Progress Record → Check Completion → Reuse Existing Locator →
//
//	Resolve Learner & Course → Render Document → Persist Locator → Publish Event
//
// The flow is triggered by the 100% completion transition or invoked directly
// as an issue-or-fetch call, and is independently retryable: a failed render
// degrades the triggering progress update to success-with-warning, and the
// caller can simply re-request issuance later.
// ══════════════════════════════════════════════════════════════════════════════

// IssueCertificateInput identifies the record to certify.
type IssueCertificateInput struct {
	LearnerID shared.LearnerID
	CourseID  shared.CourseID

	// Trigger - what started this flow ("completion" or "direct"). Logged only.
	Trigger string

	// CorrelationID for tracing.
	CorrelationID string
}

// IssueCertificateResult contains the outcome of the flow.
type IssueCertificateResult struct {
	// Locator - the stable certificate reference now on the record.
	Locator string

	// Reused - true when an existing locator was returned without
	// re-rendering. Issuance is idempotent: an already-certificated record
	// keeps its first locator.
	Reused bool

	// IssuedAt - when the flow finished.
	IssuedAt time.Time
}

// CertificateFlow orchestrates certificate issuance.
type CertificateFlow struct {
	progressRepo progress.Repository
	learnerRepo  learner.Repository
	courses      course.Reader
	renderer     certificate.Renderer
	events       shared.EventPublisher
	logger       *slog.Logger

	// renderTimeout bounds the external renderer call.
	renderTimeout time.Duration
}

// CertificateFlowConfig contains configuration for the flow.
type CertificateFlowConfig struct {
	RenderTimeout time.Duration
}

// DefaultCertificateFlowConfig returns sensible defaults.
func DefaultCertificateFlowConfig() CertificateFlowConfig {
	return CertificateFlowConfig{
		RenderTimeout: 10 * time.Second,
	}
}

// NewCertificateFlow creates a new CertificateFlow.
func NewCertificateFlow(
	progressRepo progress.Repository,
	learnerRepo learner.Repository,
	courses course.Reader,
	renderer certificate.Renderer,
	events shared.EventPublisher,
	logger *slog.Logger,
	config CertificateFlowConfig,
) *CertificateFlow {
	if config.RenderTimeout <= 0 {
		config = DefaultCertificateFlowConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CertificateFlow{
		progressRepo:  progressRepo,
		learnerRepo:   learnerRepo,
		courses:       courses,
		renderer:      renderer,
		events:        events,
		logger:        logger,
		renderTimeout: config.RenderTimeout,
	}
}

// Issue runs the flow. Precondition: the record must be at 100%; a direct
// invocation against an incomplete record fails with ErrCourseNotCompleted
// before any side effect.
func (f *CertificateFlow) Issue(ctx context.Context, in IssueCertificateInput) (*IssueCertificateResult, error) {
	rec, err := f.progressRepo.Get(ctx, in.LearnerID, in.CourseID)
	if err != nil {
		return nil, fmt.Errorf("certificate_flow: load progress: %w", err)
	}

	if !rec.IsCompleted() {
		return nil, shared.ErrCourseNotCompleted
	}

	// Idempotent fast path: an already-certificated record keeps its locator.
	if rec.HasCertificate() {
		return &IssueCertificateResult{
			Locator:  rec.CertificateLocator,
			Reused:   true,
			IssuedAt: time.Now().UTC(),
		}, nil
	}

	l, err := f.learnerRepo.GetByID(ctx, in.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("certificate_flow: load learner: %w", err)
	}

	c, err := f.courses.GetByID(ctx, in.CourseID)
	if err != nil {
		return nil, fmt.Errorf("certificate_flow: load course: %w", err)
	}

	completedAt := time.Now().UTC()
	if rec.CompletionDate != nil {
		completedAt = *rec.CompletionDate
	}

	renderCtx, cancel := context.WithTimeout(ctx, f.renderTimeout)
	defer cancel()

	locator, err := f.renderer.Render(renderCtx, certificate.RenderRequest{
		StudentName: l.Name,
		CourseTitle: c.Title,
		Date:        completedAt,
	})
	if err != nil {
		f.logger.Error("certificate render failed",
			"learner_id", in.LearnerID.String(),
			"course_id", in.CourseID.String(),
			"trigger", in.Trigger,
			"error", err,
		)
		failed := shared.NewCertificateFailedEvent(in.LearnerID.String(), in.CourseID.String(), err.Error())
		if in.CorrelationID != "" {
			failed.BaseEvent = failed.BaseEvent.WithCorrelationID(in.CorrelationID)
		}
		f.publish(failed)

		if errors.Is(err, context.DeadlineExceeded) {
			return nil, shared.WrapError("certificate", "Render", shared.ErrTimeout, "certificate renderer timed out", err)
		}
		return nil, shared.WrapError("certificate", "Render", shared.ErrExternalService, "certificate generation failed", err)
	}

	// Set-once persist. If a concurrent issuance won the race, the stored
	// locator comes back and ours is discarded.
	updated, err := f.progressRepo.SetCertificateLocator(ctx, in.LearnerID, in.CourseID, locator)
	if err != nil {
		return nil, fmt.Errorf("certificate_flow: persist locator: %w", err)
	}

	reused := updated.CertificateLocator != locator
	if !reused {
		issued := shared.NewCertificateIssuedEvent(in.LearnerID.String(), in.CourseID.String(), locator)
		if in.CorrelationID != "" {
			issued.BaseEvent = issued.BaseEvent.WithCorrelationID(in.CorrelationID)
		}
		f.publish(issued)
	}

	f.logger.Info("certificate issued",
		"learner_id", in.LearnerID.String(),
		"course_id", in.CourseID.String(),
		"locator", updated.CertificateLocator,
		"reused", reused,
	)

	return &IssueCertificateResult{
		Locator:  updated.CertificateLocator,
		Reused:   reused,
		IssuedAt: time.Now().UTC(),
	}, nil
}

func (f *CertificateFlow) publish(event shared.Event) {
	if f.events == nil {
		return
	}
	_ = f.events.Publish(event)
}
