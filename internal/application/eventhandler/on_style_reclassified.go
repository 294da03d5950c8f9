// Package eventhandler contains asynchronous reactions to domain events.
// Handlers run on the event bus worker pool; their failures are logged and
// never propagate back to the publishing command.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STYLE RECLASSIFIED -> ANALYTICS REPORT
// Bridges reclassification events to the external analytics sink. Dispatch is
// best-effort: a sink failure is logged and dropped, it is never retried into
// the learner-facing request path.
// ══════════════════════════════════════════════════════════════════════════════

// dispatchTimeout bounds a single report dispatch, handler-side, on top of
// whatever transport timeout the sink itself carries.
const dispatchTimeout = 10 * time.Second

// StyleReportDispatcher forwards style reclassifications to the analytics sink.
type StyleReportDispatcher struct {
	learnerRepo learner.Repository
	sink        learner.StyleReportSink
	logger      *slog.Logger
}

// NewStyleReportDispatcher creates a new StyleReportDispatcher.
func NewStyleReportDispatcher(learnerRepo learner.Repository, sink learner.StyleReportSink, logger *slog.Logger) *StyleReportDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &StyleReportDispatcher{learnerRepo: learnerRepo, sink: sink, logger: logger}
}

// Name implements shared.EventHandler.
func (d *StyleReportDispatcher) Name() string {
	return "style_report_dispatcher"
}

// Handle implements shared.EventHandler. The bus logs the returned error and
// drops it; nothing upstream observes a sink failure.
func (d *StyleReportDispatcher) Handle(event shared.Event) error {
	e, ok := event.(shared.StyleReclassifiedEvent)
	if !ok {
		return fmt.Errorf("style_report: unexpected event type %s", event.EventType())
	}

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	learnerID := shared.LearnerID(e.LearnerID)

	// The event carries only the counters' total; the report wants the full
	// counter set and the display name, so re-read the record.
	l, err := d.learnerRepo.GetByID(ctx, learnerID)
	if err != nil {
		return fmt.Errorf("style_report: load learner: %w", err)
	}

	report := learner.StyleReport{
		LearnerID:     l.ID,
		Name:          l.Name,
		Engagement:    l.Engagement,
		AnalyzedStyle: l.AnalyzedStyle.Style,
		ReportedAt:    time.Now().UTC(),
	}

	if err := d.sink.SendStyleReport(ctx, report); err != nil {
		d.logger.Warn("style report dispatch failed",
			"learner_id", e.LearnerID,
			"style", e.NewStyle,
			"error", err)
		return fmt.Errorf("style_report: %w", shared.ErrReportDispatchFailed)
	}

	d.logger.Debug("style report dispatched",
		"learner_id", e.LearnerID,
		"style", e.NewStyle,
		"total_activities", e.TotalActivities)

	return nil
}
