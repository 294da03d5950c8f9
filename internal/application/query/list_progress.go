package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/course"
	"github.com/arlearn/arlearn-engine/internal/domain/progress"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST PROGRESS QUERY (OVERVIEW)
// The learner's whole ledger, labeled with course titles from the external
// catalog. Catalog failures degrade the labels, never the listing.
// ══════════════════════════════════════════════════════════════════════════════

// ListProgressQuery identifies the learner whose ledger to list.
type ListProgressQuery struct {
	LearnerID string
}

// Validate validates the query.
func (q ListProgressQuery) Validate() error {
	if _, err := shared.NewLearnerID(q.LearnerID); err != nil {
		return fmt.Errorf("list_progress: %w", err)
	}
	return nil
}

// ProgressOverviewItem is one ledger row labeled for display.
type ProgressOverviewItem struct {
	CourseID    shared.CourseID
	CourseTitle string
	Completion  int
	Completed   bool

	EnrollmentDate time.Time
	LastAccessed   time.Time
	CompletionDate *time.Time

	CertificateLocator string
}

// ListProgressResult contains the overview.
type ListProgressResult struct {
	Items []ProgressOverviewItem

	// TotalCourses and CompletedCourses summarize the ledger.
	TotalCourses     int
	CompletedCourses int
}

// ListProgressHandler handles the ListProgressQuery.
type ListProgressHandler struct {
	progressRepo progress.Repository
	courses      course.Reader
	logger       *slog.Logger
}

// NewListProgressHandler creates a new ListProgressHandler.
func NewListProgressHandler(progressRepo progress.Repository, courses course.Reader, logger *slog.Logger) *ListProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListProgressHandler{progressRepo: progressRepo, courses: courses, logger: logger}
}

// Handle executes the query.
func (h *ListProgressHandler) Handle(ctx context.Context, q ListProgressQuery) (*ListProgressResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	learnerID := shared.LearnerID(q.LearnerID)

	records, err := h.progressRepo.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list_progress: %w", err)
	}

	titles := h.resolveTitles(ctx, records)

	result := &ListProgressResult{
		Items:        make([]ProgressOverviewItem, 0, len(records)),
		TotalCourses: len(records),
	}

	for _, rec := range records {
		item := ProgressOverviewItem{
			CourseID:           rec.CourseID,
			CourseTitle:        titles[rec.CourseID],
			Completion:         rec.Completion.Int(),
			Completed:          rec.IsCompleted(),
			EnrollmentDate:     rec.EnrollmentDate,
			LastAccessed:       rec.LastAccessed,
			CompletionDate:     rec.CompletionDate,
			CertificateLocator: rec.CertificateLocator,
		}
		if item.Completed {
			result.CompletedCourses++
		}
		result.Items = append(result.Items, item)
	}

	return result, nil
}

// resolveTitles labels the records via the catalog. A catalog failure leaves
// the titles empty; the listing itself still succeeds.
func (h *ListProgressHandler) resolveTitles(ctx context.Context, records []*progress.Record) map[shared.CourseID]string {
	if h.courses == nil || len(records) == 0 {
		return nil
	}

	ids := make([]shared.CourseID, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.CourseID)
	}

	titles, err := h.courses.GetTitles(ctx, ids)
	if err != nil {
		h.logger.Warn("list_progress: course title resolution degraded", "error", err)
		return nil
	}
	return titles
}
