package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arlearn/arlearn-engine/internal/domain/course"
	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/progress"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMMENDATIONS QUERY
// Courses tagged with the learner's analyzed style, excluding already
// enrolled ones. An unclassified learner gets an empty list with an explicit
// reason, never a fabricated recommendation.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultRecommendationLimit caps how many courses a single query returns.
const DefaultRecommendationLimit = 5

// GetRecommendationsQuery identifies the learner to recommend for.
type GetRecommendationsQuery struct {
	LearnerID string

	// Limit caps the result size; non-positive values fall back to the default.
	Limit int
}

// Validate validates the query.
func (q GetRecommendationsQuery) Validate() error {
	if _, err := shared.NewLearnerID(q.LearnerID); err != nil {
		return fmt.Errorf("recommendations: %w", err)
	}
	return nil
}

// RecommendedCourse is one recommendation entry.
type RecommendedCourse struct {
	CourseID shared.CourseID
	Title    string
}

// GetRecommendationsResult contains the recommendations.
type GetRecommendationsResult struct {
	// Style is the analyzed style the recommendations are based on.
	// StyleUnset when the learner has not been classified yet.
	Style shared.LearningStyle

	Courses []RecommendedCourse

	// Reason explains an empty list ("not_classified" or "no_matches").
	Reason string
}

// GetRecommendationsHandler handles the GetRecommendationsQuery.
type GetRecommendationsHandler struct {
	learnerRepo  learner.Repository
	progressRepo progress.Repository
	courses      course.Reader
	logger       *slog.Logger
}

// NewGetRecommendationsHandler creates a new GetRecommendationsHandler.
func NewGetRecommendationsHandler(
	learnerRepo learner.Repository,
	progressRepo progress.Repository,
	courses course.Reader,
	logger *slog.Logger,
) *GetRecommendationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetRecommendationsHandler{
		learnerRepo:  learnerRepo,
		progressRepo: progressRepo,
		courses:      courses,
		logger:       logger,
	}
}

// Handle executes the query.
func (h *GetRecommendationsHandler) Handle(ctx context.Context, q GetRecommendationsQuery) (*GetRecommendationsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	learnerID := shared.LearnerID(q.LearnerID)

	l, err := h.learnerRepo.GetByID(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}

	if !l.AnalyzedStyle.IsSet() {
		return &GetRecommendationsResult{
			Style:   shared.StyleUnset,
			Courses: []RecommendedCourse{},
			Reason:  "not_classified",
		}, nil
	}

	enrolled, err := h.enrolledCourseIDs(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}

	matches, err := h.courses.FindByStyle(ctx, l.AnalyzedStyle.Style, enrolled, limit)
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}

	result := &GetRecommendationsResult{
		Style:   l.AnalyzedStyle.Style,
		Courses: make([]RecommendedCourse, 0, len(matches)),
	}
	for _, c := range matches {
		result.Courses = append(result.Courses, RecommendedCourse{CourseID: c.ID, Title: c.Title})
	}
	if len(result.Courses) == 0 {
		result.Reason = "no_matches"
	}

	return result, nil
}

func (h *GetRecommendationsHandler) enrolledCourseIDs(ctx context.Context, learnerID shared.LearnerID) ([]shared.CourseID, error) {
	records, err := h.progressRepo.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	ids := make([]shared.CourseID, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.CourseID)
	}
	return ids, nil
}
