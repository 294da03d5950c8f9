package query

import (
	"context"
	"fmt"

	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST ACHIEVEMENTS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListAchievementsQuery identifies the learner whose badges to list.
type ListAchievementsQuery struct {
	LearnerID string
}

// Validate validates the query.
func (q ListAchievementsQuery) Validate() error {
	if _, err := shared.NewLearnerID(q.LearnerID); err != nil {
		return fmt.Errorf("list_achievements: %w", err)
	}
	return nil
}

// AchievementStatus pairs a catalog entry with the learner's earned state.
type AchievementStatus struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Earned      bool   `json:"earned"`
	EarnedAt    string `json:"earned_at,omitempty"`
}

// ListAchievementsResult contains the earned badges in earn order plus the
// full catalog with per-entry earned status.
type ListAchievementsResult struct {
	Earned  []learner.Achievement
	Catalog []AchievementStatus
}

// ListAchievementsHandler handles the ListAchievementsQuery.
type ListAchievementsHandler struct {
	learnerRepo learner.Repository
	rules       []learner.Rule
}

// NewListAchievementsHandler creates a new ListAchievementsHandler.
func NewListAchievementsHandler(learnerRepo learner.Repository, rules []learner.Rule) *ListAchievementsHandler {
	if rules == nil {
		rules = learner.DefaultRules()
	}
	return &ListAchievementsHandler{learnerRepo: learnerRepo, rules: rules}
}

// Handle executes the query.
func (h *ListAchievementsHandler) Handle(ctx context.Context, q ListAchievementsQuery) (*ListAchievementsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	l, err := h.learnerRepo.GetByID(ctx, shared.LearnerID(q.LearnerID))
	if err != nil {
		return nil, fmt.Errorf("list_achievements: %w", err)
	}

	result := &ListAchievementsResult{
		Earned:  l.Achievements,
		Catalog: make([]AchievementStatus, 0, len(h.rules)),
	}

	earnedAt := make(map[string]string, len(l.Achievements))
	for _, a := range l.Achievements {
		earnedAt[a.Title] = a.EarnedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	for _, rule := range h.rules {
		status := AchievementStatus{
			Title:       rule.Title,
			Description: rule.Description,
			Icon:        rule.Icon,
		}
		if at, ok := earnedAt[rule.Title]; ok {
			status.Earned = true
			status.EarnedAt = at
		}
		result.Catalog = append(result.Catalog, status)
	}

	return result, nil
}
