package learner

import (
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT RULES
// Achievements are rules evaluated against current learner state, not stored
// entities. Evaluation runs synchronously after any mutation that could
// change a rule's inputs, and must never fail the triggering mutation:
// per-rule errors are collected and skipped.
// ══════════════════════════════════════════════════════════════════════════════

// Rule defines a single threshold-based achievement.
type Rule struct {
	// Title doubles as the achievement's identity. A learner never earns the
	// same title twice.
	Title       string
	Description string
	Icon        string

	// Check reports whether the learner's current state satisfies the rule.
	Check func(l *Learner) (bool, error)
}

// DefaultRules returns the engine's built-in achievement catalog.
func DefaultRules() []Rule {
	return []Rule{
		{
			Title:       "Quick Starter",
			Description: "Enrolled in your first course",
			Icon:        "🌟",
			Check: func(l *Learner) (bool, error) {
				return l.Stats.CoursesStarted >= 1, nil
			},
		},
		{
			Title:       "Course Champion",
			Description: "Completed your first full course",
			Icon:        "🎯",
			Check: func(l *Learner) (bool, error) {
				return l.Stats.CoursesCompleted >= 1, nil
			},
		},
		{
			Title:       "Course Master",
			Description: "Completed 5 courses",
			Icon:        "🏆",
			Check: func(l *Learner) (bool, error) {
				return l.Stats.CoursesCompleted >= 5, nil
			},
		},
		{
			Title:       "Dedicated Learner",
			Description: "Spent 60 hours learning",
			Icon:        "🎓",
			Check: func(l *Learner) (bool, error) {
				return l.Stats.TotalTimeSpent >= 60*3600, nil
			},
		},
		{
			Title:       "Consistent Learner",
			Description: "5-day study streak",
			Icon:        "💪",
			Check: func(l *Learner) (bool, error) {
				return l.Stats.Streak >= 5, nil
			},
		},
	}
}

// RuleError records a single rule evaluation failure. Failures never abort
// the evaluator pass; the caller logs them.
type RuleError struct {
	Title string
	Err   error
}

// Error implements the error interface.
func (e RuleError) Error() string {
	return fmt.Sprintf("achievement rule %q: %v", e.Title, e.Err)
}

// Evaluator runs the rule catalog against learner state.
type Evaluator struct {
	rules []Rule
}

// NewEvaluator creates an Evaluator. Passing no rules installs DefaultRules.
func NewEvaluator(rules ...Rule) *Evaluator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Evaluator{rules: rules}
}

// Evaluate returns the achievements newly earned by the learner's current
// state. Already-earned titles are skipped even when the rule still matches,
// so repeated evaluation is idempotent. Rule errors are returned alongside
// the results and must not be treated as fatal.
func (ev *Evaluator) Evaluate(l *Learner, now time.Time) ([]Achievement, []RuleError) {
	var earned []Achievement
	var failures []RuleError

	for _, rule := range ev.rules {
		if l.HasAchievement(rule.Title) {
			continue
		}

		ok, err := rule.Check(l)
		if err != nil {
			failures = append(failures, RuleError{Title: rule.Title, Err: err})
			continue
		}
		if !ok {
			continue
		}

		earned = append(earned, Achievement{
			Title:       rule.Title,
			Description: rule.Description,
			Icon:        rule.Icon,
			EarnedAt:    now,
		})
	}

	return earned, failures
}
