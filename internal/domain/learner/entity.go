// Package learner contains the learner aggregate: identity, engagement
// counters, the derived learning-style classification, and earned
// achievements. This is the core of the analytics engine - no external
// dependencies are allowed here.
package learner

import (
	"errors"
	"strings"
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENGAGEMENT COUNTERS
// ══════════════════════════════════════════════════════════════════════════════

// Engagement holds the accumulated behavioral signal per learning-style
// dimension. Counters only grow under normal operation; an explicit reset
// is the single exception.
type Engagement struct {
	// Visual - accumulated score from video content.
	Visual int

	// Auditory - accumulated score from audio content.
	Auditory int

	// Kinesthetic - accumulated score from interactive content.
	Kinesthetic int

	// Reading - accumulated score from text content.
	Reading int

	// TotalActivities - number of recorded activity events. Incremented by
	// exactly one per event regardless of the event's score.
	TotalActivities int
}

// ClassificationCadence is the activity interval at which the classifier runs.
// Classification triggers exactly when TotalActivities is a positive multiple
// of this value.
const ClassificationCadence = 10

// For returns the counter value for a style dimension.
func (e Engagement) For(style shared.LearningStyle) int {
	switch style {
	case shared.StyleVisual:
		return e.Visual
	case shared.StyleAuditory:
		return e.Auditory
	case shared.StyleKinesthetic:
		return e.Kinesthetic
	case shared.StyleReading:
		return e.Reading
	default:
		return 0
	}
}

// Add returns a copy with the given style counter increased by score and
// TotalActivities increased by one. Score may be zero or negative; the
// event still counts as one activity.
func (e Engagement) Add(style shared.LearningStyle, score int) Engagement {
	switch style {
	case shared.StyleVisual:
		e.Visual += score
	case shared.StyleAuditory:
		e.Auditory += score
	case shared.StyleKinesthetic:
		e.Kinesthetic += score
	case shared.StyleReading:
		e.Reading += score
	}
	e.TotalActivities++
	return e
}

// Sum returns the total accumulated score across all dimensions.
func (e Engagement) Sum() int {
	return e.Visual + e.Auditory + e.Kinesthetic + e.Reading
}

// ShouldClassify reports whether the classifier must run at the current
// activity count. True exactly at 10, 20, 30, ... - never at zero.
func (e Engagement) ShouldClassify() bool {
	return e.TotalActivities > 0 && e.TotalActivities%ClassificationCadence == 0
}

// ══════════════════════════════════════════════════════════════════════════════
// ANALYZED STYLE
// ══════════════════════════════════════════════════════════════════════════════

// AnalyzedStyle is the derived classification snapshot. It is never authored
// by a client; only the classifier writes it.
type AnalyzedStyle struct {
	// Style - the dominant learning style, or shared.StyleUnset before the
	// first classification.
	Style shared.LearningStyle

	// LastAnalyzedAt - when the classifier last ran. Zero before the first run.
	LastAnalyzedAt time.Time
}

// IsSet returns true once the learner has been classified at least once.
func (a AnalyzedStyle) IsSet() bool {
	return a.Style.IsSet()
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// Achievement is a one-time badge on the learner record. The achievements
// sequence is append-only and ordered; titles act as the uniqueness key.
type Achievement struct {
	Title       string
	Description string
	Icon        string
	EarnedAt    time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS
// ══════════════════════════════════════════════════════════════════════════════

// Stats holds cumulative learner statistics that feed achievement rules.
type Stats struct {
	// CoursesStarted - number of enrollments.
	CoursesStarted int

	// CoursesCompleted - number of progress records that reached 100%.
	CoursesCompleted int

	// TotalTimeSpent - accumulated learning time in seconds.
	TotalTimeSpent int

	// Streak - consecutive active days.
	Streak int

	// LastActive - timestamp of the last recorded activity.
	LastActive time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: LEARNER
// ══════════════════════════════════════════════════════════════════════════════

// Learner is the aggregate root of the analytics engine. The whole record,
// including engagement counters and achievements, is the single unit of
// mutual exclusion: storage applies all mutations as atomic keyed updates.
type Learner struct {
	// ID - internal unique identifier (UUID in string format).
	ID shared.LearnerID

	// Name - display name, used verbatim on certificates.
	Name string

	// Email - unique contact address (owned by the external identity layer).
	Email string

	// Engagement - accumulated behavioral counters.
	Engagement Engagement

	// AnalyzedStyle - derived dominant learning style snapshot.
	AnalyzedStyle AnalyzedStyle

	// Achievements - append-only ordered badge sequence.
	Achievements []Achievement

	// Stats - cumulative statistics feeding achievement rules.
	Stats Stats

	// CreatedAt - record creation time.
	CreatedAt time.Time

	// UpdatedAt - last mutation time.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidName - display name out of bounds.
	ErrInvalidName = errors.New("invalid learner name: must be 1-100 chars")

	// ErrInvalidEmail - email missing or malformed.
	ErrInvalidEmail = errors.New("invalid learner email")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewLearnerParams contains parameters for creating a new learner record.
type NewLearnerParams struct {
	ID    shared.LearnerID
	Name  string
	Email string
}

// NewLearner creates a new learner with validation. Registration itself
// happens in the external identity layer; the engine only materializes the
// analytics-facing record.
func NewLearner(params NewLearnerParams) (*Learner, error) {
	if !params.ID.IsValid() {
		return nil, shared.ErrInvalidLearner
	}

	name := strings.TrimSpace(params.Name)
	if len(name) == 0 || len(name) > 100 {
		return nil, ErrInvalidName
	}

	email := strings.TrimSpace(params.Email)
	if len(email) < 3 || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	now := time.Now().UTC()

	return &Learner{
		ID:            params.ID,
		Name:          name,
		Email:         email,
		Engagement:    Engagement{},
		AnalyzedStyle: AnalyzedStyle{Style: shared.StyleUnset},
		Achievements:  []Achievement{},
		Stats:         Stats{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// HasAchievement reports whether an achievement with the given title has
// already been earned. Titles are the identity of achievements: once earned,
// a title is never re-appended.
func (l *Learner) HasAchievement(title string) bool {
	for _, a := range l.Achievements {
		if a.Title == title {
			return true
		}
	}
	return false
}

// Award appends a new achievement. Returns ErrAchievementAlreadyEarned when
// the title is already present; the sequence stays untouched in that case.
func (l *Learner) Award(a Achievement) error {
	if l.HasAchievement(a.Title) {
		return shared.ErrAchievementAlreadyEarned
	}
	if a.EarnedAt.IsZero() {
		a.EarnedAt = time.Now().UTC()
	}
	l.Achievements = append(l.Achievements, a)
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// RecordActivity accumulates one engagement signal and reports whether the
// classification cadence was hit by this event.
func (l *Learner) RecordActivity(contentType shared.ActivityContentType, score int) (classifyDue bool, err error) {
	style, err := contentType.Style()
	if err != nil {
		return false, shared.ErrUnknownContentType
	}

	l.Engagement = l.Engagement.Add(style, score)
	l.Stats.LastActive = time.Now().UTC()
	l.UpdatedAt = l.Stats.LastActive

	return l.Engagement.ShouldClassify(), nil
}

// Reclassify recomputes the dominant style from the current counters and
// stores the snapshot. The counters themselves are untouched: classification
// is a pure read over them. Returns the previous and the new style.
func (l *Learner) Reclassify(now time.Time) (previous, next shared.LearningStyle) {
	previous = l.AnalyzedStyle.Style
	next = Classify(l.Engagement)

	l.AnalyzedStyle = AnalyzedStyle{
		Style:          next,
		LastAnalyzedAt: now,
	}
	l.UpdatedAt = now

	return previous, next
}

// ResetEngagement clears all counters. The only sanctioned decrease path.
func (l *Learner) ResetEngagement() {
	l.Engagement = Engagement{}
	l.UpdatedAt = time.Now().UTC()
}
