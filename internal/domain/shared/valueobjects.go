// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// LearnerID represents a unique learner identifier (UUID format).
type LearnerID string

// IsValid checks if the learner ID is a valid UUID.
func (l LearnerID) IsValid() bool {
	return uuidRegex.MatchString(string(l))
}

// String returns the string representation.
func (l LearnerID) String() string {
	return string(l)
}

// IsEmpty checks if the ID is empty.
func (l LearnerID) IsEmpty() bool {
	return l == ""
}

// NewLearnerID creates a new LearnerID with validation.
func NewLearnerID(id string) (LearnerID, error) {
	lid := LearnerID(strings.ToLower(strings.TrimSpace(id)))
	if !lid.IsValid() {
		return "", NewDomainError("shared", "NewLearnerID", ErrInvalidID, "invalid learner ID format")
	}
	return lid, nil
}

// CourseID represents a unique course identifier (UUID format).
type CourseID string

// IsValid checks if the course ID is a valid UUID.
func (c CourseID) IsValid() bool {
	return uuidRegex.MatchString(string(c))
}

// String returns the string representation.
func (c CourseID) String() string {
	return string(c)
}

// IsEmpty checks if the ID is empty.
func (c CourseID) IsEmpty() bool {
	return c == ""
}

// NewCourseID creates a new CourseID with validation.
func NewCourseID(id string) (CourseID, error) {
	cid := CourseID(strings.ToLower(strings.TrimSpace(id)))
	if !cid.IsValid() {
		return "", NewDomainError("shared", "NewCourseID", ErrInvalidID, "invalid course ID format")
	}
	return cid, nil
}

// ContentItemID identifies a single content item inside a course.
// Format: free-form, supplied by the course authoring side (e.g. "video-01").
type ContentItemID string

// IsValid checks that the content item ID is non-empty and reasonably sized.
func (c ContentItemID) IsValid() bool {
	s := string(c)
	return len(s) >= 1 && len(s) <= 100 && !strings.ContainsAny(s, " \t\n\r")
}

// String returns the string representation.
func (c ContentItemID) String() string {
	return string(c)
}

// ═══════════════════════════════════════════════════════════════════════════
// Completion Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Completion represents a course completion percentage.
type Completion int

const (
	// MinCompletion is an empty progress record.
	MinCompletion Completion = 0
	// MaxCompletion means the course is fully completed.
	MaxCompletion Completion = 100
)

// IsValid checks if the completion value is within the 0-100 range.
func (c Completion) IsValid() bool {
	return c >= MinCompletion && c <= MaxCompletion
}

// Int returns the underlying int value.
func (c Completion) Int() int {
	return int(c)
}

// IsComplete returns true when the course is fully completed.
func (c Completion) IsComplete() bool {
	return c >= MaxCompletion
}

// Max returns the greater of two completion values.
// Stored completion never decreases: client regressions are clamped.
func (c Completion) Max(other Completion) Completion {
	if other > c {
		return other
	}
	return c
}

// NewCompletion creates a new Completion with validation.
func NewCompletion(value int) (Completion, error) {
	c := Completion(value)
	if !c.IsValid() {
		return 0, NewDomainError("shared", "NewCompletion", ErrValueOutOfRange, "completion must be between 0 and 100")
	}
	return c, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Learning Style Value Object
// ═══════════════════════════════════════════════════════════════════════════

// LearningStyle represents a learner's dominant learning style dimension.
type LearningStyle string

const (
	StyleVisual      LearningStyle = "visual"
	StyleAuditory    LearningStyle = "auditory"
	StyleKinesthetic LearningStyle = "kinesthetic"
	StyleReading     LearningStyle = "reading"

	// StyleUnset means the learner has not been classified yet.
	StyleUnset LearningStyle = ""
)

// StyleOrder is the canonical enumeration order of the style dimensions.
// Classification tie-breaks resolve to the first style in this order, so the
// order is part of the engine's contract and must never depend on map iteration.
var StyleOrder = [4]LearningStyle{StyleVisual, StyleAuditory, StyleKinesthetic, StyleReading}

// IsValid checks if the style is one of the four known dimensions.
func (s LearningStyle) IsValid() bool {
	switch s {
	case StyleVisual, StyleAuditory, StyleKinesthetic, StyleReading:
		return true
	default:
		return false
	}
}

// IsSet returns true if a classification has been performed.
func (s LearningStyle) IsSet() bool {
	return s != StyleUnset
}

// String returns the string representation.
func (s LearningStyle) String() string {
	return string(s)
}

// ═══════════════════════════════════════════════════════════════════════════
// Activity Content Type Value Object
// ═══════════════════════════════════════════════════════════════════════════

// ActivityContentType is the content type tag of a recorded activity event.
// Each activity type maps 1:1 onto a learning-style engagement counter.
type ActivityContentType string

const (
	ActivityVideo       ActivityContentType = "video"
	ActivityAudio       ActivityContentType = "audio"
	ActivityInteractive ActivityContentType = "interactive"
	ActivityText        ActivityContentType = "text"
)

// IsValid checks if the activity content type is known.
func (a ActivityContentType) IsValid() bool {
	switch a {
	case ActivityVideo, ActivityAudio, ActivityInteractive, ActivityText:
		return true
	default:
		return false
	}
}

// Style returns the engagement dimension this activity type feeds.
// The mapping is closed and exhaustive: video→visual, audio→auditory,
// interactive→kinesthetic, text→reading.
func (a ActivityContentType) Style() (LearningStyle, error) {
	switch a {
	case ActivityVideo:
		return StyleVisual, nil
	case ActivityAudio:
		return StyleAuditory, nil
	case ActivityInteractive:
		return StyleKinesthetic, nil
	case ActivityText:
		return StyleReading, nil
	default:
		return StyleUnset, NewDomainError("shared", "Style", ErrInvalidInput, fmt.Sprintf("unknown activity content type %q", a))
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Course Content Kind Value Object
// ═══════════════════════════════════════════════════════════════════════════

// ContentKind is the type tag of a course content item.
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentVideo ContentKind = "video"
	ContentAR    ContentKind = "ar"
	ContentQuiz  ContentKind = "quiz"
)

// IsValid checks if the content kind is known.
func (k ContentKind) IsValid() bool {
	switch k {
	case ContentText, ContentVideo, ContentAR, ContentQuiz:
		return true
	default:
		return false
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// TimeRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeRange represents a time period.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// IsValid checks if the time range is valid.
func (t TimeRange) IsValid() bool {
	return !t.From.IsZero() && !t.To.IsZero() && !t.From.After(t.To)
}

// Contains checks if a time is within the range.
func (t TimeRange) Contains(tm time.Time) bool {
	return (tm.Equal(t.From) || tm.After(t.From)) && (tm.Equal(t.To) || tm.Before(t.To))
}

// LastNDays returns a TimeRange for the last N days.
func LastNDays(n int) TimeRange {
	now := time.Now().UTC()
	return TimeRange{
		From: now.AddDate(0, 0, -n),
		To:   now,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}
