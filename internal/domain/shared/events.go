// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the engine.
const (
	// Learner lifecycle events
	EventLearnerRegistered EventType = "learner.registered"

	// Enrollment & progress events
	EventLearnerEnrolled EventType = "progress.enrolled"
	EventProgressUpdated EventType = "progress.updated"
	EventCourseCompleted EventType = "progress.course_completed"

	// Engagement & classification events
	EventActivityRecorded  EventType = "engagement.activity_recorded"
	EventStyleReclassified EventType = "engagement.style_reclassified"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"

	// Certificate events
	EventCertificateIssued EventType = "certificate.issued"
	EventCertificateFailed EventType = "certificate.failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Enrollment & Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// LearnerRegisteredEvent is emitted when the analytics-facing learner record
// is first materialized.
type LearnerRegisteredEvent struct {
	BaseEvent
	LearnerID  string    `json:"learner_id"`
	Registered time.Time `json:"registered_at"`
}

// Payload implements Event interface.
func (e LearnerRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":    e.LearnerID,
		"registered_at": e.Registered,
	}
}

// NewLearnerRegisteredEvent creates a new LearnerRegisteredEvent.
func NewLearnerRegisteredEvent(learnerID string, registeredAt time.Time) LearnerRegisteredEvent {
	return LearnerRegisteredEvent{
		BaseEvent:  NewBaseEvent(EventLearnerRegistered, learnerID),
		LearnerID:  learnerID,
		Registered: registeredAt,
	}
}

// LearnerEnrolledEvent is emitted when a learner enrolls in a course.
type LearnerEnrolledEvent struct {
	BaseEvent
	LearnerID string    `json:"learner_id"`
	CourseID  string    `json:"course_id"`
	Enrolled  time.Time `json:"enrolled_at"`
}

// Payload implements Event interface.
func (e LearnerEnrolledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":  e.LearnerID,
		"course_id":   e.CourseID,
		"enrolled_at": e.Enrolled,
	}
}

// NewLearnerEnrolledEvent creates a new LearnerEnrolledEvent.
func NewLearnerEnrolledEvent(learnerID, courseID string, enrolledAt time.Time) LearnerEnrolledEvent {
	return LearnerEnrolledEvent{
		BaseEvent: NewBaseEvent(EventLearnerEnrolled, learnerID),
		LearnerID: learnerID,
		CourseID:  courseID,
		Enrolled:  enrolledAt,
	}
}

// ProgressUpdatedEvent is emitted when a progress record changes. Completion
// carries the stored post-update value; Supplied carries the client value,
// which may be lower when the clamp won.
type ProgressUpdatedEvent struct {
	BaseEvent
	LearnerID  string `json:"learner_id"`
	CourseID   string `json:"course_id"`
	Completion int    `json:"completion"`
	Supplied   int    `json:"supplied"`
}

// Payload implements Event interface.
func (e ProgressUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"course_id":  e.CourseID,
		"completion": e.Completion,
		"supplied":   e.Supplied,
	}
}

// NewProgressUpdatedEvent creates a new ProgressUpdatedEvent.
func NewProgressUpdatedEvent(learnerID, courseID string, completion, supplied int) ProgressUpdatedEvent {
	return ProgressUpdatedEvent{
		BaseEvent:  NewBaseEvent(EventProgressUpdated, learnerID),
		LearnerID:  learnerID,
		CourseID:   courseID,
		Completion: completion,
		Supplied:   supplied,
	}
}

// CourseCompletedEvent is emitted the first time a progress record reaches 100%.
type CourseCompletedEvent struct {
	BaseEvent
	LearnerID   string    `json:"learner_id"`
	CourseID    string    `json:"course_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// Payload implements Event interface.
func (e CourseCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":   e.LearnerID,
		"course_id":    e.CourseID,
		"completed_at": e.CompletedAt,
	}
}

// NewCourseCompletedEvent creates a new CourseCompletedEvent.
func NewCourseCompletedEvent(learnerID, courseID string, completedAt time.Time) CourseCompletedEvent {
	return CourseCompletedEvent{
		BaseEvent:   NewBaseEvent(EventCourseCompleted, learnerID),
		LearnerID:   learnerID,
		CourseID:    courseID,
		CompletedAt: completedAt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Engagement & Classification Events
// ═══════════════════════════════════════════════════════════════════════════

// ActivityRecordedEvent is emitted when an engagement signal is accumulated.
type ActivityRecordedEvent struct {
	BaseEvent
	LearnerID       string `json:"learner_id"`
	ContentType     string `json:"content_type"`
	Score           int    `json:"score"`
	TotalActivities int    `json:"total_activities"`
}

// Payload implements Event interface.
func (e ActivityRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":       e.LearnerID,
		"content_type":     e.ContentType,
		"score":            e.Score,
		"total_activities": e.TotalActivities,
	}
}

// NewActivityRecordedEvent creates a new ActivityRecordedEvent.
func NewActivityRecordedEvent(learnerID string, contentType ActivityContentType, score, totalActivities int) ActivityRecordedEvent {
	return ActivityRecordedEvent{
		BaseEvent:       NewBaseEvent(EventActivityRecorded, learnerID),
		LearnerID:       learnerID,
		ContentType:     string(contentType),
		Score:           score,
		TotalActivities: totalActivities,
	}
}

// StyleReclassifiedEvent is emitted when the classifier recomputes the
// learner's dominant learning style. Fired on the classification cadence,
// even when the dominant style did not actually change.
type StyleReclassifiedEvent struct {
	BaseEvent
	LearnerID       string             `json:"learner_id"`
	PreviousStyle   string             `json:"previous_style"`
	NewStyle        string             `json:"new_style"`
	TotalActivities int                `json:"total_activities"`
	Breakdown       map[string]float64 `json:"breakdown"`
}

// Payload implements Event interface.
func (e StyleReclassifiedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":       e.LearnerID,
		"previous_style":   e.PreviousStyle,
		"new_style":        e.NewStyle,
		"total_activities": e.TotalActivities,
		"breakdown":        e.Breakdown,
	}
}

// NewStyleReclassifiedEvent creates a new StyleReclassifiedEvent.
func NewStyleReclassifiedEvent(learnerID string, previous, next LearningStyle, totalActivities int, breakdown map[string]float64) StyleReclassifiedEvent {
	return StyleReclassifiedEvent{
		BaseEvent:       NewBaseEvent(EventStyleReclassified, learnerID),
		LearnerID:       learnerID,
		PreviousStyle:   string(previous),
		NewStyle:        string(next),
		TotalActivities: totalActivities,
		Breakdown:       breakdown,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted when a learner earns a new achievement.
type AchievementUnlockedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	Title     string `json:"title"`
	Icon      string `json:"icon"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"title":      e.Title,
		"icon":       e.Icon,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(learnerID, title, icon string) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent: NewBaseEvent(EventAchievementUnlocked, learnerID),
		LearnerID: learnerID,
		Title:     title,
		Icon:      icon,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Certificate Events
// ═══════════════════════════════════════════════════════════════════════════

// CertificateIssuedEvent is emitted when a certificate locator is persisted.
type CertificateIssuedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	CourseID  string `json:"course_id"`
	Locator   string `json:"locator"`
}

// Payload implements Event interface.
func (e CertificateIssuedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"course_id":  e.CourseID,
		"locator":    e.Locator,
	}
}

// NewCertificateIssuedEvent creates a new CertificateIssuedEvent.
func NewCertificateIssuedEvent(learnerID, courseID, locator string) CertificateIssuedEvent {
	return CertificateIssuedEvent{
		BaseEvent: NewBaseEvent(EventCertificateIssued, learnerID),
		LearnerID: learnerID,
		CourseID:  courseID,
		Locator:   locator,
	}
}

// CertificateFailedEvent is emitted when the renderer fails. The triggering
// progress mutation has already committed by the time this event fires.
type CertificateFailedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	CourseID  string `json:"course_id"`
	Reason    string `json:"reason"`
}

// Payload implements Event interface.
func (e CertificateFailedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"course_id":  e.CourseID,
		"reason":     e.Reason,
	}
}

// NewCertificateFailedEvent creates a new CertificateFailedEvent.
func NewCertificateFailedEvent(learnerID, courseID, reason string) CertificateFailedEvent {
	return CertificateFailedEvent{
		BaseEvent: NewBaseEvent(EventCertificateFailed, learnerID),
		LearnerID: learnerID,
		CourseID:  courseID,
		Reason:    reason,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler processes domain events.
type EventHandler interface {
	// Handle processes the event. Errors are logged by the bus, never
	// propagated to the publisher.
	Handle(event Event) error

	// Name returns a human-readable handler name for logging.
	Name() string
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc struct {
	HandlerName string
	Fn          func(event Event) error
}

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(event Event) error {
	return f.Fn(event)
}

// Name implements EventHandler.
func (f EventHandlerFunc) Name() string {
	return f.HandlerName
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(event Event) error
}

// EventBus routes published events to subscribed handlers.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error

	// Close shuts the bus down and waits for in-flight handlers.
	Close() error
}
