// Package progress contains the enrollment & progress ledger: one record per
// (learner, course) pair with completion state, per-content-item
// sub-progress, and certificate backfill.
package progress

import (
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS RECORD
// ══════════════════════════════════════════════════════════════════════════════

// QuizScore records a single quiz result attached to a progress record.
type QuizScore struct {
	QuizID      string    `json:"quiz_id"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completed_at"`
}

// Record is the per-(learner, course) ledger entry. At most one record exists
// per pair; creation is rejected, not duplicated, when one already exists.
//
// After completion the record is immutable except for the set-once
// certificate-locator backfill.
type Record struct {
	// LearnerID + CourseID form the unique key.
	LearnerID shared.LearnerID
	CourseID  shared.CourseID

	// Completion - aggregate percentage, 0-100, monotonically non-decreasing.
	// Client values below the stored one are clamped, never applied.
	Completion shared.Completion

	// ContentProgress - per-content-item completion, keyed by item ID.
	// Deliberately decoupled from the aggregate Completion: the ledger never
	// derives one from the other.
	ContentProgress map[shared.ContentItemID]int

	// QuizScores - appended quiz results.
	QuizScores []QuizScore

	// EnrollmentDate - when the record was created.
	EnrollmentDate time.Time

	// LastAccessed - refreshed on every progress mutation.
	LastAccessed time.Time

	// CompletionDate - set exactly once, the first time Completion reaches 100.
	CompletionDate *time.Time

	// CertificateLocator - stable reference to the rendered certificate
	// document. Set once by the certificate workflow.
	CertificateLocator string
}

// NewRecord creates a fresh enrollment record with zero completion.
func NewRecord(learnerID shared.LearnerID, courseID shared.CourseID, now time.Time) *Record {
	return &Record{
		LearnerID:       learnerID,
		CourseID:        courseID,
		Completion:      shared.MinCompletion,
		ContentProgress: map[shared.ContentItemID]int{},
		QuizScores:      []QuizScore{},
		EnrollmentDate:  now,
		LastAccessed:    now,
	}
}

// ZeroRecord returns the default a progress read falls back to when no
// record exists. Reading progress is a separate concern from the enrollment
// check, so an un-enrolled pair reads as completion 0 rather than an error.
func ZeroRecord(learnerID shared.LearnerID, courseID shared.CourseID) *Record {
	return &Record{
		LearnerID:       learnerID,
		CourseID:        courseID,
		Completion:      shared.MinCompletion,
		ContentProgress: map[shared.ContentItemID]int{},
		QuizScores:      []QuizScore{},
	}
}

// IsCompleted returns true once the record has reached 100%.
func (r *Record) IsCompleted() bool {
	return r.Completion.IsComplete()
}

// HasCertificate returns true once a certificate locator has been persisted.
func (r *Record) HasCertificate() bool {
	return r.CertificateLocator != ""
}

// MergeContentProgress folds update entries into the map by content-item key.
// Keys absent from the update are never dropped.
func (r *Record) MergeContentProgress(update map[shared.ContentItemID]int) {
	if len(update) == 0 {
		return
	}
	if r.ContentProgress == nil {
		r.ContentProgress = make(map[shared.ContentItemID]int, len(update))
	}
	for k, v := range update {
		r.ContentProgress[k] = v
	}
}

// ApplyCompletion clamps the record's completion to the greater of the stored
// and supplied values and reports whether this call transitioned the record
// to completed. CompletionDate is set once, on the transition only.
func (r *Record) ApplyCompletion(c shared.Completion, now time.Time) (justCompleted bool) {
	wasComplete := r.IsCompleted()
	r.Completion = r.Completion.Max(c)
	r.LastAccessed = now

	if r.IsCompleted() && !wasComplete {
		if r.CompletionDate == nil {
			t := now
			r.CompletionDate = &t
		}
		return true
	}
	return false
}
