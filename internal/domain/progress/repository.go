package progress

import (
	"context"
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Updates must be linearizable per (learner, course) key: implementations
// apply each mutation as a single conditional statement targeting the keyed
// record, never a read-modify-write of the learner's whole progress
// collection. Two concurrent updates for the same pair must not interleave
// partial writes.
// ══════════════════════════════════════════════════════════════════════════════

// Update describes a single progress mutation.
type Update struct {
	// Completion - the client-supplied aggregate value. Stored completion is
	// clamped to max(existing, supplied).
	Completion shared.Completion

	// ContentProgress - entries merged into the record's map by key.
	// May be nil.
	ContentProgress map[shared.ContentItemID]int

	// QuizScore - optional quiz result to append.
	QuizScore *QuizScore

	// Accessed - the mutation timestamp; refreshes LastAccessed and stamps
	// CompletionDate on the 100% transition.
	Accessed time.Time
}

// Repository defines storage operations for the progress ledger.
type Repository interface {
	// Create inserts a fresh enrollment record.
	// Returns shared.ErrAlreadyEnrolled when a record for the pair exists;
	// the caller treats that as a no-op success and returns the existing
	// record.
	Create(ctx context.Context, r *Record) error

	// Get returns the record for the pair.
	// Returns shared.ErrNotEnrolled if no record exists.
	Get(ctx context.Context, learnerID shared.LearnerID, courseID shared.CourseID) (*Record, error)

	// ListByLearner returns all of a learner's records, most recently
	// accessed first.
	ListByLearner(ctx context.Context, learnerID shared.LearnerID) ([]*Record, error)

	// ApplyUpdate performs the atomic keyed mutation: clamps completion,
	// merges content-progress keys, appends the quiz score, refreshes
	// LastAccessed, and stamps CompletionDate exactly once on the 100%
	// transition. Returns the post-update record and whether this call made
	// the transition.
	// Returns shared.ErrNotEnrolled if no record exists.
	ApplyUpdate(ctx context.Context, learnerID shared.LearnerID, courseID shared.CourseID, upd Update) (rec *Record, justCompleted bool, err error)

	// SetCertificateLocator backfills the locator if none is stored yet and
	// returns the record. When a locator already exists the stored one wins
	// and is returned - re-issuing reuses it, it never errors.
	// Returns shared.ErrNotEnrolled if no record exists.
	SetCertificateLocator(ctx context.Context, learnerID shared.LearnerID, courseID shared.CourseID, locator string) (*Record, error)

	// CountCompleted returns the number of the learner's records at 100%.
	CountCompleted(ctx context.Context, learnerID shared.LearnerID) (int, error)
}
