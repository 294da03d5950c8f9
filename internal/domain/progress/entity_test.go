package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

const (
	testLearnerID = shared.LearnerID("7ed99bd0-87b2-4dbb-a97b-596c3f29c49b")
	testCourseID  = shared.CourseID("9ca4322d-ebd5-4ffa-a340-56fe811bbab1")
)

func TestNewRecord(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	rec := NewRecord(testLearnerID, testCourseID, now)

	assert.Equal(t, shared.MinCompletion, rec.Completion)
	assert.Equal(t, now, rec.EnrollmentDate)
	assert.Equal(t, now, rec.LastAccessed)
	assert.Nil(t, rec.CompletionDate)
	assert.False(t, rec.IsCompleted())
	assert.False(t, rec.HasCertificate())
}

func TestZeroRecord(t *testing.T) {
	rec := ZeroRecord(testLearnerID, testCourseID)
	assert.Equal(t, shared.MinCompletion, rec.Completion)
	assert.True(t, rec.EnrollmentDate.IsZero(), "a zero record is a read fallback, not an enrollment")
}

func TestApplyCompletion_Monotonic(t *testing.T) {
	now := time.Now().UTC()
	rec := NewRecord(testLearnerID, testCourseID, now)

	rec.ApplyCompletion(60, now)
	assert.Equal(t, shared.Completion(60), rec.Completion)

	// A regression clamps to the stored value.
	rec.ApplyCompletion(30, now.Add(time.Minute))
	assert.Equal(t, shared.Completion(60), rec.Completion)
	assert.Equal(t, now.Add(time.Minute), rec.LastAccessed, "LastAccessed refreshes even on a clamped write")
}

func TestApplyCompletion_TransitionFiresOnce(t *testing.T) {
	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	rec := NewRecord(testLearnerID, testCourseID, now)

	assert.False(t, rec.ApplyCompletion(99, now))

	justCompleted := rec.ApplyCompletion(100, now.Add(time.Hour))
	assert.True(t, justCompleted)
	require.NotNil(t, rec.CompletionDate)
	first := *rec.CompletionDate
	assert.Equal(t, now.Add(time.Hour), first)

	// Re-submitting 100 is not a second transition and never moves the date.
	assert.False(t, rec.ApplyCompletion(100, now.Add(2*time.Hour)))
	assert.Equal(t, first, *rec.CompletionDate)
}

func TestMergeContentProgress(t *testing.T) {
	rec := ZeroRecord(testLearnerID, testCourseID)
	rec.ContentProgress = nil

	rec.MergeContentProgress(map[shared.ContentItemID]int{"video-01": 50, "quiz-01": 80})
	rec.MergeContentProgress(map[shared.ContentItemID]int{"video-01": 100})

	assert.Equal(t, 100, rec.ContentProgress["video-01"])
	assert.Equal(t, 80, rec.ContentProgress["quiz-01"], "keys absent from an update are kept")

	rec.MergeContentProgress(nil)
	assert.Len(t, rec.ContentProgress, 2)
}
