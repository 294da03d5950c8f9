package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlearn/arlearn-engine/internal/domain/course"
	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

func newEnrollFixture() (*EnrollHandler, *fakeLearnerRepo, *fakeProgressRepo, *eventRecorder) {
	learners := newFakeLearnerRepo(seededLearner(learnerA))
	records := newFakeProgressRepo()
	courses := newFakeCourseReader(&course.Course{ID: shared.CourseID(courseA), Title: "Intro to AR"})
	events := &eventRecorder{}
	h := NewEnrollHandler(learners, records, courses, learner.NewEvaluator(), events, testLogger)
	return h, learners, records, events
}

func TestEnroll(t *testing.T) {
	h, learners, _, events := newEnrollFixture()

	result, err := h.Handle(context.Background(), EnrollCommand{LearnerID: learnerA, CourseID: courseA})
	require.NoError(t, err)

	assert.False(t, result.AlreadyEnrolled)
	assert.Equal(t, shared.MinCompletion, result.Record.Completion)
	assert.False(t, result.Record.EnrollmentDate.IsZero())

	l, err := learners.GetByID(context.Background(), shared.LearnerID(learnerA))
	require.NoError(t, err)
	assert.Equal(t, 1, l.Stats.CoursesStarted)

	assert.Len(t, events.ofType(shared.EventLearnerEnrolled), 1)

	// First enrollment unlocks the starter badge.
	require.Len(t, result.NewAchievements, 1)
	assert.Equal(t, "Quick Starter", result.NewAchievements[0].Title)
}

func TestEnroll_Idempotent(t *testing.T) {
	h, _, _, events := newEnrollFixture()

	first, err := h.Handle(context.Background(), EnrollCommand{LearnerID: learnerA, CourseID: courseA})
	require.NoError(t, err)

	second, err := h.Handle(context.Background(), EnrollCommand{LearnerID: learnerA, CourseID: courseA})
	require.NoError(t, err, "re-enrollment is a no-op success, never an error")

	assert.True(t, second.AlreadyEnrolled)
	assert.Equal(t, first.Record.EnrollmentDate, second.Record.EnrollmentDate, "the original record is returned")
	assert.Len(t, events.ofType(shared.EventLearnerEnrolled), 1, "no second enrollment event")
}

func TestEnroll_UnknownLearner(t *testing.T) {
	h, _, records, _ := newEnrollFixture()

	_, err := h.Handle(context.Background(), EnrollCommand{
		LearnerID: "00000000-0000-0000-0000-000000000001",
		CourseID:  courseA,
	})
	assert.True(t, shared.IsNotFound(err))
	assert.Empty(t, records.records, "no record is created when a referent fails to resolve")
}

func TestEnroll_UnknownCourse(t *testing.T) {
	h, _, records, _ := newEnrollFixture()

	_, err := h.Handle(context.Background(), EnrollCommand{LearnerID: learnerA, CourseID: courseB})
	assert.True(t, shared.IsNotFound(err))
	assert.Empty(t, records.records)
}

func TestEnroll_Validation(t *testing.T) {
	h, _, _, _ := newEnrollFixture()

	_, err := h.Handle(context.Background(), EnrollCommand{LearnerID: "bad", CourseID: courseA})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), EnrollCommand{LearnerID: learnerA, CourseID: ""})
	assert.True(t, shared.IsValidation(err))
}
