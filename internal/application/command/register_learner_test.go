package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

func TestRegisterLearner(t *testing.T) {
	learners := newFakeLearnerRepo()
	events := &eventRecorder{}
	h := NewRegisterLearnerHandler(learners, events, testLogger)

	result, err := h.Handle(context.Background(), RegisterLearnerCommand{
		LearnerID: learnerA,
		Name:      "Aigerim Bekova",
		Email:     "aigerim@example.com",
	})
	require.NoError(t, err)

	assert.False(t, result.AlreadyRegistered)
	assert.Equal(t, shared.LearnerID(learnerA), result.Learner.ID)
	assert.Len(t, events.ofType(shared.EventLearnerRegistered), 1)
}

func TestRegisterLearner_MintsID(t *testing.T) {
	h := NewRegisterLearnerHandler(newFakeLearnerRepo(), nil, testLogger)

	result, err := h.Handle(context.Background(), RegisterLearnerCommand{
		Name:  "Aigerim Bekova",
		Email: "aigerim@example.com",
	})
	require.NoError(t, err)
	assert.True(t, result.Learner.ID.IsValid(), "minted IDs must be valid UUIDs")
}

func TestRegisterLearner_Idempotent(t *testing.T) {
	learners := newFakeLearnerRepo(seededLearner(learnerA))
	events := &eventRecorder{}
	h := NewRegisterLearnerHandler(learners, events, testLogger)

	result, err := h.Handle(context.Background(), RegisterLearnerCommand{
		LearnerID: learnerA,
		Name:      "Someone Else",
		Email:     "other@example.com",
	})
	require.NoError(t, err, "re-registration is a benign outcome")

	assert.True(t, result.AlreadyRegistered)
	assert.Equal(t, "Aigerim Bekova", result.Learner.Name, "the existing record wins")
	assert.Empty(t, events.ofType(shared.EventLearnerRegistered), "no event for the no-op path")
}

func TestRegisterLearner_Validation(t *testing.T) {
	h := NewRegisterLearnerHandler(newFakeLearnerRepo(), nil, testLogger)

	_, err := h.Handle(context.Background(), RegisterLearnerCommand{LearnerID: "bad-id", Name: "A", Email: "a@b.c"})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), RegisterLearnerCommand{Name: "", Email: "a@b.c"})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), RegisterLearnerCommand{Name: "A", Email: ""})
	assert.True(t, shared.IsValidation(err))
}
