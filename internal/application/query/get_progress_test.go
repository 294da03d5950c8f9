package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlearn/arlearn-engine/internal/domain/progress"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

func TestGetProgress(t *testing.T) {
	now := time.Now().UTC()
	rec := progress.NewRecord(shared.LearnerID(learnerA), shared.CourseID(courseA), now)
	rec.ApplyCompletion(70, now)

	h := NewGetProgressHandler(&fakeProgressRepo{records: []*progress.Record{rec}})

	result, err := h.Handle(context.Background(), GetProgressQuery{LearnerID: learnerA, CourseID: courseA})
	require.NoError(t, err)

	assert.True(t, result.Enrolled)
	assert.False(t, result.CertificateAvailable)
	assert.Equal(t, 70, result.Record.Completion.Int())
}

func TestGetProgress_NotEnrolledReadsAsZero(t *testing.T) {
	h := NewGetProgressHandler(&fakeProgressRepo{})

	result, err := h.Handle(context.Background(), GetProgressQuery{LearnerID: learnerA, CourseID: courseA})
	require.NoError(t, err, "reading progress for an un-enrolled pair is not an error")

	assert.False(t, result.Enrolled)
	assert.Equal(t, 0, result.Record.Completion.Int())
	assert.False(t, result.CertificateAvailable)
}

func TestGetProgress_CertificateAvailable(t *testing.T) {
	now := time.Now().UTC()
	rec := progress.NewRecord(shared.LearnerID(learnerA), shared.CourseID(courseA), now)
	rec.ApplyCompletion(100, now)

	h := NewGetProgressHandler(&fakeProgressRepo{records: []*progress.Record{rec}})

	result, err := h.Handle(context.Background(), GetProgressQuery{LearnerID: learnerA, CourseID: courseA})
	require.NoError(t, err)
	assert.True(t, result.CertificateAvailable)
}

func TestGetProgress_Validation(t *testing.T) {
	h := NewGetProgressHandler(&fakeProgressRepo{})

	_, err := h.Handle(context.Background(), GetProgressQuery{LearnerID: "x", CourseID: courseA})
	assert.True(t, shared.IsValidation(err))
}
