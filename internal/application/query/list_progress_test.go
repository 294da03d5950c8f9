package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlearn/arlearn-engine/internal/domain/course"
	"github.com/arlearn/arlearn-engine/internal/domain/progress"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

func seedLedger() *fakeProgressRepo {
	now := time.Now().UTC()

	recA := progress.NewRecord(shared.LearnerID(learnerA), shared.CourseID(courseA), now.AddDate(0, 0, -10))
	recA.ApplyCompletion(100, now.AddDate(0, 0, -2))
	recA.CertificateLocator = "certificates/cert-001.pdf"

	recB := progress.NewRecord(shared.LearnerID(learnerA), shared.CourseID(courseB), now.AddDate(0, 0, -5))
	recB.ApplyCompletion(35, now)

	return &fakeProgressRepo{records: []*progress.Record{recA, recB}}
}

func TestListProgress(t *testing.T) {
	courses := newFakeCourseReader(
		&course.Course{ID: shared.CourseID(courseA), Title: "Intro to AR"},
		&course.Course{ID: shared.CourseID(courseB), Title: "Spatial Audio"},
	)
	h := NewListProgressHandler(seedLedger(), courses, testLogger)

	result, err := h.Handle(context.Background(), ListProgressQuery{LearnerID: learnerA})
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalCourses)
	assert.Equal(t, 1, result.CompletedCourses)
	require.Len(t, result.Items, 2)

	byID := map[shared.CourseID]ProgressOverviewItem{}
	for _, item := range result.Items {
		byID[item.CourseID] = item
	}

	completed := byID[shared.CourseID(courseA)]
	assert.Equal(t, "Intro to AR", completed.CourseTitle)
	assert.True(t, completed.Completed)
	assert.Equal(t, "certificates/cert-001.pdf", completed.CertificateLocator)
	require.NotNil(t, completed.CompletionDate)

	active := byID[shared.CourseID(courseB)]
	assert.Equal(t, 35, active.Completion)
	assert.Nil(t, active.CompletionDate)
}

func TestListProgress_CatalogFailureDegradesTitles(t *testing.T) {
	courses := newFakeCourseReader()
	courses.titlesErr = errors.New("catalog down")
	h := NewListProgressHandler(seedLedger(), courses, testLogger)

	result, err := h.Handle(context.Background(), ListProgressQuery{LearnerID: learnerA})
	require.NoError(t, err, "a catalog failure degrades labels, never the listing")

	require.Len(t, result.Items, 2)
	for _, item := range result.Items {
		assert.Empty(t, item.CourseTitle)
	}
}

func TestListProgress_EmptyLedger(t *testing.T) {
	h := NewListProgressHandler(&fakeProgressRepo{}, newFakeCourseReader(), testLogger)

	result, err := h.Handle(context.Background(), ListProgressQuery{LearnerID: learnerA})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Zero(t, result.TotalCourses)
}
