package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLearnerID(t *testing.T) {
	id, err := NewLearnerID("7ED99BD0-87B2-4DBB-A97B-596C3F29C49B")
	require.NoError(t, err)
	assert.Equal(t, LearnerID("7ed99bd0-87b2-4dbb-a97b-596c3f29c49b"), id, "IDs are normalized to lowercase")

	_, err = NewLearnerID("not-a-uuid")
	assert.Error(t, err)

	_, err = NewLearnerID("")
	assert.Error(t, err)
}

func TestNewCourseID(t *testing.T) {
	id, err := NewCourseID("  9ca4322d-ebd5-4ffa-a340-56fe811bbab1  ")
	require.NoError(t, err)
	assert.Equal(t, "9ca4322d-ebd5-4ffa-a340-56fe811bbab1", id.String())

	_, err = NewCourseID("9ca4322d")
	assert.Error(t, err)
}

func TestContentItemID_IsValid(t *testing.T) {
	assert.True(t, ContentItemID("video-01").IsValid())
	assert.False(t, ContentItemID("").IsValid())
	assert.False(t, ContentItemID("has space").IsValid())
}

func TestCompletion_Validation(t *testing.T) {
	for _, v := range []int{0, 1, 50, 99, 100} {
		c, err := NewCompletion(v)
		require.NoError(t, err)
		assert.Equal(t, v, c.Int())
	}

	for _, v := range []int{-1, 101, 150} {
		_, err := NewCompletion(v)
		assert.Error(t, err, "completion %d must be rejected", v)
	}
}

func TestCompletion_Max(t *testing.T) {
	assert.Equal(t, Completion(75), Completion(75).Max(40), "regressions clamp to the stored value")
	assert.Equal(t, Completion(80), Completion(75).Max(80))
	assert.Equal(t, Completion(75), Completion(75).Max(75))
}

func TestCompletion_IsComplete(t *testing.T) {
	assert.False(t, Completion(99).IsComplete())
	assert.True(t, Completion(100).IsComplete())
}

func TestActivityContentType_Style(t *testing.T) {
	cases := map[ActivityContentType]LearningStyle{
		ActivityVideo:       StyleVisual,
		ActivityAudio:       StyleAuditory,
		ActivityInteractive: StyleKinesthetic,
		ActivityText:        StyleReading,
	}
	for contentType, want := range cases {
		style, err := contentType.Style()
		require.NoError(t, err)
		assert.Equal(t, want, style)
	}

	_, err := ActivityContentType("podcast").Style()
	assert.Error(t, err, "unknown content types are rejected, not defaulted")
}

func TestStyleOrder(t *testing.T) {
	// The tie-break contract depends on this exact order.
	assert.Equal(t, [4]LearningStyle{StyleVisual, StyleAuditory, StyleKinesthetic, StyleReading}, StyleOrder)
}

func TestLearningStyle_IsSet(t *testing.T) {
	assert.False(t, StyleUnset.IsSet())
	assert.True(t, StyleVisual.IsSet())
	assert.False(t, LearningStyle("tactile").IsValid())
}

func TestTimeRange(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	r := TimeRange{From: from, To: to}
	assert.True(t, r.IsValid())
	assert.True(t, r.Contains(from))
	assert.True(t, r.Contains(to))
	assert.True(t, r.Contains(from.AddDate(0, 0, 3)))
	assert.False(t, r.Contains(to.Add(time.Second)))

	assert.False(t, TimeRange{From: to, To: from}.IsValid())
}

func TestPagination(t *testing.T) {
	p := NewPagination(0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.Limit())
	assert.Equal(t, 0, p.Offset())

	p = NewPagination(3, 10)
	assert.Equal(t, 20, p.Offset())

	p = NewPagination(1, 500)
	assert.Equal(t, MaxPageSize, p.Limit())
}
