// Package course contains the read-only course model. Courses are owned by
// the external catalog service; the engine only resolves them to validate
// enrollments, label progress overviews, and drive recommendations.
package course

import (
	"context"

	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ContentItem is a single unit of course content.
type ContentItem struct {
	ID    shared.ContentItemID
	Title string
	Kind  shared.ContentKind
}

// Course is the catalog entity as seen by the engine.
type Course struct {
	ID    shared.CourseID
	Title string

	// Styles - the learning styles this course is tagged for. Drives the
	// recommendation query.
	Styles []shared.LearningStyle

	// Content - ordered content items. Content-progress keys in the ledger
	// refer to these item IDs.
	Content []ContentItem
}

// HasStyle reports whether the course is tagged for the given style.
func (c *Course) HasStyle(style shared.LearningStyle) bool {
	for _, s := range c.Styles {
		if s == style {
			return true
		}
	}
	return false
}

// ContentItemByID returns the content item with the given ID, if present.
func (c *Course) ContentItemByID(id shared.ContentItemID) (ContentItem, bool) {
	for _, item := range c.Content {
		if item.ID == id {
			return item, true
		}
	}
	return ContentItem{}, false
}

// Reader is the engine's read-only view of the external course catalog.
type Reader interface {
	// GetByID resolves a course.
	// Returns shared.ErrCourseNotFound if the course is absent.
	GetByID(ctx context.Context, id shared.CourseID) (*Course, error)

	// GetTitles resolves course titles in bulk for progress overviews.
	// Unknown IDs are simply absent from the result map.
	GetTitles(ctx context.Context, ids []shared.CourseID) (map[shared.CourseID]string, error)

	// FindByStyle returns up to limit courses tagged with the style,
	// excluding the given course IDs (already-enrolled courses).
	FindByStyle(ctx context.Context, style shared.LearningStyle, excluding []shared.CourseID, limit int) ([]*Course, error)
}
