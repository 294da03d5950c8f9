package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arlearn/arlearn-engine/internal/domain/course"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE CATALOG READER IMPLEMENTATION
// Read-only view over the catalog mirror table. The engine never writes
// courses; the mirror is maintained by the catalog sync outside this service.
// ══════════════════════════════════════════════════════════════════════════════

// CourseRepository implements course.Reader for PostgreSQL.
type CourseRepository struct {
	conn *Connection
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(conn *Connection) *CourseRepository {
	return &CourseRepository{conn: conn}
}

// GetByID resolves a course.
func (r *CourseRepository) GetByID(ctx context.Context, id shared.CourseID) (*course.Course, error) {
	query := `
		SELECT id, title, styles, content
		FROM courses
		WHERE id = $1
	`

	var courseID, title string
	var styles []string
	var contentJSON []byte

	err := r.conn.QueryRow(ctx, query, string(id)).Scan(&courseID, &title, &styles, &contentJSON)
	if IsNoRows(err) {
		return nil, shared.ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	return buildCourse(courseID, title, styles, contentJSON)
}

// GetTitles resolves course titles in bulk. Unknown IDs are absent from the
// result map.
func (r *CourseRepository) GetTitles(ctx context.Context, ids []shared.CourseID) (map[shared.CourseID]string, error) {
	if len(ids) == 0 {
		return map[shared.CourseID]string{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = string(id)
	}

	query := fmt.Sprintf(
		"SELECT id, title FROM courses WHERE id IN (%s)",
		strings.Join(placeholders, ", "),
	)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get course titles: %w", err)
	}
	defer rows.Close()

	titles := make(map[shared.CourseID]string, len(ids))
	for rows.Next() {
		var id, title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, fmt.Errorf("failed to scan course title: %w", err)
		}
		titles[shared.CourseID(id)] = title
	}

	return titles, rows.Err()
}

// FindByStyle returns up to limit courses tagged with the style, excluding
// the given course IDs.
func (r *CourseRepository) FindByStyle(ctx context.Context, style shared.LearningStyle, excluding []shared.CourseID, limit int) ([]*course.Course, error) {
	query := `
		SELECT id, title, styles, content
		FROM courses
		WHERE $1 = ANY(styles)
		  AND NOT (id = ANY($2::uuid[]))
		ORDER BY title ASC
		LIMIT $3
	`

	excluded := make([]string, len(excluding))
	for i, id := range excluding {
		excluded[i] = string(id)
	}

	rows, err := r.conn.Query(ctx, query, string(style), excluded, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find courses by style: %w", err)
	}
	defer rows.Close()

	courses := []*course.Course{}
	for rows.Next() {
		var courseID, title string
		var styles []string
		var contentJSON []byte

		if err := rows.Scan(&courseID, &title, &styles, &contentJSON); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}

		c, err := buildCourse(courseID, title, styles, contentJSON)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}

	return courses, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// contentItemRow is the JSONB shape of one content item.
type contentItemRow struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
}

func buildCourse(id, title string, styles []string, contentJSON []byte) (*course.Course, error) {
	c := &course.Course{
		ID:    shared.CourseID(id),
		Title: title,
	}

	for _, s := range styles {
		c.Styles = append(c.Styles, shared.LearningStyle(s))
	}

	if len(contentJSON) > 0 {
		var items []contentItemRow
		if err := json.Unmarshal(contentJSON, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal course content: %w", err)
		}
		for _, item := range items {
			c.Content = append(c.Content, course.ContentItem{
				ID:    shared.ContentItemID(item.ID),
				Title: item.Title,
				Kind:  shared.ContentKind(item.Kind),
			})
		}
	}

	return c, nil
}
