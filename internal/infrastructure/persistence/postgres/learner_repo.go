package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER REPOSITORY IMPLEMENTATION
// Every mutation is a single keyed UPDATE so concurrent activity and progress
// events cannot lose increments against each other. No method does a
// read-modify-write of the learner row.
// ══════════════════════════════════════════════════════════════════════════════

// LearnerRepository implements learner.Repository for PostgreSQL.
type LearnerRepository struct {
	conn *Connection
}

// NewLearnerRepository creates a new LearnerRepository.
func NewLearnerRepository(conn *Connection) *LearnerRepository {
	return &LearnerRepository{conn: conn}
}

// Create creates a new learner record.
func (r *LearnerRepository) Create(ctx context.Context, l *learner.Learner) error {
	query := `
		INSERT INTO learners (
			id, name, email,
			engagement_visual, engagement_auditory, engagement_kinesthetic, engagement_reading,
			total_activities, analyzed_style, last_analyzed_at,
			courses_started, courses_completed, total_time_spent, streak, last_active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.conn.Exec(ctx, query,
		string(l.ID),
		l.Name,
		l.Email,
		l.Engagement.Visual,
		l.Engagement.Auditory,
		l.Engagement.Kinesthetic,
		l.Engagement.Reading,
		l.Engagement.TotalActivities,
		string(l.AnalyzedStyle.Style),
		nullableTime(l.AnalyzedStyle.LastAnalyzedAt),
		l.Stats.CoursesStarted,
		l.Stats.CoursesCompleted,
		l.Stats.TotalTimeSpent,
		l.Stats.Streak,
		nullableTime(l.Stats.LastActive),
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("learner", "Create", shared.ErrAlreadyExists, "learner already exists", err)
		}
		return fmt.Errorf("failed to create learner: %w", err)
	}

	return nil
}

// GetByID returns a learner with engagement, style, stats and the full
// ordered achievements sequence.
func (r *LearnerRepository) GetByID(ctx context.Context, id shared.LearnerID) (*learner.Learner, error) {
	query := `
		SELECT id, name, email,
			   engagement_visual, engagement_auditory, engagement_kinesthetic, engagement_reading,
			   total_activities, analyzed_style, last_analyzed_at,
			   courses_started, courses_completed, total_time_spent, streak, last_active,
			   created_at, updated_at
		FROM learners
		WHERE id = $1
	`

	l, err := r.scanLearner(r.conn.QueryRow(ctx, query, string(id)))
	if err != nil {
		return nil, err
	}

	achievements, err := r.getAchievements(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Achievements = achievements

	return l, nil
}

// engagementColumn maps a style to its counter column. The whitelist keeps
// the style value out of the SQL text.
func engagementColumn(style shared.LearningStyle) (string, bool) {
	switch style {
	case shared.StyleVisual:
		return "engagement_visual", true
	case shared.StyleAuditory:
		return "engagement_auditory", true
	case shared.StyleKinesthetic:
		return "engagement_kinesthetic", true
	case shared.StyleReading:
		return "engagement_reading", true
	default:
		return "", false
	}
}

// AddEngagement atomically increments the style counter and the activity
// total, returning the post-increment counters. Concurrent callers each
// observe a distinct total, which makes the classification cadence fire
// exactly once per crossing. The streak transition lives in the same
// statement: SET expressions read the pre-update row, so the CASE compares
// against the last_active value this very statement is about to overwrite.
func (r *LearnerRepository) AddEngagement(ctx context.Context, id shared.LearnerID, style shared.LearningStyle, score int, at time.Time) (learner.Engagement, error) {
	column, ok := engagementColumn(style)
	if !ok {
		return learner.Engagement{}, shared.ErrUnknownContentType
	}

	query := fmt.Sprintf(`
		UPDATE learners SET
			%s = %s + $2,
			total_activities = total_activities + 1,
			streak = CASE
				WHEN last_active IS NULL THEN 1
				WHEN $3::date <= last_active::date THEN streak
				WHEN $3::date = last_active::date + 1 THEN streak + 1
				ELSE 1
			END,
			last_active = GREATEST(last_active, $3),
			updated_at = $3
		WHERE id = $1
		RETURNING engagement_visual, engagement_auditory, engagement_kinesthetic, engagement_reading, total_activities
	`, column, column)

	var e learner.Engagement
	err := r.conn.QueryRow(ctx, query, string(id), score, at).Scan(
		&e.Visual,
		&e.Auditory,
		&e.Kinesthetic,
		&e.Reading,
		&e.TotalActivities,
	)
	if IsNoRows(err) {
		return learner.Engagement{}, shared.ErrLearnerNotFound
	}
	if err != nil {
		return learner.Engagement{}, fmt.Errorf("failed to add engagement: %w", err)
	}

	return e, nil
}

// SetAnalyzedStyle writes the derived classification snapshot.
func (r *LearnerRepository) SetAnalyzedStyle(ctx context.Context, id shared.LearnerID, style shared.LearningStyle, analyzedAt time.Time) error {
	query := `
		UPDATE learners SET
			analyzed_style = $2,
			last_analyzed_at = $3,
			updated_at = $3
		WHERE id = $1
	`

	result, err := r.conn.Exec(ctx, query, string(id), string(style), analyzedAt)
	if err != nil {
		return fmt.Errorf("failed to set analyzed style: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrLearnerNotFound
	}

	return nil
}

// AppendAchievements inserts achievements with set semantics keyed by title.
// The unique constraint on (learner_id, title) enforces the semantics in
// storage; RETURNING tells each insert apart from a skip.
func (r *LearnerRepository) AppendAchievements(ctx context.Context, id shared.LearnerID, achievements []learner.Achievement) ([]learner.Achievement, error) {
	if len(achievements) == 0 {
		return nil, nil
	}

	query := `
		INSERT INTO learner_achievements (learner_id, title, description, icon, earned_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (learner_id, title) DO NOTHING
		RETURNING title
	`

	var inserted []learner.Achievement
	for _, a := range achievements {
		var title string
		err := r.conn.QueryRow(ctx, query, string(id), a.Title, a.Description, a.Icon, a.EarnedAt).Scan(&title)
		if IsNoRows(err) {
			continue // already earned
		}
		if err != nil {
			if IsForeignKeyViolation(err) {
				return inserted, shared.ErrLearnerNotFound
			}
			return inserted, fmt.Errorf("failed to append achievement %q: %w", a.Title, err)
		}
		inserted = append(inserted, a)
	}

	return inserted, nil
}

// BumpStats applies an atomic stats increment. When the delta carries a
// last-active timestamp the streak advances in the same statement: the first
// active day starts it at one, the next day extends it, a gap restarts it.
// A timestamp on or before the stored last_active keeps the streak, and
// GREATEST keeps last_active monotonic, so replayed or same-day events
// (an activity recording has already advanced both via AddEngagement) never
// regress either column.
func (r *LearnerRepository) BumpStats(ctx context.Context, id shared.LearnerID, delta learner.StatsDelta) error {
	query := `
		UPDATE learners SET
			courses_started = courses_started + $2,
			courses_completed = courses_completed + $3,
			total_time_spent = total_time_spent + $4,
			streak = CASE
				WHEN $5::timestamptz IS NULL THEN streak
				WHEN last_active IS NULL THEN 1
				WHEN $5::date <= last_active::date THEN streak
				WHEN $5::date = last_active::date + 1 THEN streak + 1
				ELSE 1
			END,
			last_active = GREATEST(last_active, $5),
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.conn.Exec(ctx, query,
		string(id),
		delta.CoursesStarted,
		delta.CoursesCompleted,
		delta.TimeSpentSeconds,
		nullableTime(delta.LastActive),
	)
	if err != nil {
		return fmt.Errorf("failed to bump stats: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrLearnerNotFound
	}

	return nil
}

// ResetEngagement zeroes all engagement counters.
func (r *LearnerRepository) ResetEngagement(ctx context.Context, id shared.LearnerID) error {
	query := `
		UPDATE learners SET
			engagement_visual = 0,
			engagement_auditory = 0,
			engagement_kinesthetic = 0,
			engagement_reading = 0,
			total_activities = 0,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.conn.Exec(ctx, query, string(id))
	if err != nil {
		return fmt.Errorf("failed to reset engagement: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrLearnerNotFound
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

func (r *LearnerRepository) getAchievements(ctx context.Context, id shared.LearnerID) ([]learner.Achievement, error) {
	query := `
		SELECT title, description, icon, earned_at
		FROM learner_achievements
		WHERE learner_id = $1
		ORDER BY id ASC
	`

	rows, err := r.conn.Query(ctx, query, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}
	defer rows.Close()

	achievements := []learner.Achievement{}
	for rows.Next() {
		var a learner.Achievement
		if err := rows.Scan(&a.Title, &a.Description, &a.Icon, &a.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, a)
	}

	return achievements, rows.Err()
}

func (r *LearnerRepository) scanLearner(row pgx.Row) (*learner.Learner, error) {
	var l learner.Learner
	var id, analyzedStyle string
	var lastAnalyzedAt, lastActive *time.Time

	err := row.Scan(
		&id,
		&l.Name,
		&l.Email,
		&l.Engagement.Visual,
		&l.Engagement.Auditory,
		&l.Engagement.Kinesthetic,
		&l.Engagement.Reading,
		&l.Engagement.TotalActivities,
		&analyzedStyle,
		&lastAnalyzedAt,
		&l.Stats.CoursesStarted,
		&l.Stats.CoursesCompleted,
		&l.Stats.TotalTimeSpent,
		&l.Stats.Streak,
		&lastActive,
		&l.CreatedAt,
		&l.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan learner: %w", err)
	}

	l.ID = shared.LearnerID(id)
	l.AnalyzedStyle.Style = shared.LearningStyle(analyzedStyle)
	if lastAnalyzedAt != nil {
		l.AnalyzedStyle.LastAnalyzedAt = *lastAnalyzedAt
	}
	if lastActive != nil {
		l.Stats.LastActive = *lastActive
	}

	return &l, nil
}

// nullableTime maps the zero time to NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
