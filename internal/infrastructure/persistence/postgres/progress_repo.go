package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/progress"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS LEDGER REPOSITORY IMPLEMENTATION
// ApplyUpdate is one conditional UPDATE: the clamp, the map merge, the quiz
// append, and the set-once completion stamp all happen inside the statement,
// so two concurrent updates for the same pair serialize on the row and
// neither can interleave partial writes or double-fire the completion.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements progress.Repository for PostgreSQL.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

const progressColumns = `
	learner_id, course_id, completion, content_progress, quiz_scores,
	enrollment_date, last_accessed, completion_date, certificate_locator
`

// Create inserts a fresh enrollment record.
func (r *ProgressRepository) Create(ctx context.Context, rec *progress.Record) error {
	query := `
		INSERT INTO progress_records (
			learner_id, course_id, completion, content_progress, quiz_scores,
			enrollment_date, last_accessed, completion_date, certificate_locator
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	contentJSON, err := marshalContentProgress(rec.ContentProgress)
	if err != nil {
		return err
	}
	quizJSON, err := json.Marshal(rec.QuizScores)
	if err != nil {
		return fmt.Errorf("failed to marshal quiz scores: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		string(rec.LearnerID),
		string(rec.CourseID),
		rec.Completion.Int(),
		contentJSON,
		quizJSON,
		rec.EnrollmentDate,
		rec.LastAccessed,
		rec.CompletionDate,
		rec.CertificateLocator,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyEnrolled
		}
		return fmt.Errorf("failed to create progress record: %w", err)
	}

	return nil
}

// Get returns the record for the pair.
func (r *ProgressRepository) Get(ctx context.Context, learnerID shared.LearnerID, courseID shared.CourseID) (*progress.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM progress_records
		WHERE learner_id = $1 AND course_id = $2
	`, progressColumns)

	return r.scanRecord(r.conn.QueryRow(ctx, query, string(learnerID), string(courseID)))
}

// ListByLearner returns all of a learner's records, most recently accessed first.
func (r *ProgressRepository) ListByLearner(ctx context.Context, learnerID shared.LearnerID) ([]*progress.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM progress_records
		WHERE learner_id = $1
		ORDER BY last_accessed DESC
	`, progressColumns)

	rows, err := r.conn.Query(ctx, query, string(learnerID))
	if err != nil {
		return nil, fmt.Errorf("failed to list progress records: %w", err)
	}
	defer rows.Close()

	records := []*progress.Record{}
	for rows.Next() {
		rec, err := r.scanRecordFromRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ApplyUpdate performs the atomic keyed mutation. The completion-date stamp
// carries the mutation timestamp, so the caller's timestamp round-trips back
// only on the transition - that equality is the justCompleted signal.
func (r *ProgressRepository) ApplyUpdate(ctx context.Context, learnerID shared.LearnerID, courseID shared.CourseID, upd progress.Update) (*progress.Record, bool, error) {
	contentJSON, err := marshalContentProgress(upd.ContentProgress)
	if err != nil {
		return nil, false, err
	}

	var quizJSON []byte
	if upd.QuizScore != nil {
		quizJSON, err = json.Marshal([]progress.QuizScore{*upd.QuizScore})
		if err != nil {
			return nil, false, fmt.Errorf("failed to marshal quiz score: %w", err)
		}
	}

	// Postgres keeps microseconds; truncate so the round-tripped stamp
	// compares equal.
	at := upd.Accessed.Truncate(time.Microsecond)

	query := fmt.Sprintf(`
		UPDATE progress_records SET
			completion = GREATEST(completion, $3),
			content_progress = content_progress || $4::jsonb,
			quiz_scores = CASE
				WHEN $5::jsonb IS NULL THEN quiz_scores
				ELSE quiz_scores || $5::jsonb
			END,
			last_accessed = $6,
			completion_date = CASE
				WHEN completion_date IS NULL AND GREATEST(completion, $3) = 100 THEN $6
				ELSE completion_date
			END
		WHERE learner_id = $1 AND course_id = $2
		RETURNING %s
	`, progressColumns)

	rec, err := r.scanRecord(r.conn.QueryRow(ctx, query,
		string(learnerID),
		string(courseID),
		upd.Completion.Int(),
		contentJSON,
		quizJSON,
		at,
	))
	if err != nil {
		return nil, false, err
	}

	justCompleted := rec.CompletionDate != nil && rec.CompletionDate.Equal(at)
	return rec, justCompleted, nil
}

// SetCertificateLocator backfills the locator if none is stored yet and
// returns the record with whichever locator won.
func (r *ProgressRepository) SetCertificateLocator(ctx context.Context, learnerID shared.LearnerID, courseID shared.CourseID, locator string) (*progress.Record, error) {
	query := fmt.Sprintf(`
		UPDATE progress_records SET
			certificate_locator = CASE
				WHEN certificate_locator = '' THEN $3
				ELSE certificate_locator
			END
		WHERE learner_id = $1 AND course_id = $2
		RETURNING %s
	`, progressColumns)

	return r.scanRecord(r.conn.QueryRow(ctx, query, string(learnerID), string(courseID), locator))
}

// CountCompleted returns the number of the learner's records at 100%.
func (r *ProgressRepository) CountCompleted(ctx context.Context, learnerID shared.LearnerID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM progress_records WHERE learner_id = $1 AND completion = 100",
		string(learnerID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed records: %w", err)
	}
	return count, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

func (r *ProgressRepository) scanRecord(row pgx.Row) (*progress.Record, error) {
	var rec progress.Record
	var learnerID, courseID string
	var completion int
	var contentJSON, quizJSON []byte

	err := row.Scan(
		&learnerID,
		&courseID,
		&completion,
		&contentJSON,
		&quizJSON,
		&rec.EnrollmentDate,
		&rec.LastAccessed,
		&rec.CompletionDate,
		&rec.CertificateLocator,
	)

	if IsNoRows(err) {
		return nil, shared.ErrNotEnrolled
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan progress record: %w", err)
	}

	return hydrateRecord(&rec, learnerID, courseID, completion, contentJSON, quizJSON)
}

func (r *ProgressRepository) scanRecordFromRows(rows pgx.Rows) (*progress.Record, error) {
	var rec progress.Record
	var learnerID, courseID string
	var completion int
	var contentJSON, quizJSON []byte

	err := rows.Scan(
		&learnerID,
		&courseID,
		&completion,
		&contentJSON,
		&quizJSON,
		&rec.EnrollmentDate,
		&rec.LastAccessed,
		&rec.CompletionDate,
		&rec.CertificateLocator,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan progress record: %w", err)
	}

	return hydrateRecord(&rec, learnerID, courseID, completion, contentJSON, quizJSON)
}

func hydrateRecord(rec *progress.Record, learnerID, courseID string, completion int, contentJSON, quizJSON []byte) (*progress.Record, error) {
	rec.LearnerID = shared.LearnerID(learnerID)
	rec.CourseID = shared.CourseID(courseID)
	rec.Completion = shared.Completion(completion)

	rec.ContentProgress = map[shared.ContentItemID]int{}
	if len(contentJSON) > 0 {
		var raw map[string]int
		if err := json.Unmarshal(contentJSON, &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal content progress: %w", err)
		}
		for k, v := range raw {
			rec.ContentProgress[shared.ContentItemID(k)] = v
		}
	}

	rec.QuizScores = []progress.QuizScore{}
	if len(quizJSON) > 0 {
		if err := json.Unmarshal(quizJSON, &rec.QuizScores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quiz scores: %w", err)
		}
	}

	return rec, nil
}

func marshalContentProgress(m map[shared.ContentItemID]int) ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	raw := make(map[string]int, len(m))
	for k, v := range m {
		raw[string(k)] = v
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal content progress: %w", err)
	}
	return data, nil
}
