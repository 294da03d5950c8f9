package query

import (
	"context"
	"errors"
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/course"
	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/progress"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
	"github.com/arlearn/arlearn-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUERY-SIDE FAKES
// Read-model tests only need lookups, so the fakes are thin maps. Mutating
// methods exist to satisfy the interfaces and are never exercised here.
// ══════════════════════════════════════════════════════════════════════════════

const (
	learnerA = "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b"
	courseA  = "9ca4322d-ebd5-4ffa-a340-56fe811bbab1"
	courseB  = "1b2f0c4e-8a3d-4f5e-9c6b-7d8e9f0a1b2c"
	courseC  = "2c3d1e5f-9b4e-4a6f-8d7c-6e5f4a3b2c1d"
)

var testLogger = logger.Discard()

var errNotUsed = errors.New("not used in query tests")

// ─── learner repository ───────────────────────────────────────────────────────

type fakeLearnerRepo struct {
	learners map[shared.LearnerID]*learner.Learner
	getErr   error
}

func newFakeLearnerRepo(ls ...*learner.Learner) *fakeLearnerRepo {
	r := &fakeLearnerRepo{learners: map[shared.LearnerID]*learner.Learner{}}
	for _, l := range ls {
		r.learners[l.ID] = l
	}
	return r
}

func seededLearner(id string) *learner.Learner {
	l, err := learner.NewLearner(learner.NewLearnerParams{
		ID:    shared.LearnerID(id),
		Name:  "Aigerim Bekova",
		Email: "aigerim@example.com",
	})
	if err != nil {
		panic(err)
	}
	return l
}

func (r *fakeLearnerRepo) Create(ctx context.Context, l *learner.Learner) error { return errNotUsed }

func (r *fakeLearnerRepo) GetByID(ctx context.Context, id shared.LearnerID) (*learner.Learner, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	l, ok := r.learners[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return l, nil
}

func (r *fakeLearnerRepo) AddEngagement(ctx context.Context, id shared.LearnerID, style shared.LearningStyle, score int, at time.Time) (learner.Engagement, error) {
	return learner.Engagement{}, errNotUsed
}

func (r *fakeLearnerRepo) SetAnalyzedStyle(ctx context.Context, id shared.LearnerID, style shared.LearningStyle, analyzedAt time.Time) error {
	return errNotUsed
}

func (r *fakeLearnerRepo) AppendAchievements(ctx context.Context, id shared.LearnerID, achievements []learner.Achievement) ([]learner.Achievement, error) {
	return nil, errNotUsed
}

func (r *fakeLearnerRepo) BumpStats(ctx context.Context, id shared.LearnerID, delta learner.StatsDelta) error {
	return errNotUsed
}

func (r *fakeLearnerRepo) ResetEngagement(ctx context.Context, id shared.LearnerID) error {
	return errNotUsed
}

// ─── progress repository ──────────────────────────────────────────────────────

type fakeProgressRepo struct {
	records []*progress.Record
	listErr error
}

func (r *fakeProgressRepo) Create(ctx context.Context, rec *progress.Record) error { return errNotUsed }

func (r *fakeProgressRepo) Get(ctx context.Context, learnerID shared.LearnerID, courseID shared.CourseID) (*progress.Record, error) {
	for _, rec := range r.records {
		if rec.LearnerID == learnerID && rec.CourseID == courseID {
			return rec, nil
		}
	}
	return nil, shared.ErrNotEnrolled
}

func (r *fakeProgressRepo) ListByLearner(ctx context.Context, learnerID shared.LearnerID) ([]*progress.Record, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*progress.Record
	for _, rec := range r.records {
		if rec.LearnerID == learnerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeProgressRepo) ApplyUpdate(ctx context.Context, learnerID shared.LearnerID, courseID shared.CourseID, upd progress.Update) (*progress.Record, bool, error) {
	return nil, false, errNotUsed
}

func (r *fakeProgressRepo) SetCertificateLocator(ctx context.Context, learnerID shared.LearnerID, courseID shared.CourseID, locator string) (*progress.Record, error) {
	return nil, errNotUsed
}

func (r *fakeProgressRepo) CountCompleted(ctx context.Context, learnerID shared.LearnerID) (int, error) {
	n := 0
	for _, rec := range r.records {
		if rec.LearnerID == learnerID && rec.IsCompleted() {
			n++
		}
	}
	return n, nil
}

// ─── course reader ────────────────────────────────────────────────────────────

type fakeCourseReader struct {
	courses   map[shared.CourseID]*course.Course
	titlesErr error
}

func newFakeCourseReader(cs ...*course.Course) *fakeCourseReader {
	r := &fakeCourseReader{courses: map[shared.CourseID]*course.Course{}}
	for _, c := range cs {
		r.courses[c.ID] = c
	}
	return r
}

func (r *fakeCourseReader) GetByID(ctx context.Context, id shared.CourseID) (*course.Course, error) {
	c, ok := r.courses[id]
	if !ok {
		return nil, shared.ErrCourseNotFound
	}
	return c, nil
}

func (r *fakeCourseReader) GetTitles(ctx context.Context, ids []shared.CourseID) (map[shared.CourseID]string, error) {
	if r.titlesErr != nil {
		return nil, r.titlesErr
	}
	out := map[shared.CourseID]string{}
	for _, id := range ids {
		if c, ok := r.courses[id]; ok {
			out[id] = c.Title
		}
	}
	return out, nil
}

func (r *fakeCourseReader) FindByStyle(ctx context.Context, style shared.LearningStyle, excluding []shared.CourseID, limit int) ([]*course.Course, error) {
	skip := map[shared.CourseID]bool{}
	for _, id := range excluding {
		skip[id] = true
	}
	var out []*course.Course
	for _, c := range r.courses {
		if skip[c.ID] || !c.HasStyle(style) {
			continue
		}
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// ─── snapshot cache ───────────────────────────────────────────────────────────

type fakeSnapshotCache struct {
	snapshots map[shared.LearnerID]*AnalyticsSnapshot
	getErr    error
	setErr    error

	gets, sets, invalidations int
}

func newFakeSnapshotCache() *fakeSnapshotCache {
	return &fakeSnapshotCache{snapshots: map[shared.LearnerID]*AnalyticsSnapshot{}}
}

func (c *fakeSnapshotCache) Get(ctx context.Context, learnerID shared.LearnerID) (*AnalyticsSnapshot, error) {
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.snapshots[learnerID], nil
}

func (c *fakeSnapshotCache) Set(ctx context.Context, snapshot *AnalyticsSnapshot) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.snapshots[snapshot.LearnerID] = snapshot
	return nil
}

func (c *fakeSnapshotCache) Invalidate(ctx context.Context, learnerID shared.LearnerID) error {
	c.invalidations++
	delete(c.snapshots, learnerID)
	return nil
}
