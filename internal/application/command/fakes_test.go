package command

import (
	"context"
	"sync"
	"time"

	"github.com/arlearn/arlearn-engine/internal/domain/certificate"
	"github.com/arlearn/arlearn-engine/internal/domain/course"
	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/progress"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
	"github.com/arlearn/arlearn-engine/pkg/logger"
	"github.com/arlearn/arlearn-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY FAKES
// Shared across the command handler tests. Each fake implements the domain
// interface with the same semantics the real storage layer guarantees
// (keyed atomic updates, set semantics, clamps), minus the SQL.
// ══════════════════════════════════════════════════════════════════════════════

const (
	learnerA = "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b"
	courseA  = "9ca4322d-ebd5-4ffa-a340-56fe811bbab1"
	courseB  = "1b2f0c4e-8a3d-4f5e-9c6b-7d8e9f0a1b2c"
)

var testLogger = logger.Discard()

// ─── learner repository ───────────────────────────────────────────────────────

type fakeLearnerRepo struct {
	mu       sync.Mutex
	learners map[shared.LearnerID]*learner.Learner

	// Error injection per operation.
	createErr   error
	getErr      error
	addErr      error
	setStyleErr error
	appendErr   error
	bumpErr     error
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

func (r *fakeLearnerRepo) Create(ctx context.Context, l *learner.Learner) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.learners[l.ID]; ok {
		return shared.NewDomainError("learner", "Create", shared.ErrAlreadyExists, "learner already exists")
	}
	r.learners[l.ID] = l
	return nil
}

func (r *fakeLearnerRepo) GetByID(ctx context.Context, id shared.LearnerID) (*learner.Learner, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.learners[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	cp := *l
	cp.Achievements = append([]learner.Achievement(nil), l.Achievements...)
	return &cp, nil
}

// advanceStreak mirrors the storage layer's streak transition: first active
// day starts at one, the next day extends, a gap restarts, and anything on
// or before the stored day keeps the streak untouched.
func advanceStreak(current int, lastActive, at time.Time) int {
	switch {
	case lastActive.IsZero():
		return 1
	case !timeutil.StartOfDay(at).After(timeutil.StartOfDay(lastActive)):
		return current
	case timeutil.IsNextDay(lastActive, at):
		return current + 1
	default:
		return 1
	}
}

func (r *fakeLearnerRepo) AddEngagement(ctx context.Context, id shared.LearnerID, style shared.LearningStyle, score int, at time.Time) (learner.Engagement, error) {
	if r.addErr != nil {
		return learner.Engagement{}, r.addErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.learners[id]
	if !ok {
		return learner.Engagement{}, shared.ErrLearnerNotFound
	}
	l.Engagement = l.Engagement.Add(style, score)
	l.Stats.Streak = advanceStreak(l.Stats.Streak, l.Stats.LastActive, at)
	if at.After(l.Stats.LastActive) {
		l.Stats.LastActive = at
	}
	return l.Engagement, nil
}

func (r *fakeLearnerRepo) SetAnalyzedStyle(ctx context.Context, id shared.LearnerID, style shared.LearningStyle, analyzedAt time.Time) error {
	if r.setStyleErr != nil {
		return r.setStyleErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.learners[id]
	if !ok {
		return shared.ErrLearnerNotFound
	}
	l.AnalyzedStyle = learner.AnalyzedStyle{Style: style, LastAnalyzedAt: analyzedAt}
	return nil
}

func (r *fakeLearnerRepo) AppendAchievements(ctx context.Context, id shared.LearnerID, achievements []learner.Achievement) ([]learner.Achievement, error) {
	if r.appendErr != nil {
		return nil, r.appendErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.learners[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	var inserted []learner.Achievement
	for _, a := range achievements {
		if l.HasAchievement(a.Title) {
			continue
		}
		l.Achievements = append(l.Achievements, a)
		inserted = append(inserted, a)
	}
	return inserted, nil
}

func (r *fakeLearnerRepo) BumpStats(ctx context.Context, id shared.LearnerID, delta learner.StatsDelta) error {
	if r.bumpErr != nil {
		return r.bumpErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.learners[id]
	if !ok {
		return shared.ErrLearnerNotFound
	}
	l.Stats.CoursesStarted += delta.CoursesStarted
	l.Stats.CoursesCompleted += delta.CoursesCompleted
	l.Stats.TotalTimeSpent += delta.TimeSpentSeconds
	if !delta.LastActive.IsZero() {
		l.Stats.Streak = advanceStreak(l.Stats.Streak, l.Stats.LastActive, delta.LastActive)
		if delta.LastActive.After(l.Stats.LastActive) {
			l.Stats.LastActive = delta.LastActive
		}
	}
	return nil
}

func (r *fakeLearnerRepo) ResetEngagement(ctx context.Context, id shared.LearnerID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.learners[id]
	if !ok {
		return shared.ErrLearnerNotFound
	}
	l.Engagement = learner.Engagement{}
	return nil
}

// ─── progress repository ──────────────────────────────────────────────────────

type progressKey struct {
	learner shared.LearnerID
	course  shared.CourseID
}

type fakeProgressRepo struct {
	mu      sync.Mutex
	records map[progressKey]*progress.Record

	createErr error
	applyErr  error
	setLocErr error
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{records: map[progressKey]*progress.Record{}}
}

func (r *fakeProgressRepo) Create(ctx context.Context, rec *progress.Record) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := progressKey{rec.LearnerID, rec.CourseID}
	if _, ok := r.records[key]; ok {
		return shared.ErrAlreadyEnrolled
	}
	r.records[key] = rec
	return nil
}

func (r *fakeProgressRepo) Get(ctx context.Context, learnerID shared.LearnerID, courseID shared.CourseID) (*progress.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[progressKey{learnerID, courseID}]
	if !ok {
		return nil, shared.ErrNotEnrolled
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeProgressRepo) ListByLearner(ctx context.Context, learnerID shared.LearnerID) ([]*progress.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*progress.Record
	for key, rec := range r.records {
		if key.learner == learnerID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeProgressRepo) ApplyUpdate(ctx context.Context, learnerID shared.LearnerID, courseID shared.CourseID, upd progress.Update) (*progress.Record, bool, error) {
	if r.applyErr != nil {
		return nil, false, r.applyErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[progressKey{learnerID, courseID}]
	if !ok {
		return nil, false, shared.ErrNotEnrolled
	}
	rec.MergeContentProgress(upd.ContentProgress)
	if upd.QuizScore != nil {
		rec.QuizScores = append(rec.QuizScores, *upd.QuizScore)
	}
	justCompleted := rec.ApplyCompletion(upd.Completion, upd.Accessed)
	cp := *rec
	return &cp, justCompleted, nil
}

func (r *fakeProgressRepo) SetCertificateLocator(ctx context.Context, learnerID shared.LearnerID, courseID shared.CourseID, locator string) (*progress.Record, error) {
	if r.setLocErr != nil {
		return nil, r.setLocErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[progressKey{learnerID, courseID}]
	if !ok {
		return nil, shared.ErrNotEnrolled
	}
	if rec.CertificateLocator == "" {
		rec.CertificateLocator = locator
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeProgressRepo) CountCompleted(ctx context.Context, learnerID shared.LearnerID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, rec := range r.records {
		if key.learner == learnerID && rec.IsCompleted() {
			n++
		}
	}
	return n, nil
}

// ─── course reader ────────────────────────────────────────────────────────────

type fakeCourseReader struct {
	courses map[shared.CourseID]*course.Course
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

// ─── event recorder ───────────────────────────────────────────────────────────

type eventRecorder struct {
	mu     sync.Mutex
	events []shared.Event
}

func (r *eventRecorder) Publish(event shared.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) ofType(t shared.EventType) []shared.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []shared.Event
	for _, e := range r.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

// ─── renderer ─────────────────────────────────────────────────────────────────

type fakeRenderer struct {
	locator string
	err     error
	calls   int
}

func (r *fakeRenderer) Render(ctx context.Context, req certificate.RenderRequest) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return r.locator, nil
}

// ─── snapshot invalidator ─────────────────────────────────────────────────────

type fakeInvalidator struct {
	mu    sync.Mutex
	calls []shared.LearnerID
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, id shared.LearnerID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	return nil
}
