// Package postgres implements the PostgreSQL persistence layer of the
// analytics engine.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE LEARNERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create learners table
-- Version: 001

-- Main learner records: identity mirror, engagement counters, derived
-- classification snapshot, and cumulative stats. All mutations are atomic
-- keyed updates, so the counters live in plain columns.
CREATE TABLE IF NOT EXISTS learners (
    id UUID PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,

    -- Engagement counters, one per learning-style dimension.
    engagement_visual INTEGER NOT NULL DEFAULT 0,
    engagement_auditory INTEGER NOT NULL DEFAULT 0,
    engagement_kinesthetic INTEGER NOT NULL DEFAULT 0,
    engagement_reading INTEGER NOT NULL DEFAULT 0,
    total_activities INTEGER NOT NULL DEFAULT 0,

    -- Derived classification snapshot. Empty string means never classified.
    analyzed_style VARCHAR(20) NOT NULL DEFAULT '',
    last_analyzed_at TIMESTAMP WITH TIME ZONE,

    -- Cumulative stats feeding achievement rules.
    courses_started INTEGER NOT NULL DEFAULT 0,
    courses_completed INTEGER NOT NULL DEFAULT 0,
    total_time_spent INTEGER NOT NULL DEFAULT 0,
    streak INTEGER NOT NULL DEFAULT 0,
    last_active TIMESTAMP WITH TIME ZONE,

    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_analyzed_style CHECK (
        analyzed_style IN ('', 'visual', 'auditory', 'kinesthetic', 'reading')
    ),
    CONSTRAINT valid_total_activities CHECK (total_activities >= 0)
);

CREATE INDEX IF NOT EXISTS idx_learners_email ON learners(email);
CREATE INDEX IF NOT EXISTS idx_learners_analyzed_style ON learners(analyzed_style) WHERE analyzed_style != '';

-- Earned achievements. The (learner, title) pair is the identity: inserts
-- collide on it, giving the engine its set semantics in one statement.
CREATE TABLE IF NOT EXISTS learner_achievements (
    id BIGSERIAL PRIMARY KEY,
    learner_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    title VARCHAR(100) NOT NULL,
    description VARCHAR(255) NOT NULL DEFAULT '',
    icon VARCHAR(20) NOT NULL DEFAULT '',
    earned_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(learner_id, title)
);

CREATE INDEX IF NOT EXISTS idx_learner_achievements_learner ON learner_achievements(learner_id, id);
`

const migration001Down = `
DROP TABLE IF EXISTS learner_achievements;
DROP TABLE IF EXISTS learners;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE PROGRESS LEDGER
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create progress ledger
-- Version: 002

-- One row per (learner, course) pair. Completion only grows (enforced in the
-- update statements via GREATEST); completion_date is written once.
CREATE TABLE IF NOT EXISTS progress_records (
    learner_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    course_id UUID NOT NULL,
    completion INTEGER NOT NULL DEFAULT 0,

    -- Per-content-item completion map. Updates merge keys via the || operator;
    -- existing keys absent from an update survive.
    content_progress JSONB NOT NULL DEFAULT '{}'::jsonb,

    -- Appended quiz results.
    quiz_scores JSONB NOT NULL DEFAULT '[]'::jsonb,

    enrollment_date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    last_accessed TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    completion_date TIMESTAMP WITH TIME ZONE,
    certificate_locator TEXT NOT NULL DEFAULT '',

    PRIMARY KEY (learner_id, course_id),

    CONSTRAINT valid_completion CHECK (completion >= 0 AND completion <= 100)
);

CREATE INDEX IF NOT EXISTS idx_progress_learner_accessed ON progress_records(learner_id, last_accessed DESC);
CREATE INDEX IF NOT EXISTS idx_progress_completed ON progress_records(learner_id) WHERE completion = 100;
`

const migration002Down = `
DROP TABLE IF EXISTS progress_records;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE COURSE CATALOG MIRROR
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create course catalog mirror
-- Version: 003

-- Read-only mirror of the external catalog, enough to validate enrollments,
-- label overviews, and drive style-based recommendations.
CREATE TABLE IF NOT EXISTS courses (
    id UUID PRIMARY KEY,
    title VARCHAR(255) NOT NULL,

    -- Learning styles the course is tagged for.
    styles TEXT[] NOT NULL DEFAULT '{}',

    -- Ordered content items: [{"id": "...", "title": "...", "kind": "..."}].
    content JSONB NOT NULL DEFAULT '[]'::jsonb,

    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_courses_styles ON courses USING GIN(styles);
`

const migration003Down = `
DROP TABLE IF EXISTS courses;
`

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_learners",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_progress_ledger",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_course_catalog",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}
