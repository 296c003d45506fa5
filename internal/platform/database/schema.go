package database

import "database/sql"

// Schema is idempotent; the server applies it on startup.
const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id              UUID PRIMARY KEY,
	full_name       TEXT NOT NULL,
	email           TEXT NOT NULL UNIQUE,
	hashed_password TEXT NOT NULL,
	avatar_url      TEXT,
	role            TEXT NOT NULL DEFAULT '' CHECK (role IN ('', 'participant', 'company')),
	company_name    TEXT,
	score           INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS challenges (
	id                      UUID PRIMARY KEY,
	slug                    TEXT NOT NULL UNIQUE,
	title                   TEXT NOT NULL,
	company                 TEXT NOT NULL,
	company_logo_url        TEXT,
	description             TEXT NOT NULL,
	long_description        TEXT NOT NULL,
	difficulty              TEXT NOT NULL CHECK (difficulty IN ('Beginner', 'Intermediate', 'Advanced')),
	deadline                TIMESTAMPTZ NOT NULL,
	tags                    JSONB NOT NULL DEFAULT '[]',
	featured                BOOLEAN NOT NULL DEFAULT FALSE,
	participants            INTEGER NOT NULL DEFAULT 0,
	prizes                  JSONB NOT NULL DEFAULT '[]',
	submission_requirements JSONB NOT NULL DEFAULT '[]',
	evaluation_criteria     JSONB NOT NULL DEFAULT '[]',
	created_by              UUID REFERENCES profiles(id),
	created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS challenge_participants (
	id           UUID PRIMARY KEY,
	challenge_id UUID NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
	user_id      UUID NOT NULL REFERENCES profiles(id),
	joined_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (challenge_id, user_id)
);

CREATE TABLE IF NOT EXISTS submissions (
	id               UUID PRIMARY KEY,
	challenge_id     UUID NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
	user_id          UUID NOT NULL REFERENCES profiles(id),
	repo_url         TEXT NOT NULL,
	video_url        TEXT NOT NULL,
	presentation_url TEXT NOT NULL,
	notes            TEXT,
	status           TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'reviewed', 'rejected')),
	score            INTEGER,
	feedback         TEXT,
	submitted_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	reviewed_at      TIMESTAMPTZ,
	UNIQUE (challenge_id, user_id)
);

CREATE TABLE IF NOT EXISTS evaluation_jobs (
	id            UUID PRIMARY KEY,
	submission_id UUID NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
	status        TEXT NOT NULL DEFAULT 'Queued',
	attempts      INTEGER NOT NULL DEFAULT 0,
	last_error    TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_submissions_challenge ON submissions (challenge_id, status);
CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions (user_id);
CREATE INDEX IF NOT EXISTS idx_participants_user ON challenge_participants (user_id);
CREATE INDEX IF NOT EXISTS idx_challenges_company ON challenges (company);
`

func applySchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
