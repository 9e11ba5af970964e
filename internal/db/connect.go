package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists. SQLite is the on-device default;
// postgres backs the shared classroom deployments.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:quizcore.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/quizcore?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  user_id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL DEFAULT '',
  pupil_points INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS lessons (
  lesson_id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending',   -- pending|in_progress|completed
  progress REAL NOT NULL DEFAULT 0,         -- doneCount/totalCount
  last_accessed INTEGER,
  completed_at INTEGER
);

CREATE TABLE IF NOT EXISTS subject_contents (
  content_id TEXT PRIMARY KEY,
  server_content_id TEXT,
  lesson_belong TEXT NOT NULL REFERENCES lessons(lesson_id) ON DELETE CASCADE,
  title TEXT NOT NULL DEFAULT '',
  done INTEGER NOT NULL DEFAULT 0,
  started_at INTEGER,
  completed_at INTEGER,
  duration INTEGER
);

CREATE TABLE IF NOT EXISTS pupil_test_scores (
  id TEXT PRIMARY KEY,
  pupil_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
  test_id TEXT NOT NULL,
  score INTEGER NOT NULL,
  max_score INTEGER NOT NULL,
  taken_at INTEGER NOT NULL,
  grade INTEGER NOT NULL,
  attempt_number INTEGER NOT NULL,
  is_synced INTEGER NOT NULL DEFAULT 0,
  server_score_id TEXT
);

CREATE TABLE IF NOT EXISTS pupil_answers (
  id TEXT PRIMARY KEY,
  pupil_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
  question_id TEXT NOT NULL,
  choice_id TEXT,
  answer_text TEXT,
  is_synced INTEGER NOT NULL DEFAULT 0,
  server_answer_id TEXT
);

CREATE TABLE IF NOT EXISTS sync_events (
  "offset" INTEGER PRIMARY KEY AUTOINCREMENT, -- BIGSERIAL in Postgres
  typ TEXT NOT NULL,                        -- e.g., ScoreSaved
  key TEXT NOT NULL,                        -- natural key: score row id
  data TEXT NOT NULL,                       -- JSON payload for the uploader
  is_synced INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scores_pupil_test ON pupil_test_scores(pupil_id, test_id);
CREATE INDEX IF NOT EXISTS idx_contents_lesson ON subject_contents(lesson_belong);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  user_id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL DEFAULT '',
  pupil_points INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS lessons (
  lesson_id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending',
  progress REAL NOT NULL DEFAULT 0,
  last_accessed BIGINT,
  completed_at BIGINT
);

CREATE TABLE IF NOT EXISTS subject_contents (
  content_id TEXT PRIMARY KEY,
  server_content_id TEXT,
  lesson_belong TEXT NOT NULL REFERENCES lessons(lesson_id) ON DELETE CASCADE,
  title TEXT NOT NULL DEFAULT '',
  done INTEGER NOT NULL DEFAULT 0,
  started_at BIGINT,
  completed_at BIGINT,
  duration BIGINT
);

CREATE TABLE IF NOT EXISTS pupil_test_scores (
  id TEXT PRIMARY KEY,
  pupil_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
  test_id TEXT NOT NULL,
  score INTEGER NOT NULL,
  max_score INTEGER NOT NULL,
  taken_at BIGINT NOT NULL,
  grade INTEGER NOT NULL,
  attempt_number INTEGER NOT NULL,
  is_synced INTEGER NOT NULL DEFAULT 0,
  server_score_id TEXT
);

CREATE TABLE IF NOT EXISTS pupil_answers (
  id TEXT PRIMARY KEY,
  pupil_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
  question_id TEXT NOT NULL,
  choice_id TEXT,
  answer_text TEXT,
  is_synced INTEGER NOT NULL DEFAULT 0,
  server_answer_id TEXT
);

CREATE TABLE IF NOT EXISTS sync_events (
  "offset" BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  is_synced INTEGER NOT NULL DEFAULT 0,
  created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scores_pupil_test ON pupil_test_scores(pupil_id, test_id);
CREATE INDEX IF NOT EXISTS idx_contents_lesson ON subject_contents(lesson_belong);
`
