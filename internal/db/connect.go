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

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:pathforge.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/pathforge?sslmode=disable"
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
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS learning_paths (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  attestation_test_id TEXT
);

CREATE TABLE IF NOT EXISTS stages (
  id TEXT PRIMARY KEY,
  path_id TEXT NOT NULL REFERENCES learning_paths(id) ON DELETE CASCADE,
  order_number INTEGER NOT NULL,
  name TEXT NOT NULL,
  UNIQUE(path_id, order_number)
);

CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  stage_id TEXT NOT NULL REFERENCES stages(id) ON DELETE CASCADE,
  order_number INTEGER NOT NULL,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tests (
  id TEXT PRIMARY KEY,
  session_id TEXT REFERENCES sessions(id) ON DELETE SET NULL,
  name TEXT NOT NULL,
  threshold_score REAL NOT NULL,
  max_score REAL NOT NULL,
  shuffle_questions INTEGER NOT NULL DEFAULT 0,
  max_attempts INTEGER NOT NULL DEFAULT 0,
  questions_json TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trainee_paths (
  id TEXT PRIMARY KEY,
  trainee_id TEXT NOT NULL,
  path_id TEXT NOT NULL REFERENCES learning_paths(id),
  assigned_by TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS one_active_path_per_trainee
  ON trainee_paths(trainee_id) WHERE is_active = 1;

CREATE TABLE IF NOT EXISTS stage_progress (
  id TEXT PRIMARY KEY,
  instance_id TEXT NOT NULL REFERENCES trainee_paths(id) ON DELETE CASCADE,
  stage_id TEXT NOT NULL REFERENCES stages(id),
  is_opened INTEGER NOT NULL DEFAULT 0,
  opened_by TEXT,
  opened_at INTEGER,
  UNIQUE(instance_id, stage_id)
);

CREATE TABLE IF NOT EXISTS test_access_grants (
  id TEXT PRIMARY KEY,
  trainee_id TEXT NOT NULL,
  test_id TEXT NOT NULL REFERENCES tests(id),
  granted_by TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS test_results (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  test_id TEXT NOT NULL REFERENCES tests(id),
  score REAL NOT NULL,
  max_possible_score REAL NOT NULL,
  is_passed INTEGER NOT NULL,
  started_at INTEGER NOT NULL,
  finished_at INTEGER NOT NULL,
  answers_json TEXT NOT NULL,
  wrong_answers_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" INTEGER PRIMARY KEY AUTOINCREMENT, -- BIGSERIAL in Postgres
  typ TEXT NOT NULL,                        -- e.g., AttemptFinished
  key TEXT NOT NULL,                        -- natural key: instance/attempt id
  data TEXT NOT NULL,                       -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS learning_paths (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  attestation_test_id TEXT
);

CREATE TABLE IF NOT EXISTS stages (
  id TEXT PRIMARY KEY,
  path_id TEXT NOT NULL REFERENCES learning_paths(id) ON DELETE CASCADE,
  order_number INTEGER NOT NULL,
  name TEXT NOT NULL,
  UNIQUE(path_id, order_number)
);

CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  stage_id TEXT NOT NULL REFERENCES stages(id) ON DELETE CASCADE,
  order_number INTEGER NOT NULL,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tests (
  id TEXT PRIMARY KEY,
  session_id TEXT REFERENCES sessions(id) ON DELETE SET NULL,
  name TEXT NOT NULL,
  threshold_score DOUBLE PRECISION NOT NULL,
  max_score DOUBLE PRECISION NOT NULL,
  shuffle_questions BOOLEAN NOT NULL DEFAULT FALSE,
  max_attempts INTEGER NOT NULL DEFAULT 0,
  questions_json TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS trainee_paths (
  id TEXT PRIMARY KEY,
  trainee_id TEXT NOT NULL,
  path_id TEXT NOT NULL REFERENCES learning_paths(id),
  assigned_by TEXT NOT NULL,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at BIGINT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS one_active_path_per_trainee
  ON trainee_paths(trainee_id) WHERE is_active;

CREATE TABLE IF NOT EXISTS stage_progress (
  id TEXT PRIMARY KEY,
  instance_id TEXT NOT NULL REFERENCES trainee_paths(id) ON DELETE CASCADE,
  stage_id TEXT NOT NULL REFERENCES stages(id),
  is_opened BOOLEAN NOT NULL DEFAULT FALSE,
  opened_by TEXT,
  opened_at BIGINT,
  UNIQUE(instance_id, stage_id)
);

CREATE TABLE IF NOT EXISTS test_access_grants (
  id TEXT PRIMARY KEY,
  trainee_id TEXT NOT NULL,
  test_id TEXT NOT NULL REFERENCES tests(id),
  granted_by TEXT NOT NULL,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS test_results (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  test_id TEXT NOT NULL REFERENCES tests(id),
  score DOUBLE PRECISION NOT NULL,
  max_possible_score DOUBLE PRECISION NOT NULL,
  is_passed BOOLEAN NOT NULL,
  started_at BIGINT NOT NULL,
  finished_at BIGINT NOT NULL,
  answers_json TEXT NOT NULL,
  wrong_answers_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
