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
			dsn = "file:grader.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/grader?sslmode=disable"
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

CREATE TABLE IF NOT EXISTS tests (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  rubric_json TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
  id TEXT NOT NULL,
  student_id TEXT NOT NULL,
  test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  answers_json TEXT NOT NULL,
  status TEXT NOT NULL,
  assigned_teacher TEXT NOT NULL DEFAULT '',
  graded_json TEXT NOT NULL DEFAULT '',
  version INTEGER NOT NULL DEFAULT 1,
  submitted_at INTEGER NOT NULL,
  graded_at INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (student_id, test_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,                         -- e.g., SubmissionGraded
  key TEXT NOT NULL,                         -- natural key: studentID|testID
  data TEXT NOT NULL,                        -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS tests (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  rubric_json TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
  id TEXT NOT NULL,
  student_id TEXT NOT NULL,
  test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  answers_json TEXT NOT NULL,
  status TEXT NOT NULL,
  assigned_teacher TEXT NOT NULL DEFAULT '',
  graded_json TEXT NOT NULL DEFAULT '',
  version BIGINT NOT NULL DEFAULT 1,
  submitted_at BIGINT NOT NULL,
  graded_at BIGINT NOT NULL DEFAULT 0,
  PRIMARY KEY (student_id, test_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
