package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/0xmhha/fastm8/pkg/session"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	protocol_id   TEXT NOT NULL,
	fasting_hours REAL NOT NULL,
	eating_hours  REAL NOT NULL,
	custom        INTEGER NOT NULL DEFAULT 0,
	start_time    TEXT NOT NULL,
	end_time      TEXT,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	version       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteStore keeps the session log in a SQLite database.
// Timestamps are stored as RFC 3339 text with nanoseconds.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := ensureSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, path: path}, nil
}

func ensureSQLiteSchema(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var version int
	err := db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		if _, err := db.Exec(`INSERT INTO meta (key, value) VALUES ('schema_version', ?)`, SchemaVersion); err != nil {
			return fmt.Errorf("failed to store schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case version > SchemaVersion:
		return fmt.Errorf("%w: %d", ErrUnsupportedSchema, version)
	}
	return nil
}

// Load implements session.Persister.
func (s *SQLiteStore) Load(ctx context.Context) ([]session.Session, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, protocol_id, fasting_hours, eating_hours, custom,
		       start_time, end_time, created_at, updated_at, version
		FROM sessions ORDER BY start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.Session
	for rows.Next() {
		var (
			sess                    session.Session
			custom                  int
			start, created, updated string
			end                     sql.NullString
		)
		if err := rows.Scan(&sess.ID, &sess.Protocol.ID, &sess.Protocol.FastingHours,
			&sess.Protocol.EatingHours, &custom, &start, &end, &created, &updated,
			&sess.Version); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sess.Protocol.Custom = custom != 0

		if sess.Start, err = parseTimestamp(start); err != nil {
			return nil, err
		}
		if sess.CreatedAt, err = parseTimestamp(created); err != nil {
			return nil, err
		}
		if sess.UpdatedAt, err = parseTimestamp(updated); err != nil {
			return nil, err
		}
		if end.Valid {
			t, err := parseTimestamp(end.String)
			if err != nil {
				return nil, err
			}
			sess.End = &t
		}

		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	return sessions, nil
}

// Save implements session.Persister. The table is replaced in one
// transaction.
func (s *SQLiteStore) Save(ctx context.Context, sessions []session.Session) error {
	if s.db == nil {
		return ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sessions (id, protocol_id, fasting_hours, eating_hours, custom,
		                      start_time, end_time, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, sess := range sessions {
		var end sql.NullString
		if sess.End != nil {
			end = sql.NullString{String: formatTimestamp(*sess.End), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			sess.ID, sess.Protocol.ID, sess.Protocol.FastingHours, sess.Protocol.EatingHours,
			boolToInt(sess.Protocol.Custom), formatTimestamp(sess.Start), end,
			formatTimestamp(sess.CreatedAt), formatTimestamp(sess.UpdatedAt), sess.Version,
		); err != nil {
			return fmt.Errorf("failed to insert session %s: %w", sess.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sessions: %w", err)
	}
	return nil
}

// Backend implements Store.
func (s *SQLiteStore) Backend() string {
	return BackendSQLite
}

// Path implements Store.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
