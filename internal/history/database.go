package history

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// NewDatabase opens a SQLite database at the specified path and applies the
// play history schema. The parent directory must already exist; callers
// resolve the path through the config layer, which creates it. Use
// ":memory:" for an ephemeral database.
func NewDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA user_version = 1",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}

// ensureSchema creates the database schema if it doesn't exist
func ensureSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS play_events (
    id          INTEGER PRIMARY KEY,
    timestamp   INTEGER NOT NULL,
    path        TEXT    NOT NULL,
    format      TEXT    NOT NULL,
    backend     TEXT    NOT NULL,
    duration_ms INTEGER NOT NULL CHECK (duration_ms >= 0),
    channels    INTEGER NOT NULL CHECK (channels > 0),
    sample_rate INTEGER NOT NULL CHECK (sample_rate > 0),
    volume      REAL    NOT NULL,
    pitch       REAL    NOT NULL,
    looping     INTEGER NOT NULL CHECK (looping IN (0,1))
);

CREATE INDEX IF NOT EXISTS idx_play_events_timestamp ON play_events(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_play_events_path ON play_events(path);
CREATE INDEX IF NOT EXISTS idx_play_events_backend ON play_events(backend);
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
