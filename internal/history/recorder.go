package history

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// PlayEvent is one recorded playback start.
type PlayEvent struct {
	ID         int64
	Timestamp  time.Time
	Path       string
	Format     string
	Backend    string
	Duration   time.Duration
	Channels   int
	SampleRate int
	Volume     float64
	Pitch      float64
	Looping    bool
}

// Recorder writes and queries play events.
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates a recorder over an open history database.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Record inserts one play event and returns its assigned id.
func (r *Recorder) Record(event *PlayEvent) (int64, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	result, err := r.db.Exec(`
INSERT INTO play_events (timestamp, path, format, backend, duration_ms, channels, sample_rate, volume, pitch, looping)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.Timestamp.Unix(),
		event.Path,
		event.Format,
		event.Backend,
		event.Duration.Milliseconds(),
		event.Channels,
		event.SampleRate,
		event.Volume,
		event.Pitch,
		boolToInt(event.Looping),
	)
	if err != nil {
		slog.Error("failed to record play event", "path", event.Path, "error", err)
		return 0, fmt.Errorf("failed to record play event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get event id: %w", err)
	}

	slog.Debug("play event recorded", "id", id, "path", event.Path, "backend", event.Backend)
	return id, nil
}

// Query returns play events matching the filter, newest first.
func (r *Recorder) Query(filter *QueryFilter) ([]PlayEvent, error) {
	if filter == nil {
		filter = &QueryFilter{}
	}

	query := `
SELECT id, timestamp, path, format, backend, duration_ms, channels, sample_rate, volume, pitch, looping
FROM play_events`

	whereClause, args := filter.BuildWhereClause()
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.EffectiveLimit(), filter.Offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		slog.Error("history query failed", "error", err)
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	defer rows.Close()

	var events []PlayEvent
	for rows.Next() {
		var event PlayEvent
		var timestamp int64
		var durationMs int64
		var looping int

		err := rows.Scan(&event.ID, &timestamp, &event.Path, &event.Format, &event.Backend,
			&durationMs, &event.Channels, &event.SampleRate, &event.Volume, &event.Pitch, &looping)
		if err != nil {
			return nil, fmt.Errorf("failed to scan play event: %w", err)
		}

		event.Timestamp = time.Unix(timestamp, 0)
		event.Duration = time.Duration(durationMs) * time.Millisecond
		event.Looping = looping != 0
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history row iteration failed: %w", err)
	}

	slog.Debug("history query complete", "results", len(events))
	return events, nil
}

// Count returns the number of play events matching the filter.
func (r *Recorder) Count(filter *QueryFilter) (int, error) {
	if filter == nil {
		filter = &QueryFilter{}
	}

	query := "SELECT COUNT(*) FROM play_events"
	whereClause, args := filter.BuildWhereClause()
	if whereClause != "" {
		query += " WHERE " + whereClause
	}

	var count int
	if err := r.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("history count failed: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
