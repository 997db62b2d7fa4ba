package journal

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/stopwatchd/internal/events"
	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS stopwatch_events (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	stopwatch_id TEXT NOT NULL,
	short_id TEXT NOT NULL,
	name TEXT NOT NULL,
	event_type TEXT NOT NULL,
	state TEXT NOT NULL,
	total_ms INTEGER NOT NULL,
	lap_count INTEGER NOT NULL,
	at_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stopwatch_id ON stopwatch_events(stopwatch_id);
CREATE INDEX IF NOT EXISTS idx_at ON stopwatch_events(at_ms);
`

const selectColumns = "SELECT seq, stopwatch_id, short_id, name, event_type, state, total_ms, lap_count, at_ms FROM stopwatch_events"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLite opens (and creates if needed) the journal at path. Use ":memory:"
// for a private in-memory journal.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	inMemory := path == ":memory:"
	if !inMemory && !strings.HasPrefix(path, "file:") {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "open sqlite journal").
			WithContext("path", path).
			Build()
	}
	if inMemory {
		// Every new connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "initialize journal schema").
			WithContext("path", path).
			Build()
	}
	return &SQLiteStore{db: db}, nil
}

// Append adds one event to the journal.
func (s *SQLiteStore) Append(ctx context.Context, evt events.StopwatchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO stopwatch_events (stopwatch_id, short_id, name, event_type, state, total_ms, lap_count, at_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		evt.StopwatchID, evt.ShortID, evt.Name, string(evt.Type), evt.State,
		evt.TotalTime.Milliseconds(), evt.LapCount, evt.At.UnixMilli(),
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryJournal, "insert journal entry").
			WithContext("stopwatch_id", evt.StopwatchID).
			Build()
	}
	return nil
}

func (s *SQLiteStore) Since(ctx context.Context, t time.Time) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE at_ms >= ? ORDER BY seq", t.UnixMilli())
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "query journal").Build()
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *SQLiteStore) ForStopwatch(ctx context.Context, stopwatchID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE stopwatch_id = ? ORDER BY seq", stopwatchID)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "query journal").Build()
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			evtType string
			totalMS int64
			atMS    int64
		)
		if err := rows.Scan(&e.Seq, &e.StopwatchID, &e.ShortID, &e.Name, &evtType, &e.State, &totalMS, &e.LapCount, &atMS); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "scan journal entry").Build()
		}
		e.Type = events.Type(evtType)
		e.TotalTime = time.Duration(totalMS) * time.Millisecond
		e.At = time.UnixMilli(atMS).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "iterate journal").Build()
	}
	return entries, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
