package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"perftracker/internal/domain"
	"perftracker/internal/tracker"
)

// Keys under which SQLiteStore methods are recorded.
const (
	KeyInit         = "repository.SQLiteStore.Init"
	KeyStoreEvent   = "repository.SQLiteStore.StoreEvent"
	KeyGetEvents    = "repository.SQLiteStore.GetEvents"
	KeyCountEvents  = "repository.SQLiteStore.CountEvents"
	KeyDeleteEvents = "repository.SQLiteStore.DeleteEvents"
)

var _ domain.EventStore = (*SQLiteStore)(nil)

// SQLiteStore is the event table behind the sample workload. When a tracker
// is set every method call is timed into it.
type SQLiteStore struct {
	db      *sql.DB
	dbPath  string
	tracker *tracker.Tracker
}

// NewSQLiteStore returns an unopened store. t may be nil for an untracked store.
func NewSQLiteStore(path string, t *tracker.Tracker) *SQLiteStore {
	return &SQLiteStore{dbPath: path, tracker: t}
}

func (s *SQLiteStore) Init() error {
	defer s.track(KeyInit)()

	var err error
	s.db, err = sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	// One connection keeps in-memory databases visible to every query.
	s.db.SetMaxOpenConns(1)

	if err = s.db.Ping(); err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		name TEXT NOT NULL,
		size INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS events_timestamp ON events(timestamp);`

	if _, err = s.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("error creating table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) StoreEvent(ctx context.Context, event domain.Event) error {
	defer s.track(KeyStoreEvent)()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events(timestamp, name, size) VALUES(?, ?, ?)",
		event.Timestamp, event.Name, event.Size)
	if err != nil {
		return fmt.Errorf("error inserting event: %w", err)
	}
	return nil
}

// GetEvents returns events with start <= timestamp <= end in insertion
// order. limit <= 0 means no limit and a negative offset is treated as 0.
func (s *SQLiteStore) GetEvents(ctx context.Context, startTime, endTime int64, limit, offset int) ([]domain.Event, error) {
	defer s.track(KeyGetEvents)()

	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT timestamp, name, size FROM events WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC, id ASC LIMIT ? OFFSET ?",
		startTime, endTime, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.Timestamp, &e.Name, &e.Size); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return events, nil
}

func (s *SQLiteStore) CountEvents(ctx context.Context) (int, error) {
	defer s.track(KeyCountEvents)()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting events: %w", err)
	}
	return n, nil
}

// DeleteEvents empties the events table and returns the number of rows removed.
func (s *SQLiteStore) DeleteEvents(ctx context.Context) (int64, error) {
	defer s.track(KeyDeleteEvents)()

	res, err := s.db.ExecContext(ctx, "DELETE FROM events")
	if err != nil {
		return 0, fmt.Errorf("error deleting events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading deleted row count: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) track(key string) func() {
	if s.tracker == nil {
		return func() {}
	}
	return s.tracker.Start(key)
}
