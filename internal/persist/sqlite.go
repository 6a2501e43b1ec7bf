package persist

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"solardelta/internal/model"
)

// SQLiteStore persists accumulator state to a SQLite database, one row per
// accumulator key. Writes happen after every update cycle, so the table only
// ever holds current state, not history.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode keeps reads cheap while the update cycles write through.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", path)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS accumulators (
		key            TEXT PRIMARY KEY,
		weighted_sum   REAL NOT NULL,
		active_seconds REAL NOT NULL,
		last_timestamp TEXT NOT NULL,
		updated_at     INTEGER NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) Load(key string) (model.AccumulatorState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st model.AccumulatorState
	var lastTS string
	err := s.db.QueryRow(
		`SELECT weighted_sum, active_seconds, last_timestamp FROM accumulators WHERE key = ?`, key,
	).Scan(&st.WeightedSum, &st.ActiveSeconds, &lastTS)
	if err == sql.ErrNoRows {
		return model.AccumulatorState{}, false, nil
	}
	if err != nil {
		return model.AccumulatorState{}, false, fmt.Errorf("load %s: %w", key, err)
	}

	if lastTS != "" {
		ts, err := time.Parse(time.RFC3339Nano, lastTS)
		if err != nil {
			return model.AccumulatorState{}, false, fmt.Errorf("load %s: parse timestamp %q: %w", key, lastTS, err)
		}
		st.LastTimestamp = ts
	}
	return st, true, nil
}

func (s *SQLiteStore) Save(key string, st model.AccumulatorState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store the timestamp as an absolute instant so elapsed-time computation
	// stays correct across a restart gap. Empty string means unanchored.
	lastTS := ""
	if !st.LastTimestamp.IsZero() {
		lastTS = st.LastTimestamp.Format(time.RFC3339Nano)
	}

	_, err := s.db.Exec(`INSERT INTO accumulators (key, weighted_sum, active_seconds, last_timestamp, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			weighted_sum = excluded.weighted_sum,
			active_seconds = excluded.active_seconds,
			last_timestamp = excluded.last_timestamp,
			updated_at = excluded.updated_at`,
		key, st.WeightedSum, st.ActiveSeconds, lastTS, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
