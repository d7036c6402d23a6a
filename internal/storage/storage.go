/*
Package storage persists usage learning state across sessions.

SQLite (modernc.org/sqlite, pure Go) backs two independent data sets:
per-command usage records with their phrasing variations, and learned
disambiguation preferences. The round-trip law holds: reloading must
reconstitute counts, last-used timestamps (RFC3339 precision), variation
maps, and preference mappings exactly.

The database lives at ~/.voice-hub/history.db. If it cannot be opened or
a stored blob is corrupt, storage degrades to a disabled no-op and the
engine starts with empty learning state rather than failing.
*/
package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the persistence boundary for the learning service.
type Store interface {
	// Init opens the database and runs migrations.
	Init() error

	// RecordUsage applies one usage event: increments the command's
	// count, updates last-used, and increments the phrase variation.
	RecordUsage(event UsageEvent) error

	// SavePreference stores (or replaces) a learned disambiguation choice.
	SavePreference(phrase, commandID string) error

	// LoadUsage reconstitutes every usage record, variations in
	// first-seen order.
	LoadUsage() ([]Usage, error)

	// LoadPreferences reconstitutes the phrase → command mapping.
	LoadPreferences() (map[string]string, error)

	// Clear wipes all usage and preference state.
	Clear() error

	// Close closes the database connection.
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	dbPath   string
	enabled  bool
	mu       sync.Mutex
	initOnce sync.Once
}

// NewStore creates a store backed by the given database file.
func NewStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{dbPath: dbPath, enabled: true}
}

// NewDefaultStore creates a store at ~/.voice-hub/history.db. If the
// home directory cannot be resolved the store is disabled but usable.
func NewDefaultStore() *SQLiteStore {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: failed to get home directory: %v", err)
		return &SQLiteStore{enabled: false}
	}
	return NewStore(filepath.Join(home, ".voice-hub", "history.db"))
}

// Init opens the database and runs migrations. On failure the store is
// disabled and subsequent operations become no-ops.
func (s *SQLiteStore) Init() error {
	if !s.enabled {
		return nil
	}

	var initErr error
	s.initOnce.Do(func() {
		if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
			initErr = fmt.Errorf("failed to create db directory: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}

		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			initErr = fmt.Errorf("failed to open database: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}
		s.db = db

		if err := db.Ping(); err != nil {
			initErr = fmt.Errorf("failed to ping database: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}

		if err := s.runMigrations(); err != nil {
			initErr = fmt.Errorf("failed to run migrations: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}
	})

	return initErr
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.db = nil
	return nil
}

// Clear wipes all persisted usage and preference state.
func (s *SQLiteStore) Clear() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"usage_variations", "command_usage", "learned_preferences"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// runMigrations executes schema migrations in order.
func (s *SQLiteStore) runMigrations() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return err
	}

	var version int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&version); err != nil {
		return err
	}

	migrations := []migration{
		{version: 1, name: "initial_schema", up: s.migration001InitialSchema},
	}

	for _, m := range migrations {
		if version >= m.version {
			continue
		}
		log.Printf("Running migration %d: %s", m.version, m.name)
		if err := m.up(); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			m.version, m.name,
		); err != nil {
			return err
		}
	}
	return nil
}

type migration struct {
	version int
	name    string
	up      func() error
}

// migration001InitialSchema creates the usage and preference tables.
func (s *SQLiteStore) migration001InitialSchema() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS command_usage (
			command_id TEXT PRIMARY KEY,
			count INTEGER NOT NULL DEFAULT 0,
			last_used TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create command_usage table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS usage_variations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			command_id TEXT NOT NULL,
			phrase TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			UNIQUE(command_id, phrase)
		)
	`); err != nil {
		return fmt.Errorf("failed to create usage_variations table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_usage_variations_command
		ON usage_variations(command_id)
	`); err != nil {
		return fmt.Errorf("failed to create usage_variations index: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS learned_preferences (
			phrase TEXT PRIMARY KEY,
			command_id TEXT NOT NULL,
			learned_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create learned_preferences table: %w", err)
	}

	return nil
}

// nowRFC3339 formats a timestamp the way every table stores it.
func nowRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
