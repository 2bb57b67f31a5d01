// Package store is the SQLite persistence adapter for campaigns, characters,
// notes, memberships and learned community examples.
//
// Characters keep their scalar columns as real columns and the details
// document as a JSON blob, so unknown detail keys survive a round trip.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/Marpuchy/dnd-manager-sub001/internal/logging"
)

// SQLiteStore implements assistant.Store and assistant.CommunityStore.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	newID  func() string
}

// Open initializes the database at path. ":memory:" opens a private
// in-memory database.
func Open(path string) (*SQLiteStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: in-memory databases are per-connection and sqlite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.StoreDebug("pragma %q failed: %v", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, dbPath: path, newID: newID}
	if err := s.initialize(); err != nil {
		logging.StoreError("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}

	logging.Store("store ready at %s", path)
	return s, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// DB exposes the handle for maintenance commands.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) initialize() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS campaigns (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT DEFAULT '',
			owner_id TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS campaign_members (
			campaign_id TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			PRIMARY KEY(campaign_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS characters (
			id TEXT PRIMARY KEY,
			campaign_id TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
			owner_id TEXT DEFAULT '',
			name TEXT NOT NULL,
			class TEXT DEFAULT '',
			race TEXT DEFAULT '',
			level INTEGER DEFAULT 1,
			experience INTEGER DEFAULT 0,
			armor_class INTEGER DEFAULT 10,
			speed INTEGER DEFAULT 30,
			current_hp INTEGER DEFAULT 0,
			max_hp INTEGER DEFAULT 0,
			character_type TEXT DEFAULT '',
			stats TEXT DEFAULT '{}',
			details TEXT DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_characters_campaign ON characters(campaign_id)`,
		`CREATE TABLE IF NOT EXISTS campaign_notes (
			id TEXT PRIMARY KEY,
			campaign_id TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
			author_id TEXT DEFAULT '',
			title TEXT NOT NULL,
			body TEXT DEFAULT '',
			private BOOLEAN DEFAULT FALSE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_campaign ON campaign_notes(campaign_id)`,
		`CREATE TABLE IF NOT EXISTS community_examples (
			id TEXT PRIMARY KEY,
			campaign_id TEXT DEFAULT '',
			prompt TEXT NOT NULL,
			actions TEXT NOT NULL,
			provider TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_community_created ON community_examples(created_at)`,
	}
	for _, stmt := range tables {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	if _, err := RunMigrations(s.db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
