// Package store implements the hub's durable persistence layer: three
// independent SQLite databases for knowledge items, the message audit log,
// and collaborative tasks.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hivemind/internal/logging"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Database file names inside the collective directory.
const (
	KnowledgeDBFile     = "collective_knowledge.db"
	CommunicationDBFile = "agent_communications.db"
	CollaborationDBFile = "collaborative_tasks.db"
)

// timeLayout is a fixed-width UTC timestamp format so lexicographic
// comparison in SQL matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Stores bundles the three independent durable stores. Each store
// serializes its own writes; the stores themselves are independent and may
// be written in parallel.
type Stores struct {
	Knowledge      *KnowledgeStore
	Messages       *MessageStore
	Collaborations *CollabStore
}

// Open initializes the three databases under the given collective
// directory, creating it if needed.
func Open(collectiveDir string) (*Stores, error) {
	timer := logging.StartTimer(logging.CategoryStore, "store.Open")
	defer timer.Stop()

	logging.Store("Opening collective stores at %s", collectiveDir)

	knowledge, err := NewKnowledgeStore(filepath.Join(collectiveDir, KnowledgeDBFile))
	if err != nil {
		return nil, err
	}
	messages, err := NewMessageStore(filepath.Join(collectiveDir, CommunicationDBFile))
	if err != nil {
		knowledge.Close()
		return nil, err
	}
	collaborations, err := NewCollabStore(filepath.Join(collectiveDir, CollaborationDBFile))
	if err != nil {
		knowledge.Close()
		messages.Close()
		return nil, err
	}

	return &Stores{
		Knowledge:      knowledge,
		Messages:       messages,
		Collaborations: collaborations,
	}, nil
}

// Close closes all three databases.
func (s *Stores) Close() error {
	logging.Store("Closing collective stores")
	return errors.Join(
		s.Knowledge.Close(),
		s.Messages.Close(),
		s.Collaborations.Close(),
	)
}

// openDB opens a SQLite database with the pragmas every store uses.
func openDB(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.StoreError("Failed to create directory %s: %v", dir, err)
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		logging.StoreError("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	return db, nil
}

// formatTime renders a timestamp in the fixed-width storage layout.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a stored timestamp back. Falls back to RFC3339 for rows
// written by older builds.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// nullableTime renders an optional timestamp, returning a NULL-compatible
// value for nil.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// scanNullableTime converts a nullable timestamp column back to *time.Time.
func scanNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
