package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"hivemind/internal/logging"
	"hivemind/internal/types"
)

// KnowledgeStore is the durable log of shared knowledge items.
type KnowledgeStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewKnowledgeStore opens (and initializes) the knowledge database at the
// given path.
func NewKnowledgeStore(path string) (*KnowledgeStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS knowledge_items (
		knowledge_id TEXT PRIMARY KEY,
		source_agent TEXT NOT NULL,
		knowledge_type TEXT NOT NULL,
		content TEXT NOT NULL,
		confidence_level REAL NOT NULL,
		relevance_tags TEXT,
		validation_count INTEGER DEFAULT 0,
		timestamp TEXT NOT NULL,
		expiry_date TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_knowledge_source ON knowledge_items(source_agent);
	CREATE INDEX IF NOT EXISTS idx_knowledge_type ON knowledge_items(knowledge_type);
	CREATE INDEX IF NOT EXISTS idx_knowledge_timestamp ON knowledge_items(timestamp);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create knowledge_items table: %w", err)
	}

	return &KnowledgeStore{db: db}, nil
}

// Close closes the knowledge database.
func (s *KnowledgeStore) Close() error {
	return s.db.Close()
}

// Insert appends a knowledge item. Items are immutable once written.
func (s *KnowledgeStore) Insert(item *types.KnowledgeItem) error {
	timer := logging.StartTimer(logging.CategoryStore, "KnowledgeStore.Insert")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	tags, err := json.Marshal(item.RelevanceTags)
	if err != nil {
		return fmt.Errorf("failed to encode relevance tags: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO knowledge_items
			(knowledge_id, source_agent, knowledge_type, content, confidence_level,
			 relevance_tags, validation_count, timestamp, expiry_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.SourceAgent,
		item.KnowledgeType,
		item.Content,
		item.ConfidenceLevel,
		string(tags),
		item.ValidationCount,
		formatTime(item.Timestamp),
		nullableTime(item.ExpiryDate),
	)
	if err != nil {
		logging.StoreError("Failed to insert knowledge item %s: %v", item.ID, err)
		return fmt.Errorf("failed to insert knowledge item: %w", err)
	}

	logging.StoreDebug("Knowledge item stored: id=%s source=%s type=%s", item.ID, item.SourceAgent, item.KnowledgeType)
	return nil
}

// Candidates returns up to limit items not sourced by excludeAgent, ordered
// by confidence then recency. This is the relevance pre-filter: callers
// score the returned window, so an old low-confidence item can be missed.
func (s *KnowledgeStore) Candidates(excludeAgent string, limit int) ([]types.KnowledgeItem, error) {
	timer := logging.StartTimer(logging.CategoryStore, "KnowledgeStore.Candidates")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT knowledge_id, source_agent, knowledge_type, content, confidence_level,
		       relevance_tags, validation_count, timestamp, expiry_date
		FROM knowledge_items
		WHERE source_agent != ?
		ORDER BY confidence_level DESC, timestamp DESC
		LIMIT ?`,
		excludeAgent, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge candidates: %w", err)
	}
	defer rows.Close()

	var items []types.KnowledgeItem
	for rows.Next() {
		item, err := scanKnowledgeItem(rows)
		if err != nil {
			logging.StoreWarn("Skipping unreadable knowledge row: %v", err)
			continue
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Count returns the total number of knowledge items, uncapped.
func (s *KnowledgeStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM knowledge_items").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count knowledge items: %w", err)
	}
	return count, nil
}

// Distribution returns per-agent, per-knowledge-type contribution counts.
func (s *KnowledgeStore) Distribution() (map[string]map[string]int, error) {
	timer := logging.StartTimer(logging.CategoryStore, "KnowledgeStore.Distribution")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT source_agent, knowledge_type, COUNT(*)
		FROM knowledge_items
		GROUP BY source_agent, knowledge_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge distribution: %w", err)
	}
	defer rows.Close()

	dist := make(map[string]map[string]int)
	for rows.Next() {
		var agent, ktype string
		var count int
		if err := rows.Scan(&agent, &ktype, &count); err != nil {
			return nil, fmt.Errorf("failed to scan distribution row: %w", err)
		}
		if dist[agent] == nil {
			dist[agent] = make(map[string]int)
		}
		dist[agent][ktype] = count
	}
	return dist, rows.Err()
}

// DeleteExpired removes items whose expiry date is set and before the
// cutoff. Items without an expiry never qualify, so they outlive any
// retention pass.
func (s *KnowledgeStore) DeleteExpired(cutoff time.Time) (int64, error) {
	timer := logging.StartTimer(logging.CategoryStore, "KnowledgeStore.DeleteExpired")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		DELETE FROM knowledge_items
		WHERE expiry_date IS NOT NULL AND expiry_date != '' AND expiry_date < ?`,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired knowledge: %w", err)
	}
	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		logging.Store("Deleted %d expired knowledge items", deleted)
	}
	return deleted, nil
}

// scanKnowledgeItem converts a knowledge_items row back into a KnowledgeItem.
func scanKnowledgeItem(rows *sql.Rows) (types.KnowledgeItem, error) {
	var item types.KnowledgeItem
	var tags sql.NullString
	var ts string
	var expiry sql.NullString

	if err := rows.Scan(
		&item.ID, &item.SourceAgent, &item.KnowledgeType, &item.Content,
		&item.ConfidenceLevel, &tags, &item.ValidationCount, &ts, &expiry,
	); err != nil {
		return item, fmt.Errorf("failed to scan knowledge row: %w", err)
	}

	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &item.RelevanceTags); err != nil {
			return item, fmt.Errorf("failed to decode relevance tags: %w", err)
		}
	}

	parsed, err := parseTime(ts)
	if err != nil {
		return item, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	item.Timestamp = parsed

	item.ExpiryDate, err = scanNullableTime(expiry)
	if err != nil {
		return item, fmt.Errorf("failed to parse expiry date: %w", err)
	}

	return item, nil
}
