package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"hivemind/internal/logging"
	"hivemind/internal/types"
)

// MessageStore is the append-only audit trail of every message sent through
// the hub. Per-recipient delivery queues live in memory; only this log is
// durable. Cleanup never touches it.
type MessageStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewMessageStore opens (and initializes) the communication database at the
// given path.
func NewMessageStore(path string) (*MessageStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		message_id TEXT PRIMARY KEY,
		from_agent TEXT NOT NULL,
		to_agent TEXT NOT NULL,
		message_type TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata TEXT,
		timestamp TEXT NOT NULL,
		conversation_id TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);
	CREATE INDEX IF NOT EXISTS idx_messages_to_agent ON messages(to_agent);
	CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create messages table: %w", err)
	}

	return &MessageStore{db: db}, nil
}

// Close closes the communication database.
func (s *MessageStore) Close() error {
	return s.db.Close()
}

// Insert appends a message to the audit log.
func (s *MessageStore) Insert(msg *types.AgentMessage) error {
	timer := logging.StartTimer(logging.CategoryStore, "MessageStore.Insert")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	metadata, err := json.Marshal(msg.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode message metadata: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO messages
			(message_id, from_agent, to_agent, message_type, content, metadata,
			 timestamp, conversation_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID,
		msg.FromAgent,
		msg.ToAgent,
		msg.MessageType,
		msg.Content,
		string(metadata),
		formatTime(msg.Timestamp),
		msg.ConversationID,
	)
	if err != nil {
		logging.StoreError("Failed to insert message %s: %v", msg.ID, err)
		return fmt.Errorf("failed to insert message: %w", err)
	}

	logging.StoreDebug("Message logged: id=%s %s->%s type=%s", msg.ID, msg.FromAgent, msg.ToAgent, msg.MessageType)
	return nil
}

// Count returns the total number of audited messages.
func (s *MessageStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// Conversation returns the full audit trail for one conversation in send
// order.
func (s *MessageStore) Conversation(conversationID string) ([]types.AgentMessage, error) {
	timer := logging.StartTimer(logging.CategoryStore, "MessageStore.Conversation")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT message_id, from_agent, to_agent, message_type, content, metadata,
		       timestamp, conversation_id
		FROM messages
		WHERE conversation_id = ?
		ORDER BY timestamp ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	defer rows.Close()

	var messages []types.AgentMessage
	for rows.Next() {
		var msg types.AgentMessage
		var metadata sql.NullString
		var ts string
		if err := rows.Scan(
			&msg.ID, &msg.FromAgent, &msg.ToAgent, &msg.MessageType,
			&msg.Content, &metadata, &ts, &msg.ConversationID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}

		if metadata.Valid && metadata.String != "" && metadata.String != "null" {
			if err := json.Unmarshal([]byte(metadata.String), &msg.Metadata); err != nil {
				logging.StoreWarn("Unreadable metadata on message %s: %v", msg.ID, err)
			}
		}

		parsed, err := parseTime(ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse message timestamp: %w", err)
		}
		msg.Timestamp = parsed

		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
