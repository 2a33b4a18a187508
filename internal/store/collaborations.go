package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"hivemind/internal/logging"
	"hivemind/internal/types"
)

// CollabStore persists collaborative tasks. Tasks mutate in place (new
// contributions, completion), so writes are upserts keyed by task id.
type CollabStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewCollabStore opens (and initializes) the collaboration database at the
// given path.
func NewCollabStore(path string) (*CollabStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS collaborations (
		task_id TEXT PRIMARY KEY,
		task_description TEXT NOT NULL,
		requesting_agent TEXT NOT NULL,
		participating_agents TEXT,
		task_status TEXT NOT NULL,
		contributions TEXT,
		final_result TEXT,
		created_at TEXT NOT NULL,
		completed_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_collab_status ON collaborations(task_status);
	CREATE INDEX IF NOT EXISTS idx_collab_requester ON collaborations(requesting_agent);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create collaborations table: %w", err)
	}

	return &CollabStore{db: db}, nil
}

// Close closes the collaboration database.
func (s *CollabStore) Close() error {
	return s.db.Close()
}

// Upsert writes the task's current state, replacing any prior row.
func (s *CollabStore) Upsert(task *types.CollaborativeTask) error {
	timer := logging.StartTimer(logging.CategoryStore, "CollabStore.Upsert")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	participants, err := json.Marshal(task.ParticipatingAgents)
	if err != nil {
		return fmt.Errorf("failed to encode participants: %w", err)
	}
	contributions, err := json.Marshal(task.Contributions)
	if err != nil {
		return fmt.Errorf("failed to encode contributions: %w", err)
	}

	var finalResult any
	if task.FinalResult != nil {
		finalResult = *task.FinalResult
	}

	_, err = s.db.Exec(`
		INSERT INTO collaborations
			(task_id, task_description, requesting_agent, participating_agents,
			 task_status, contributions, final_result, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			task_status = excluded.task_status,
			contributions = excluded.contributions,
			final_result = excluded.final_result,
			completed_at = excluded.completed_at`,
		task.ID,
		task.Description,
		task.RequestingAgent,
		string(participants),
		string(task.Status),
		string(contributions),
		finalResult,
		formatTime(task.CreatedAt),
		nullableTime(task.CompletedAt),
	)
	if err != nil {
		logging.StoreError("Failed to upsert collaboration %s: %v", task.ID, err)
		return fmt.Errorf("failed to upsert collaboration: %w", err)
	}

	logging.StoreDebug("Collaboration persisted: id=%s status=%s contributions=%d", task.ID, task.Status, len(task.Contributions))
	return nil
}

// Load returns all persisted tasks in creation order. Called once at hub
// construction to rehydrate the in-memory task map.
func (s *CollabStore) Load() ([]*types.CollaborativeTask, error) {
	timer := logging.StartTimer(logging.CategoryStore, "CollabStore.Load")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT task_id, task_description, requesting_agent, participating_agents,
		       task_status, contributions, final_result, created_at, completed_at
		FROM collaborations
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query collaborations: %w", err)
	}
	defer rows.Close()

	var tasks []*types.CollaborativeTask
	for rows.Next() {
		task, err := scanCollaboration(rows)
		if err != nil {
			logging.StoreWarn("Skipping unreadable collaboration row: %v", err)
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// scanCollaboration converts a collaborations row back into a task.
func scanCollaboration(rows *sql.Rows) (*types.CollaborativeTask, error) {
	var task types.CollaborativeTask
	var participants, contributions sql.NullString
	var finalResult sql.NullString
	var status, createdAt string
	var completedAt sql.NullString

	if err := rows.Scan(
		&task.ID, &task.Description, &task.RequestingAgent, &participants,
		&status, &contributions, &finalResult, &createdAt, &completedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan collaboration row: %w", err)
	}
	task.Status = types.TaskStatus(status)

	if participants.Valid && participants.String != "" {
		if err := json.Unmarshal([]byte(participants.String), &task.ParticipatingAgents); err != nil {
			return nil, fmt.Errorf("failed to decode participants: %w", err)
		}
	}
	if contributions.Valid && contributions.String != "" && contributions.String != "null" {
		if err := json.Unmarshal([]byte(contributions.String), &task.Contributions); err != nil {
			return nil, fmt.Errorf("failed to decode contributions: %w", err)
		}
	}
	if finalResult.Valid {
		result := finalResult.String
		task.FinalResult = &result
	}

	created, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	task.CreatedAt = created

	task.CompletedAt, err = scanNullableTime(completedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse completed_at: %w", err)
	}

	return &task, nil
}
