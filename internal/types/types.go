// Package types defines the shared data model for the collective
// intelligence hub: knowledge items, agent messages, collaborative tasks,
// and the registry/analysis records built on top of them.
package types

import (
	"strings"
	"time"
)

// HubAgent is the synthetic sender identity used for notifications the hub
// emits on its own behalf (knowledge alerts, collaboration lifecycle).
const HubAgent = "CollectiveHub"

// MessageType tags a message. The set is open: agents may invent new tags
// without any schema change. The constants below cover the types the hub
// itself produces or that agents conventionally use.
type MessageType = string

const (
	MessageQuery                 MessageType = "query"
	MessageResponse              MessageType = "response"
	MessageKnowledgeShare        MessageType = "knowledge_share"
	MessageCollaborationRequest  MessageType = "collaboration_request"
	MessageCollaborationComplete MessageType = "collaboration_complete"
)

// TaskStatus is the lifecycle state of a collaborative task.
type TaskStatus string

const (
	TaskOpen       TaskStatus = "open"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Active reports whether the task still counts toward the active-task
// metric. in_progress is representable but no hub operation currently
// sets it.
func (s TaskStatus) Active() bool {
	return s == TaskOpen || s == TaskInProgress
}

// KnowledgeItem is a discrete fact/pattern/strategy/insight shared by one
// agent for others to discover via keyword relevance.
type KnowledgeItem struct {
	ID              string     `json:"knowledge_id"`
	SourceAgent     string     `json:"source_agent"`
	KnowledgeType   string     `json:"knowledge_type"`
	Content         string     `json:"content"`
	ConfidenceLevel float64    `json:"confidence_level"`
	RelevanceTags   []string   `json:"relevance_tags"`
	ValidationCount int        `json:"validation_count"`
	Timestamp       time.Time  `json:"timestamp"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
}

// AgentMessage is a directed communication between two agent identifiers.
type AgentMessage struct {
	ID             string         `json:"message_id"`
	ConversationID string         `json:"conversation_id"`
	FromAgent      string         `json:"from_agent"`
	ToAgent        string         `json:"to_agent"`
	MessageType    MessageType    `json:"message_type"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// ConversationID derives the stable, order-independent identifier shared by
// both directions of a pair of agents. The lexicographically smaller
// identifier always comes first so A->B and B->A land in the same
// conversation.
func ConversationID(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "_" + b
}

// Contribution is one agent's free-text input to a collaborative task.
type Contribution struct {
	ID        string    `json:"contribution_id"`
	Agent     string    `json:"agent"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// CollaborativeTask is a multi-agent work item. It auto-completes once the
// contribution count reaches the participant count; a single agent
// contributing twice can therefore finish a task early. That is the defined
// completion policy, crude as it is.
type CollaborativeTask struct {
	ID                  string         `json:"task_id"`
	Description         string         `json:"task_description"`
	RequestingAgent     string         `json:"requesting_agent"`
	ParticipatingAgents []string       `json:"participating_agents"`
	Status              TaskStatus     `json:"task_status"`
	Contributions       []Contribution `json:"contributions"`
	FinalResult         *string        `json:"final_result,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	CompletedAt         *time.Time     `json:"completed_at,omitempty"`
}

// HasParticipant reports whether the agent is on the task's participant
// list.
func (t *CollaborativeTask) HasParticipant(agent string) bool {
	for _, p := range t.ParticipatingAgents {
		if p == agent {
			return true
		}
	}
	return false
}

// Snapshot returns the read-only view served by collaboration status
// queries. Slices and pointers are copied so callers cannot reach back
// into live task state.
func (t *CollaborativeTask) Snapshot() *TaskSnapshot {
	snap := &TaskSnapshot{
		TaskID:              t.ID,
		Description:         t.Description,
		RequestingAgent:     t.RequestingAgent,
		Status:              t.Status,
		ParticipatingAgents: append([]string(nil), t.ParticipatingAgents...),
		Contributions:       append([]Contribution(nil), t.Contributions...),
		CreatedAt:           t.CreatedAt,
	}
	if t.FinalResult != nil {
		result := *t.FinalResult
		snap.FinalResult = &result
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		snap.CompletedAt = &completed
	}
	return snap
}

// TaskSnapshot is a point-in-time summary of a collaborative task.
type TaskSnapshot struct {
	TaskID              string         `json:"task_id"`
	Description         string         `json:"description"`
	RequestingAgent     string         `json:"requesting_agent"`
	Status              TaskStatus     `json:"status"`
	ParticipatingAgents []string       `json:"participating_agents"`
	Contributions       []Contribution `json:"contributions"`
	FinalResult         *string        `json:"final_result,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	CompletedAt         *time.Time     `json:"completed_at,omitempty"`
}

// AgentRegistration is a capability declaration plus running activity
// counters. Registering the same identifier twice silently overwrites the
// earlier record. AgentRef is an opaque handle the hub stores but never
// calls into.
type AgentRegistration struct {
	Name                        string    `json:"name"`
	Capabilities                []string  `json:"capabilities"`
	AgentRef                    any       `json:"-"`
	RegisteredAt                time.Time `json:"registered_at"`
	InteractionCount            int       `json:"interaction_count"`
	KnowledgeContributions      int       `json:"knowledge_contributions"`
	CollaborationParticipations int       `json:"collaboration_participations"`
}

// BehaviorReport aggregates collective statistics plus heuristic
// emergent-behavior flags. All fields are best-effort observability data,
// never authoritative.
type BehaviorReport struct {
	RegisteredAgents         int                       `json:"registered_agents"`
	TotalKnowledgeItems      int                       `json:"total_knowledge_items"`
	TotalCommunications      int                       `json:"total_communications"`
	ActiveCollaborations     int                       `json:"active_collaborations"`
	CommunicationPatterns    map[string]int            `json:"communication_patterns"`
	KnowledgeDistribution    map[string]map[string]int `json:"knowledge_distribution"`
	CollaborationSuccessRate float64                   `json:"collaboration_success_rate"`
	EmergentBehaviors        []string                  `json:"emergent_behaviors"`
}
