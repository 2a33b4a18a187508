package hub

import (
	"fmt"
	"strings"

	"hivemind/internal/logging"
	"hivemind/internal/types"

	"github.com/google/uuid"
)

// DefaultContributionType is used when a contributor does not tag its
// contribution.
const DefaultContributionType = "analysis"

// StartCollaboration opens a multi-agent task. Participants are every
// registered agent loosely matching any required capability, plus the
// requester (always included, appended last when not already matched).
// Each participant except the requester receives a collaboration_request
// notification from the hub.
func (h *Hub) StartCollaboration(requestingAgent, taskDescription string, requiredCapabilities []string) (string, error) {
	timer := logging.StartTimer(logging.CategoryCollab, "StartCollaboration")
	defer timer.Stop()

	h.mu.Lock()

	participants := h.findCapableAgentsLocked(requiredCapabilities)
	included := false
	for _, p := range participants {
		if p == requestingAgent {
			included = true
			break
		}
	}
	if !included {
		participants = append(participants, requestingAgent)
	}

	task := &types.CollaborativeTask{
		ID:                  uuid.NewString(),
		Description:         taskDescription,
		RequestingAgent:     requestingAgent,
		ParticipatingAgents: participants,
		Status:              types.TaskOpen,
		CreatedAt:           h.now(),
	}

	if err := h.stores.Collaborations.Upsert(task); err != nil {
		h.mu.Unlock()
		return "", fmt.Errorf("failed to persist collaboration: %w", err)
	}
	h.tasks[task.ID] = task
	h.taskOrder = append(h.taskOrder, task.ID)

	var events []Event
	for _, agent := range participants {
		if agent == requestingAgent {
			continue
		}
		_, sendEvents, err := h.sendLocked(types.HubAgent, agent, types.MessageCollaborationRequest,
			fmt.Sprintf("Collaboration request: %s", taskDescription),
			map[string]any{"task_id": task.ID, "required_capabilities": requiredCapabilities})
		if err != nil {
			logging.Get(logging.CategoryCollab).Warn("Failed to notify %s of task %s: %v", agent, task.ID, err)
			continue
		}
		events = append(events, sendEvents...)
	}
	h.mu.Unlock()

	logging.Collab("Collaboration started: %s with %d agents", task.ID, len(participants))
	h.emit(events...)
	return task.ID, nil
}

// Contribute appends an agent's contribution to an open task. Returns false
// without touching any state when the task is unknown or the agent is not a
// participant. When the contribution count reaches the participant count
// the task finalizes; a single agent contributing more than once counts
// toward that total.
func (h *Hub) Contribute(taskID, contributingAgent, contribution, contributionType string) (bool, error) {
	timer := logging.StartTimer(logging.CategoryCollab, "Contribute")
	defer timer.Stop()

	if contributionType == "" {
		contributionType = DefaultContributionType
	}

	h.mu.Lock()

	task, ok := h.tasks[taskID]
	if !ok {
		h.mu.Unlock()
		logging.CollabDebug("Contribution to unknown task %s rejected", taskID)
		return false, nil
	}
	if !task.HasParticipant(contributingAgent) {
		h.mu.Unlock()
		logging.CollabDebug("Contribution to %s from non-participant %s rejected", taskID, contributingAgent)
		return false, nil
	}

	task.Contributions = append(task.Contributions, types.Contribution{
		ID:        uuid.NewString(),
		Agent:     contributingAgent,
		Content:   contribution,
		Type:      contributionType,
		Timestamp: h.now(),
	})

	if reg, ok := h.agents[contributingAgent]; ok {
		reg.CollaborationParticipations++
	}

	var events []Event
	if len(task.Contributions) >= len(task.ParticipatingAgents) {
		events = h.completeCollaborationLocked(task)
	}

	// Persist after any completion so one upsert captures the final state.
	err := h.stores.Collaborations.Upsert(task)
	h.mu.Unlock()

	h.emit(events...)
	if err != nil {
		// The contribution is accepted in memory; only durability failed.
		return true, fmt.Errorf("failed to persist contribution: %w", err)
	}
	return true, nil
}

// completeCollaborationLocked finalizes a task: synthesizes the result from
// the accumulated contributions and notifies every participant, requester
// included. Callers must hold h.mu.
func (h *Hub) completeCollaborationLocked(task *types.CollaborativeTask) []Event {
	completedAt := h.now()
	task.Status = types.TaskCompleted
	task.CompletedAt = &completedAt

	blocks := make([]string, len(task.Contributions))
	for i, c := range task.Contributions {
		blocks[i] = fmt.Sprintf("**%s**: %s", c.Agent, c.Content)
	}
	result := fmt.Sprintf("Collaborative result from %d agents:\n\n%s",
		len(task.ParticipatingAgents), strings.Join(blocks, "\n\n"))
	task.FinalResult = &result

	events := []Event{{
		Type:      EventCollaborationCompleted,
		Timestamp: completedAt,
		Source:    "collab",
		Data: map[string]any{
			"task_id":       task.ID,
			"participants":  len(task.ParticipatingAgents),
			"contributions": len(task.Contributions),
		},
	}}

	for _, agent := range task.ParticipatingAgents {
		_, sendEvents, err := h.sendLocked(types.HubAgent, agent, types.MessageCollaborationComplete,
			fmt.Sprintf("Collaboration completed: %s", task.Description),
			map[string]any{"task_id": task.ID, "final_result": result})
		if err != nil {
			logging.Get(logging.CategoryCollab).Warn("Failed to notify %s of completion %s: %v", agent, task.ID, err)
			continue
		}
		events = append(events, sendEvents...)
	}

	logging.Collab("Collaboration completed: %s", task.ID)
	return events
}

// CollaborationStatus returns a snapshot of the task, or nil when the id is
// unknown. Not-found is not an error: chat turns degrade gracefully.
func (h *Hub) CollaborationStatus(taskID string) *types.TaskSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	task, ok := h.tasks[taskID]
	if !ok {
		return nil
	}
	return task.Snapshot()
}
