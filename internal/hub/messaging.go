package hub

import (
	"fmt"
	"time"

	"hivemind/internal/logging"
	"hivemind/internal/types"

	"github.com/google/uuid"
)

// SendMessage delivers a directed message: appended to the durable audit
// log, then to the recipient's in-memory queue. Neither agent needs to be
// registered. Returns the message id; a storage failure is returned as an
// error and nothing is queued.
func (h *Hub) SendMessage(from, to string, messageType types.MessageType, content string, metadata map[string]any) (string, error) {
	h.mu.Lock()
	id, events, err := h.sendLocked(from, to, messageType, content, metadata)
	h.mu.Unlock()

	h.emit(events...)
	return id, err
}

// sendLocked is the shared send path for agent messages and hub-originated
// notifications. Callers must hold h.mu; any resulting events are returned
// for emission after the lock is released.
func (h *Hub) sendLocked(from, to string, messageType types.MessageType, content string, metadata map[string]any) (string, []Event, error) {
	msg := types.AgentMessage{
		ID:             uuid.NewString(),
		ConversationID: types.ConversationID(from, to),
		FromAgent:      from,
		ToAgent:        to,
		MessageType:    messageType,
		Content:        content,
		Metadata:       metadata,
		Timestamp:      h.now(),
	}

	// The audit log write comes first: losing a message silently is worse
	// than failing loudly.
	if err := h.stores.Messages.Insert(&msg); err != nil {
		return "", nil, fmt.Errorf("failed to audit message: %w", err)
	}

	h.queues[to] = append(h.queues[to], msg)
	h.interactions[from+"->"+to]++
	if h.networks[from] == nil {
		h.networks[from] = make(map[string]struct{})
	}
	h.networks[from][to] = struct{}{}
	if reg, ok := h.agents[from]; ok {
		reg.InteractionCount++
	}

	logging.CommsDebug("Message %s: %s -> %s (%s)", msg.ID, from, to, messageType)

	events := h.recordPatternLocked(from, to, messageType, msg.Timestamp)
	return msg.ID, events, nil
}

// recordPatternLocked tracks send times per (from, to, type) bucket and
// flags rapid communication. Entries older than the detection window are
// pruned on the way in, which leaves the over-threshold count unchanged.
func (h *Hub) recordPatternLocked(from, to string, messageType types.MessageType, at time.Time) []Event {
	key := from + "-" + to + "-" + messageType
	cutoff := at.Add(-h.rapidWindow())

	recent := h.patterns[key][:0]
	for _, ts := range h.patterns[key] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	recent = append(recent, at)
	h.patterns[key] = recent

	if len(recent) <= h.cfg.RapidThreshold {
		return nil
	}

	logging.CommsWarn("Rapid communication detected: %s -> %s (%s), %d messages in %v",
		from, to, messageType, len(recent), h.rapidWindow())

	return []Event{{
		Type:      EventRapidCommunication,
		Timestamp: at,
		Source:    "comms",
		Data: map[string]any{
			"from_agent":   from,
			"to_agent":     to,
			"message_type": messageType,
			"count":        len(recent),
		},
	}}
}

// Messages returns the agent's queued messages, optionally filtered to
// those created strictly after since. Unknown agents get an empty list,
// never an error.
func (h *Hub) Messages(agent string, since *time.Time) []types.AgentMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	queue := h.queues[agent]
	out := make([]types.AgentMessage, 0, len(queue))
	for _, msg := range queue {
		if since != nil && !msg.Timestamp.After(*since) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// ConversationHistory reads the durable audit trail for the unordered pair
// of agents, in send order. Unlike the in-memory queues this survives
// restarts and cleanup.
func (h *Hub) ConversationHistory(a, b string) ([]types.AgentMessage, error) {
	return h.stores.Messages.Conversation(types.ConversationID(a, b))
}
