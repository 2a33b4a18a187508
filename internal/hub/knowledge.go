package hub

import (
	"fmt"
	"sort"
	"strings"

	"hivemind/internal/logging"
	"hivemind/internal/types"

	"github.com/google/uuid"
)

// previewLen caps the content preview embedded in knowledge notifications.
const previewLen = 100

// ShareKnowledge stores a knowledge item for the collective and notifies
// registered agents whose capabilities match any of its tags. The source
// agent does not need to be registered; its contribution counter is only
// updated when it is.
func (h *Hub) ShareKnowledge(sourceAgent, knowledgeType, content string, confidence float64, tags []string) (string, error) {
	timer := logging.StartTimer(logging.CategoryKnowledge, "ShareKnowledge")
	defer timer.Stop()

	h.mu.Lock()

	item := &types.KnowledgeItem{
		ID:              uuid.NewString(),
		SourceAgent:     sourceAgent,
		KnowledgeType:   knowledgeType,
		Content:         content,
		ConfidenceLevel: confidence,
		RelevanceTags:   append([]string(nil), tags...),
		Timestamp:       h.now(),
	}

	if err := h.stores.Knowledge.Insert(item); err != nil {
		h.mu.Unlock()
		return "", fmt.Errorf("failed to store knowledge item: %w", err)
	}

	if reg, ok := h.agents[sourceAgent]; ok {
		reg.KnowledgeContributions++
	}

	events := h.notifyRelevantAgentsLocked(item)
	events = append(events, Event{
		Type:      EventKnowledgeShared,
		Timestamp: item.Timestamp,
		Source:    "knowledge",
		Data: map[string]any{
			"knowledge_id":   item.ID,
			"source_agent":   sourceAgent,
			"knowledge_type": knowledgeType,
		},
	})
	h.mu.Unlock()

	logging.Knowledge("Knowledge shared by %s: %s", sourceAgent, knowledgeType)
	h.emit(events...)
	return item.ID, nil
}

// notifyRelevantAgentsLocked queues a knowledge_share notification from the
// hub to every other registered agent whose capability list matches one of
// the item's tags. Notification failures are logged, not propagated: the
// knowledge item itself is already durable.
func (h *Hub) notifyRelevantAgentsLocked(item *types.KnowledgeItem) []Event {
	var events []Event
	for _, name := range h.agentOrder {
		if name == item.SourceAgent {
			continue
		}
		if !h.tagsMatchAgent(item.RelevanceTags, h.agents[name].Capabilities) {
			continue
		}

		content := fmt.Sprintf("New %s: %s...", item.KnowledgeType, preview(item.Content))
		_, sendEvents, err := h.sendLocked(types.HubAgent, name, types.MessageKnowledgeShare, content,
			map[string]any{"knowledge_id": item.ID})
		if err != nil {
			logging.Get(logging.CategoryKnowledge).Warn("Failed to notify %s of knowledge %s: %v", name, item.ID, err)
			continue
		}
		events = append(events, sendEvents...)
	}
	return events
}

// tagsMatchAgent reports whether any relevance tag appears, case
// insensitively, inside the agent's joined capability list.
func (h *Hub) tagsMatchAgent(tags, capabilities []string) bool {
	haystack := capabilityText(capabilities)
	for _, tag := range tags {
		if strings.Contains(haystack, strings.ToLower(tag)) {
			return true
		}
	}
	return false
}

// preview returns the first previewLen characters of content.
func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLen {
		return content
	}
	return string(runes[:previewLen])
}

// RelevantKnowledge returns up to limit knowledge items relevant to the
// query, most relevant first. Relevance is the count of query words found
// among the item's content and tag words; zero-overlap items are excluded,
// as are the requester's own items.
//
// Candidates are pre-filtered to the limit*factor highest-confidence,
// most-recent rows before scoring. A genuinely relevant but old,
// low-confidence item can fall outside that window; callers should not
// assume exhaustive recall.
func (h *Hub) RelevantKnowledge(requestingAgent, queryContext string, limit int) ([]types.KnowledgeItem, error) {
	timer := logging.StartTimer(logging.CategoryKnowledge, "RelevantKnowledge")
	defer timer.Stop()

	if limit <= 0 {
		limit = 10
	}

	candidates, err := h.stores.Knowledge.Candidates(requestingAgent, limit*h.cfg.CandidateFactor)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch knowledge candidates: %w", err)
	}

	queryWords := wordSet(queryContext)

	type scored struct {
		item  types.KnowledgeItem
		score int
	}
	var relevant []scored
	for _, item := range candidates {
		itemWords := wordSet(item.Content)
		for word := range wordSet(strings.Join(item.RelevanceTags, " ")) {
			itemWords[word] = struct{}{}
		}

		score := 0
		for word := range queryWords {
			if _, ok := itemWords[word]; ok {
				score++
			}
		}
		if score > 0 {
			relevant = append(relevant, scored{item: item, score: score})
		}
	}

	// Stable: equal scores keep the store's confidence/recency order.
	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].score > relevant[j].score
	})

	if len(relevant) > limit {
		relevant = relevant[:limit]
	}
	items := make([]types.KnowledgeItem, len(relevant))
	for i, r := range relevant {
		items[i] = r.item
	}

	logging.KnowledgeDebug("Relevance query for %s matched %d items", requestingAgent, len(items))
	return items, nil
}

// wordSet lowercases and whitespace-tokenizes text into a set.
func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
