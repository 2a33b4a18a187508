package hub

import (
	"fmt"
	"sort"
	"strings"

	"hivemind/internal/logging"
	"hivemind/internal/types"

	"golang.org/x/sync/errgroup"
)

// AnalyzeCollectiveBehavior aggregates collective statistics across the
// registry, the message counters, the task map, and the knowledge store,
// plus the heuristic emergent-behavior flags. Read-only.
func (h *Hub) AnalyzeCollectiveBehavior() (*types.BehaviorReport, error) {
	timer := logging.StartTimer(logging.CategoryBehavior, "AnalyzeCollectiveBehavior")
	defer timer.Stop()

	h.mu.Lock()
	report := &types.BehaviorReport{
		RegisteredAgents:      len(h.agents),
		CommunicationPatterns: make(map[string]int, len(h.interactions)),
	}
	for key, count := range h.interactions {
		report.CommunicationPatterns[key] = count
		report.TotalCommunications += count
	}

	total, completed := 0, 0
	for _, task := range h.tasks {
		total++
		if task.Status.Active() {
			report.ActiveCollaborations++
		}
		if task.Status == types.TaskCompleted {
			completed++
		}
	}
	if total > 0 {
		report.CollaborationSuccessRate = float64(completed) / float64(total)
	}
	h.mu.Unlock()

	// The two knowledge-store reads are independent; run them in parallel.
	var g errgroup.Group
	g.Go(func() error {
		count, err := h.stores.Knowledge.Count()
		if err != nil {
			return err
		}
		report.TotalKnowledgeItems = count
		return nil
	})
	g.Go(func() error {
		dist, err := h.stores.Knowledge.Distribution()
		if err != nil {
			return err
		}
		report.KnowledgeDistribution = dist
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to aggregate knowledge stats: %w", err)
	}

	report.EmergentBehaviors = h.detectEmergentBehaviors(report.CommunicationPatterns, report.KnowledgeDistribution)

	logging.Behavior("Collective analysis: %d agents, %d knowledge items, %d communications",
		report.RegisteredAgents, report.TotalKnowledgeItems, report.TotalCommunications)
	return report, nil
}

// detectEmergentBehaviors applies the fixed-threshold heuristics. The flags
// are intentionally simple dashboard labels, not authoritative analysis.
func (h *Hub) detectEmergentBehaviors(patterns map[string]int, distribution map[string]map[string]int) []string {
	var behaviors []string

	frequentPairs := 0
	for _, count := range patterns {
		if count > h.cfg.FrequentPairThreshold {
			frequentPairs++
		}
	}
	if frequentPairs > 0 {
		behaviors = append(behaviors, fmt.Sprintf("Frequent collaborations detected: %d agent pairs", frequentPairs))
	}

	// A specialist contributes more than the threshold within exactly one
	// knowledge type.
	var specialists []string
	for agent, byType := range distribution {
		if len(byType) != 1 {
			continue
		}
		for _, count := range byType {
			if count > h.cfg.SpecialistMinItems {
				specialists = append(specialists, agent)
			}
		}
	}
	if len(specialists) > 0 {
		sort.Strings(specialists)
		behaviors = append(behaviors, fmt.Sprintf("Knowledge specialists emerged: %s", strings.Join(specialists, ", ")))
	}

	return behaviors
}

// CleanupOldData trims in-memory delivery queues to the retention window
// and deletes explicitly expired knowledge items. The message audit log is
// never touched, and knowledge without an expiry date survives regardless
// of age. daysOld <= 0 falls back to the configured default retention.
func (h *Hub) CleanupOldData(daysOld int) error {
	timer := logging.StartTimer(logging.CategoryBehavior, "CleanupOldData")
	defer timer.Stop()

	if daysOld <= 0 {
		daysOld = h.cfg.DefaultRetentionDays
	}
	cutoff := h.now().AddDate(0, 0, -daysOld)

	h.mu.Lock()
	for agent, queue := range h.queues {
		kept := queue[:0]
		for _, msg := range queue {
			if msg.Timestamp.After(cutoff) {
				kept = append(kept, msg)
			}
		}
		h.queues[agent] = kept
	}
	h.mu.Unlock()

	if _, err := h.stores.Knowledge.DeleteExpired(cutoff); err != nil {
		return err
	}

	logging.Behavior("Cleaned up data older than %d days", daysOld)
	return nil
}
