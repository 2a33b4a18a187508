// Package main: collective statistics dashboard.
package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// statsCmd prints the collective behavior analysis for a data directory.
//
// Communication counters and task state live in the process that hosts the
// hub, so a standalone invocation reports durable state only: knowledge
// totals, distribution, and any persisted collaborations.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collective behavior statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	h, cfg, err := openHub()
	if err != nil {
		return err
	}
	defer h.Close()

	report, err := h.AnalyzeCollectiveBehavior()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	logger.Debug("behavior analysis complete",
		zap.Int("knowledge_items", report.TotalKnowledgeItems),
		zap.Int("agents", report.RegisteredAgents))

	fmt.Printf("🧠 Collective Intelligence — %s\n", cfg.DataDir)
	fmt.Println(strings.Repeat("─", 50))
	fmt.Printf("  Registered agents:      %d\n", report.RegisteredAgents)
	fmt.Printf("  Knowledge items:        %d\n", report.TotalKnowledgeItems)
	fmt.Printf("  Communications:         %d\n", report.TotalCommunications)
	fmt.Printf("  Active collaborations:  %d\n", report.ActiveCollaborations)
	fmt.Printf("  Collaboration success:  %.0f%%\n", report.CollaborationSuccessRate*100)

	if len(report.KnowledgeDistribution) > 0 {
		fmt.Println(strings.Repeat("─", 50))
		fmt.Println("  Knowledge by agent:")
		agents := make([]string, 0, len(report.KnowledgeDistribution))
		for agent := range report.KnowledgeDistribution {
			agents = append(agents, agent)
		}
		sort.Strings(agents)
		for _, agent := range agents {
			byType := report.KnowledgeDistribution[agent]
			types := make([]string, 0, len(byType))
			for kt := range byType {
				types = append(types, kt)
			}
			sort.Strings(types)
			for _, kt := range types {
				fmt.Printf("    %s / %s: %d\n", agent, kt, byType[kt])
			}
		}
	}

	if len(report.EmergentBehaviors) > 0 {
		fmt.Println(strings.Repeat("─", 50))
		fmt.Println("  Emergent behaviors:")
		for _, b := range report.EmergentBehaviors {
			fmt.Printf("    • %s\n", b)
		}
	}
	fmt.Println(strings.Repeat("─", 50))

	return nil
}
