package main

import (
	"fmt"
	"os"
	"strings"

	"hivemind/internal/config"
	"hivemind/internal/hub"
	"hivemind/internal/types"

	"github.com/spf13/cobra"
)

// demoCmd runs a self-contained walkthrough of the hub against a throwaway
// data directory: three agents, a knowledge share, a relevance query, and a
// collaboration that completes.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a demonstration scenario against a temporary hub",
	RunE:  runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	dir, err := os.MkdirTemp("", "hivemind-demo-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	h, err := hub.New(config.DefaultConfig(dir))
	if err != nil {
		return err
	}
	defer h.Close()

	h.AddObserver(hub.ObserverFunc(func(e hub.Event) {
		fmt.Printf("  ⚡ event: %s %v\n", e.Type, e.Data)
	}))

	fmt.Println("🐝 hivemind demo")
	fmt.Println(strings.Repeat("─", 50))

	fmt.Println("Registering agents...")
	h.RegisterAgent("jasper", []string{"coordination", "analysis", "workshop_management"}, nil)
	h.RegisterAgent("midas", []string{"financial_analysis", "investment", "market_research"}, nil)
	h.RegisterAgent("aiven", []string{"creative_analysis", "symbolic_interpretation", "art"}, nil)

	fmt.Println("Sharing knowledge...")
	if _, err := h.ShareKnowledge("midas", "insight",
		"Diversification reduces risk", 0.9, []string{"portfolio", "risk"}); err != nil {
		return err
	}

	fmt.Println("Querying relevant knowledge for jasper...")
	items, err := h.RelevantKnowledge("jasper", "I need risk advice", 5)
	if err != nil {
		return err
	}
	for _, item := range items {
		fmt.Printf("  • [%s] %s (confidence %.1f)\n", item.SourceAgent, item.Content, item.ConfidenceLevel)
	}

	fmt.Println("Starting collaboration...")
	taskID, err := h.StartCollaboration("jasper",
		"Analyze the impact of AI on traditional art markets",
		[]string{"financial_analysis", "creative_analysis"})
	if err != nil {
		return err
	}
	status := h.CollaborationStatus(taskID)
	fmt.Printf("  task %s with participants %v\n", taskID, status.ParticipatingAgents)

	contributions := []struct {
		agent, content, ctype string
	}{
		{"midas", "AI art tools compress production costs; expect margin pressure on mid-tier galleries.", "financial"},
		{"aiven", "Scarcity of the hand-made gains symbolic weight as generation becomes cheap.", "creative"},
		{"jasper", "Synthesis: reposition workshops toward provenance and process, not output volume.", "coordination"},
	}
	for _, c := range contributions {
		if _, err := h.Contribute(taskID, c.agent, c.content, c.ctype); err != nil {
			return err
		}
	}

	status = h.CollaborationStatus(taskID)
	fmt.Printf("Collaboration status: %s\n", status.Status)
	if status.FinalResult != nil {
		fmt.Println(strings.Repeat("─", 50))
		fmt.Println(*status.FinalResult)
		fmt.Println(strings.Repeat("─", 50))
	}

	for _, agent := range []string{"midas", "aiven"} {
		msgs := h.Messages(agent, nil)
		fmt.Printf("%s received %d hub notifications\n", agent, countFrom(msgs, types.HubAgent))
	}

	report, err := h.AnalyzeCollectiveBehavior()
	if err != nil {
		return err
	}
	fmt.Printf("Collective: %d agents, %d knowledge items, %d communications, success rate %.0f%%\n",
		report.RegisteredAgents, report.TotalKnowledgeItems,
		report.TotalCommunications, report.CollaborationSuccessRate*100)
	for _, b := range report.EmergentBehaviors {
		fmt.Printf("  • %s\n", b)
	}

	return nil
}

func countFrom(msgs []types.AgentMessage, from string) int {
	n := 0
	for _, msg := range msgs {
		if msg.FromAgent == from {
			n++
		}
	}
	return n
}
