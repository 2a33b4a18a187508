package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// historyCmd reads the durable conversation audit trail for a pair of
// agents. Argument order does not matter; both directions share one
// conversation.
var historyCmd = &cobra.Command{
	Use:   "history <agent-a> <agent-b>",
	Short: "Show the conversation history between two agents",
	Args:  cobra.ExactArgs(2),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	h, _, err := openHub()
	if err != nil {
		return err
	}
	defer h.Close()

	messages, err := h.ConversationHistory(args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to read conversation: %w", err)
	}

	if len(messages) == 0 {
		fmt.Printf("No messages between %s and %s.\n", args[0], args[1])
		return nil
	}

	fmt.Printf("💬 Conversation: %s ↔ %s\n", args[0], args[1])
	fmt.Println(strings.Repeat("─", 50))
	for _, msg := range messages {
		fmt.Printf("  [%s] %s -> %s (%s)\n", msg.Timestamp.Format("2006-01-02 15:04:05"),
			msg.FromAgent, msg.ToAgent, msg.MessageType)
		fmt.Printf("      %s\n", msg.Content)
	}
	fmt.Println(strings.Repeat("─", 50))
	fmt.Printf("Total: %d messages\n", len(messages))

	return nil
}
