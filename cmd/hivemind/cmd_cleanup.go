package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupDays int

// cleanupCmd prunes old hub data. Knowledge items only qualify when they
// carry an explicit expiry date; permanent items survive regardless of age.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired knowledge and stale queued messages",
	RunE:  runCleanup,
}

func runCleanup(cmd *cobra.Command, args []string) error {
	h, cfg, err := openHub()
	if err != nil {
		return err
	}
	defer h.Close()

	days := cleanupDays
	if days <= 0 {
		days = cfg.Hub.DefaultRetentionDays
	}

	if err := h.CleanupOldData(days); err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	fmt.Printf("🧹 Cleaned up data older than %d days in %s\n", days, cfg.DataDir)
	return nil
}
