// Package main implements the hivemind CLI: inspection and maintenance
// commands for a collective intelligence hub data directory.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"hivemind/internal/config"
	"hivemind/internal/hub"
	"hivemind/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose     bool
	dataDirFlag string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hivemind",
	Short: "hivemind - Collective intelligence hub for multi-agent systems",
	Long: `hivemind is the coordination layer for a collective of AI agents.

Agents register capabilities, share knowledge, exchange messages, and run
collaborative tasks through a single hub backed by SQLite stores. This CLI
inspects and maintains a hub data directory; the hub itself is embedded as
a library by whatever serves the agents.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Initialize(resolveDataDir()); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// resolveDataDir picks the hub data directory: flag, then environment,
// then ~/.hivemind.
func resolveDataDir() string {
	if dataDirFlag != "" {
		return dataDirFlag
	}
	if env := os.Getenv("HIVEMIND_DATA_DIR"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hivemind"
	}
	return filepath.Join(home, ".hivemind")
}

// openHub loads the configuration and opens the hub's stores.
func openHub() (*hub.Hub, *config.Config, error) {
	cfg, err := config.Load(resolveDataDir())
	if err != nil {
		return nil, nil, err
	}
	h, err := hub.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open hub at %s: %w", cfg.DataDir, err)
	}
	return h, cfg, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&dataDirFlag, "data-dir", "d", "", "Hub data directory (default: ~/.hivemind, or HIVEMIND_DATA_DIR)")

	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "Retention window in days (default: configured retention)")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(demoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
