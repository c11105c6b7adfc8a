package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/quill/internal/config"
	qserver "github.com/HendryAvila/quill/internal/server"
)

// newRootCmd creates the root quill command with all subcommands attached.
func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "quill",
		Short:         "Task-triage learning and voice scoring",
		Long:          "quill learns how you title and file tasks, and scores drafts against your writing voice.\nRun 'quill serve' to expose it as an MCP server over stdio or streamable HTTP.",
		Version:       fmt.Sprintf("quill v%s", qserver.Version),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $QUILL_CONFIG or ~/.quill/config.yaml)")

	load := func() (*config.Config, *slog.Logger, error) {
		return loadConfig(configPath)
	}

	cmd.AddCommand(
		newServeCmd(load),
		newScoreCmd(load),
		newSuggestCmd(load),
		newProfileCmd(load),
		newVersionCmd(),
	)
	return cmd
}

// loader resolves configuration for a subcommand at run time.
type loader func() (*config.Config, *slog.Logger, error)

// loadConfig reads and validates configuration. Logs always go to
// stderr; stdout belongs to the MCP transport or command output.
func loadConfig(path string) (*config.Config, *slog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, config.NewLogger(cfg, os.Stderr), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the quill version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "quill v%s\n", qserver.Version)
			return nil
		},
	}
}
