package main

import (
	"context"
	"fmt"

	"promptsearch/pkg/ingest"

	"github.com/spf13/cobra"
)

// newRefreshCmd creates the "promptsearch refresh" subcommand.
func newRefreshCmd() *cobra.Command {
	var (
		sessionsDir      string
		dbPath           string
		full             bool
		reindex          bool
		includeAssistant bool
		includeInternal  bool
		verbose          bool
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Ingest new session log records into the index",
		Long: `Incrementally ingest session logs into the local index.

Only the appended portion of each log file is read; cursors track the
last ingested byte offset per file. Use --full to drop all ingested data
and re-ingest everything from scratch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			sdir, err := resolveSessionsDir(sessionsDir)
			if err != nil {
				return err
			}

			st, err := openStore(ctx, dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := ingest.Refresh(ctx, st, ingest.Options{
				SessionsDir:      sdir,
				Full:             full,
				Reindex:          reindex,
				IncludeAssistant: includeAssistant,
				IncludeInternal:  includeInternal,
				Verbose:          verbose,
			})
			if err != nil {
				return fmt.Errorf("refresh: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), stats.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionsDir, "sessions-dir", "", "session logs directory (default: ~/.codex/sessions)")
	cmd.Flags().StringVar(&dbPath, "db", "", "index database path (default: ~/.promptsearch/index.db)")
	cmd.Flags().BoolVar(&full, "full", false, "drop all ingested data and re-ingest everything")
	cmd.Flags().BoolVar(&reindex, "reindex", true, "rebuild the full-text index after ingest")
	cmd.Flags().BoolVar(&includeAssistant, "include-assistant", true, "ingest assistant messages")
	cmd.Flags().BoolVar(&includeInternal, "include-internal", true, "ingest internal events")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "verbose per-file output")

	return cmd
}

// resolveSessionsDir applies flag > config > env/default precedence.
func resolveSessionsDir(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	paths, err := ResolvePaths()
	if err != nil {
		return "", fmt.Errorf("resolve paths: %w", err)
	}
	cfg, err := loadConfig(paths.ConfigPath)
	if err != nil {
		return "", err
	}
	if cfg.SessionsDir != "" {
		return cfg.SessionsDir, nil
	}
	return paths.SessionsDir, nil
}
