package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"promptsearch/pkg/render"
)

func newSessionsCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
		format string
		color  string
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List ingested sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			cfg, err := loadConfig(paths.ConfigPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") {
				format = cfg.Format
			}
			if !cmd.Flags().Changed("color") {
				color = cfg.Color
			}
			if !render.ValidFormat(format) {
				return fmt.Errorf("unknown format %q", format)
			}

			st, err := openStoreReadOnly(ctx, dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := st.ListSessions(ctx, limit)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			useColor := render.ResolveColor(color, isatty.IsTerminal(os.Stdout.Fd()))
			return render.Sessions(cmd.OutOrStdout(), rows, format, useColor)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "index database path (default: ~/.promptsearch/index.db)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of sessions")
	cmd.Flags().StringVar(&format, "format", render.FormatTable, "output format: table, text, json, markdown")
	cmd.Flags().StringVar(&color, "color", render.ColorAuto, "color output: auto, always, never")

	return cmd
}
