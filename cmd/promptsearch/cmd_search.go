package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"promptsearch/pkg/ingest"
	"promptsearch/pkg/render"
	"promptsearch/pkg/search"
)

// newSearchCmd creates the "promptsearch search" subcommand.
func newSearchCmd() *cobra.Command {
	var (
		dbPath           string
		sessionsDir      string
		limit            int
		includeAssistant bool
		includeInternal  bool
		sortMode         string
		contextLines     int
		fullText         bool
		format           string
		jsonOut          bool
		color            string
		autoRefresh      bool
		noReindex        bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search ingested prompts",
		Long: `Search the index by keyword.

Ranked full-text search is used when the index is available and fresh;
otherwise results come from a case-insensitive substring scan and the
output is tagged accordingly.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			query := strings.Join(args, " ")

			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			cfg, err := loadConfig(paths.ConfigPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.Limit
			}
			if !cmd.Flags().Changed("format") {
				format = cfg.Format
			}
			if !cmd.Flags().Changed("color") {
				color = cfg.Color
			}
			if jsonOut {
				format = render.FormatJSON
			}
			if !render.ValidFormat(format) {
				return fmt.Errorf("unknown format %q", format)
			}
			if sortMode != string(search.SortRelevance) && sortMode != string(search.SortRecent) {
				return fmt.Errorf("unknown sort %q (want relevance or recent)", sortMode)
			}

			if autoRefresh {
				sdir, err := resolveSessionsDir(sessionsDir)
				if err != nil {
					return err
				}
				st, err := openStore(ctx, dbPath)
				if err != nil {
					return err
				}
				_, err = ingest.Refresh(ctx, st, ingest.Options{
					SessionsDir:      sdir,
					Reindex:          !noReindex,
					IncludeAssistant: true,
					IncludeInternal:  true,
				})
				_ = st.Close()
				if err != nil {
					return fmt.Errorf("auto-refresh: %w", err)
				}
			}

			st, err := openStoreReadOnly(ctx, dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			results, mode, err := search.Run(ctx, st, query, search.Options{
				Limit:            limit,
				IncludeAssistant: includeAssistant,
				IncludeInternal:  includeInternal,
				Sort:             search.Sort(sortMode),
				IncludeText:      fullText,
				ContextLines:     contextLines,
			})
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			useColor := render.ResolveColor(color, isatty.IsTerminal(os.Stdout.Fd()))
			return render.Results(cmd.OutOrStdout(), results, mode, query, format, useColor)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "index database path (default: ~/.promptsearch/index.db)")
	cmd.Flags().StringVar(&sessionsDir, "sessions-dir", "", "used with --auto-refresh")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of results")
	cmd.Flags().BoolVar(&includeAssistant, "include-assistant", false, "include assistant messages")
	cmd.Flags().BoolVar(&includeInternal, "include-internal", false, "include internal events")
	cmd.Flags().StringVar(&sortMode, "sort", string(search.SortRelevance), "result order: relevance or recent")
	cmd.Flags().IntVar(&contextLines, "context", 0, "lines of context around the match instead of a snippet")
	cmd.Flags().BoolVar(&fullText, "full-text", false, "include the full document text in JSON output")
	cmd.Flags().StringVar(&format, "format", render.FormatTable, "output format: table, text, json, markdown")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "shorthand for --format json")
	cmd.Flags().StringVar(&color, "color", render.ColorAuto, "color output: auto, always, never")
	cmd.Flags().BoolVar(&autoRefresh, "auto-refresh", false, "run refresh before searching")
	cmd.Flags().BoolVar(&noReindex, "no-reindex", false, "skip index rebuild with --auto-refresh")

	return cmd
}
