package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newTuiCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive search",
		Long: `Open an interactive prompt that searches the index as you type.
Arrow keys move the selection, enter prints the selected document, and
esc or ctrl+c exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			st, err := openStoreReadOnly(ctx, dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			m := newTuiModel(st, limit)
			final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			if err != nil {
				return fmt.Errorf("tui: %w", err)
			}
			if fm, ok := final.(tuiModel); ok && fm.chosen != "" {
				fmt.Fprintln(cmd.OutOrStdout(), fm.chosen)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "index database path (default: ~/.promptsearch/index.db)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of results per query")

	return cmd
}
