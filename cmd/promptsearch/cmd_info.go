package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	var (
		dbPath string
		runs   int
	)

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show index status and recent refresh runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			out := cmd.OutOrStdout()

			path := dbPath
			if path == "" {
				p, err := resolveDBPath("")
				if err != nil {
					return err
				}
				path = p
			}

			st, err := openStoreReadOnly(ctx, dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			docs, err := st.CountDocs(ctx)
			if err != nil {
				return err
			}
			sessions, err := st.CountSessions(ctx)
			if err != nil {
				return err
			}
			ftsAvailable, err := st.FTSAvailable(ctx)
			if err != nil {
				return err
			}
			ftsReady, err := st.FTSIndexReady(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "database:      %s\n", path)
			fmt.Fprintf(out, "docs:          %d\n", docs)
			fmt.Fprintf(out, "sessions:      %d\n", sessions)
			fmt.Fprintf(out, "fts available: %v\n", ftsAvailable)
			fmt.Fprintf(out, "fts ready:     %v\n", ftsReady)

			recent, err := st.RecentRuns(ctx, runs)
			if err != nil {
				return err
			}
			if len(recent) == 0 {
				return nil
			}
			fmt.Fprintf(out, "\nrecent runs:\n")
			for _, r := range recent {
				fmt.Fprintf(out, "  %s  scanned=%d updated=%d docs=%d sessions=%d\n",
					r.StartedAt, r.FilesScanned, r.FilesUpdated, r.DocsInserted, r.SessionsUpserted)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "index database path (default: ~/.promptsearch/index.db)")
	cmd.Flags().IntVar(&runs, "runs", 5, "number of recent refresh runs to show")

	return cmd
}
