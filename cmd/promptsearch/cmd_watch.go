package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"promptsearch/pkg/ingest"
)

const watchDebounce = 500 * time.Millisecond

func newWatchCmd() *cobra.Command {
	var (
		dbPath      string
		sessionsDir string
		noReindex   bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the sessions directory and refresh on changes",
		Long: `Watch the sessions directory for new or modified log files and run an
incremental refresh after each burst of changes. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sdir, err := resolveSessionsDir(sessionsDir)
			if err != nil {
				return err
			}
			if _, err := os.Stat(sdir); err != nil {
				return fmt.Errorf("sessions dir: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer watcher.Close()

			if err := watchTree(watcher, sdir); err != nil {
				return err
			}

			opts := ingest.Options{
				SessionsDir:      sdir,
				Reindex:          !noReindex,
				IncludeAssistant: true,
				IncludeInternal:  true,
				Verbose:          verbose,
			}

			// Initial catch-up pass before waiting on events.
			stats, err := ingest.Refresh(ctx, st, opts)
			if err != nil {
				return fmt.Errorf("refresh: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), stats.String())

			debounce := newDebounceTimer()
			defer debounce.Stop()

			for {
				select {
				case <-ctx.Done():
					return nil

				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					// New subdirectories must be added to the watch set;
					// sessions are laid out by date under the root.
					if event.Op.Has(fsnotify.Create) {
						if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
							if err := watchTree(watcher, event.Name); err != nil {
								log.Printf("watch %s: %v", event.Name, err)
							}
						}
					}
					resetDebounceTimer(debounce, watchDebounce)

				case <-debounce.C:
					stats, err := ingest.Refresh(ctx, st, opts)
					if err != nil {
						log.Printf("refresh: %v", err)
						continue
					}
					if stats.FilesUpdated > 0 || verbose {
						fmt.Fprintln(cmd.OutOrStdout(), stats.String())
					}

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					log.Printf("watcher error: %v", err)
				}
			}
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "index database path (default: ~/.promptsearch/index.db)")
	cmd.Flags().StringVar(&sessionsDir, "sessions-dir", "", "directory containing session logs")
	cmd.Flags().BoolVar(&noReindex, "no-reindex", false, "skip index rebuild after each refresh")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "report every refresh, not just ones with changes")

	return cmd
}

// watchTree adds root and every directory beneath it to the watcher.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}

// newDebounceTimer returns a stopped timer ready for reset.
func newDebounceTimer() *time.Timer {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	return timer
}

func resetDebounceTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}
