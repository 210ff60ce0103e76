package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driving"
	"github.com/marginalia-labs/marginalia-cli/internal/core/services"
	"github.com/marginalia-labs/marginalia-cli/internal/logger"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run sync passes on a schedule until interrupted",
	Long: `Starts the background poller: a sync pass runs for every kind at a
fixed interval, the interval backing off after failures and resetting on
success. The cursor is persisted after every pass.

With --watch, changes to the snapshot file trigger an immediate pass
instead of waiting for the next tick.

Stop with Ctrl-C; a pass already underway is allowed to finish.`,
	RunE: runPoll,
}

// Flags for poll.
var (
	pollWatch bool
	pollKind  string
)

func init() {
	pollCmd.Flags().BoolVar(&pollWatch, "watch", false, "Trigger a pass when the snapshot file changes")
	pollCmd.Flags().StringVar(&pollKind, "kind", "all", "Record kind to poll (highlight, document, all)")

	rootCmd.AddCommand(pollCmd)
}

func runPoll(cmd *cobra.Command, _ []string) error {
	if err := setupEngine(); err != nil {
		return err
	}
	if err := setupStorage(); err != nil {
		return err
	}
	if err := setupSnapshot(""); err != nil {
		return err
	}

	kinds, err := kindsFromFlag(pollKind)
	if err != nil {
		return err
	}

	poller := services.NewPoller(
		syncEngine, cursorStore, snapshotSource, passHistory, kinds, pollConfig())
	poller.OnPass(func(report domain.Report) {
		printReport(cmd, report)
	})
	poller.OnError(func(err error) {
		logger.Error("pass failed: %v", err)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := poller.Start(ctx); err != nil {
		return fmt.Errorf("starting poller: %w", err)
	}
	defer poller.Stop()

	cmd.Printf("Polling every %s. Press Ctrl-C to stop.\n", pollConfig().Interval)

	if pollWatch {
		watcher, err := watchSnapshot(poller)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	<-ctx.Done()
	cmd.Println("\nStopping...")
	return nil
}

// watchSnapshot triggers an immediate pass whenever the snapshot file is
// written. The parent directory is watched because editors typically
// replace the file rather than write it in place.
func watchSnapshot(poller driving.Poller) (*fsnotify.Watcher, error) {
	pathed, ok := snapshotSource.(interface{ Path() string })
	if !ok {
		return nil, fmt.Errorf("snapshot source does not expose a file path")
	}
	path := pathed.Path()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					logger.Debug("snapshot changed, triggering pass")
					poller.TriggerNow()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher error: %v", err)
			}
		}
	}()

	return watcher, nil
}
