package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driven"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync pass against the service",
	Long: `Runs a single reconciliation pass: pulls remote changes since the last
run, compares them with the local snapshot, and pushes local additions and
edits in batches. The cursor is persisted so the next run continues where
this one stopped.

Examples:
  # Sync highlights and documents from the configured snapshot
  marginalia sync

  # Sync a specific snapshot file
  marginalia sync --input ./snapshot.json

  # Sync only highlights, starting over from the beginning
  marginalia sync --kind highlight --full`,
	RunE: runSync,
}

// Flags for sync.
var (
	syncInput string
	syncKind  string
	syncFull  bool
)

func init() {
	syncCmd.Flags().StringVar(&syncInput, "input", "", "Snapshot file to sync from")
	syncCmd.Flags().StringVar(&syncKind, "kind", "all", "Record kind to sync (highlight, document, all)")
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "Discard the saved cursor and pull from the beginning")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if err := setupEngine(); err != nil {
		return err
	}
	if err := setupStorage(); err != nil {
		return err
	}
	if err := setupSnapshot(syncInput); err != nil {
		return err
	}

	kinds, err := kindsFromFlag(syncKind)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var failed bool
	for _, kind := range kinds {
		report, err := syncOne(ctx, cmd, kind)
		if err != nil {
			return err
		}
		if report.Outcome == domain.OutcomeFailed {
			failed = true
		}
	}

	if failed {
		return errors.New("sync failed")
	}
	return nil
}

// syncOne runs a pass for one kind and persists its cursor and history.
func syncOne(ctx context.Context, cmd *cobra.Command, kind domain.Kind) (domain.Report, error) {
	cursor, err := loadCursor(ctx, kind)
	if err != nil {
		return domain.Report{}, err
	}

	snapshot, err := snapshotSource.Snapshot(ctx, kind)
	if err != nil {
		return domain.Report{}, fmt.Errorf("reading %s snapshot: %w", kind, err)
	}

	cmd.Printf("Syncing %ss (%d local)...\n", kind, len(snapshot))
	started := time.Now().UTC()
	report := syncEngine.RunOnce(ctx, kind, snapshot, cursor)
	ended := time.Now().UTC()

	if err := cursorStore.Save(ctx, kind, report.Cursor); err != nil {
		return report, fmt.Errorf("saving %s cursor: %w", kind, err)
	}
	if err := passHistory.RecordPass(ctx, passRecordFrom(report, started, ended)); err != nil {
		return report, fmt.Errorf("recording %s pass: %w", kind, err)
	}

	printReport(cmd, report)
	return report, nil
}

// loadCursor fetches the saved cursor, starting fresh when none exists,
// when it cannot be decoded, or when --full was given.
func loadCursor(ctx context.Context, kind domain.Kind) (domain.Cursor, error) {
	if syncFull {
		if err := cursorStore.Delete(ctx, kind); err != nil {
			return domain.Cursor{}, fmt.Errorf("resetting %s cursor: %w", kind, err)
		}
		return domain.NewCursor(), nil
	}

	cursor, err := cursorStore.Load(ctx, kind)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.NewCursor(), nil
	case errors.Is(err, domain.ErrInvalidCursor):
		return domain.NewCursor(), nil
	case err != nil:
		return domain.Cursor{}, fmt.Errorf("loading %s cursor: %w", kind, err)
	}
	return cursor, nil
}

// printReport writes a one-pass summary.
func printReport(cmd *cobra.Command, report domain.Report) {
	switch report.Outcome {
	case domain.OutcomeSucceeded:
		cmd.Printf("  %s: pulled %d, created %d, updated %d, skipped %d\n",
			report.Kind, report.Pulled, report.Created(), report.Updated(), report.Skipped())
	case domain.OutcomePartial:
		cmd.Printf("  %s: partial - pulled %d, created %d, updated %d, skipped %d, failed %d\n",
			report.Kind, report.Pulled, report.Created(), report.Updated(),
			report.Skipped(), report.Failed())
	case domain.OutcomeFailed:
		cmd.Printf("  %s: failed during %s: %v\n", report.Kind, report.Stage, report.Err)
	}

	if n := len(report.RemoteAdditions); n > 0 {
		cmd.Printf("  %s: %d remote record(s) not in the local snapshot\n", report.Kind, n)
	}

	for _, result := range report.Results {
		for _, field := range result.Truncation.TruncatedFields() {
			cut := result.Truncation[field]
			cmd.Printf("  %s %s: field %s cut to %d characters (%d removed)\n",
				report.Kind, result.ID, field, cut.TruncatedLength, cut.CharsRemoved())
		}
	}
}

// passRecordFrom flattens a report into a history entry.
func passRecordFrom(report domain.Report, started, ended time.Time) driven.PassRecord {
	record := driven.PassRecord{
		Kind:      report.Kind,
		Outcome:   report.Outcome,
		Stage:     report.Stage,
		StartedAt: started,
		EndedAt:   ended,
		Pulled:    report.Pulled,
		Created:   report.Created(),
		Updated:   report.Updated(),
		Skipped:   report.Skipped(),
		Failed:    report.Failed(),
	}
	if report.Err != nil {
		record.Error = report.Err.Error()
	}
	return record
}

// kindsFromFlag parses the --kind flag.
func kindsFromFlag(flag string) ([]domain.Kind, error) {
	switch flag {
	case "all", "":
		return []domain.Kind{domain.KindHighlight, domain.KindDocument}, nil
	case string(domain.KindHighlight):
		return []domain.Kind{domain.KindHighlight}, nil
	case string(domain.KindDocument):
		return []domain.Kind{domain.KindDocument}, nil
	default:
		return nil, fmt.Errorf("unknown kind %q (expected highlight, document, or all)", flag)
	}
}
