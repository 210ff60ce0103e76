package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync progress and recent passes",
	Long: `Shows how far each record kind has been synced and the outcome of
recent passes.`,
	RunE: runStatus,
}

// Flags for status.
var statusLimit int

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 5, "Number of recent passes to show per kind")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := setupStorage(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	for _, kind := range []domain.Kind{domain.KindHighlight, domain.KindDocument} {
		if err := printKindStatus(ctx, cmd, kind); err != nil {
			return err
		}
	}
	return nil
}

func printKindStatus(ctx context.Context, cmd *cobra.Command, kind domain.Kind) error {
	cmd.Printf("%ss:\n", kind)

	cursor, err := cursorStore.Load(ctx, kind)
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidCursor):
		cmd.Println("  never synced")
	case err != nil:
		return fmt.Errorf("loading %s cursor: %w", kind, err)
	case cursor.Watermark.IsZero():
		cmd.Println("  synced, no remote changes observed yet")
	default:
		cmd.Printf("  synced through %s\n", cursor.Watermark.Format(time.RFC3339))
	}

	passes, err := passHistory.RecentPasses(ctx, kind, statusLimit)
	if err != nil {
		return fmt.Errorf("loading %s history: %w", kind, err)
	}
	for _, pass := range passes {
		line := fmt.Sprintf("  %s  %-9s pulled %d, created %d, updated %d, skipped %d, failed %d",
			pass.StartedAt.Format("2006-01-02 15:04:05"), pass.Outcome,
			pass.Pulled, pass.Created, pass.Updated, pass.Skipped, pass.Failed)
		if pass.Error != "" {
			line += "  (" + pass.Error + ")"
		}
		cmd.Println(line)
	}
	if len(passes) == 0 {
		cmd.Println("  no passes recorded")
	}
	return nil
}
