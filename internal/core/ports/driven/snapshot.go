package driven

import (
	"context"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
)

// SnapshotSource supplies the caller's local records for a kind at the
// start of a pass. The engine never writes to local storage; remote
// additions are handed back on the report for the caller to apply.
type SnapshotSource interface {
	// Snapshot returns the current local records of a kind.
	Snapshot(ctx context.Context, kind domain.Kind) ([]domain.Record, error)
}
