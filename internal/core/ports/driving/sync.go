package driving

import (
	"context"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
)

// SyncEngine runs reconciliation passes between a local snapshot and the
// remote collection of one record kind.
type SyncEngine interface {
	// RunOnce performs one pass: pull remote changes since the cursor,
	// diff against the snapshot, push local changes, and compute the new
	// cursor. The report always carries whatever results were gathered,
	// even when a stage failed. RunOnce blocks until the pass finishes;
	// callers wanting concurrency run passes for distinct kinds in their
	// own goroutines.
	RunOnce(ctx context.Context, kind domain.Kind, snapshot []domain.Record, cursor domain.Cursor) domain.Report
}
