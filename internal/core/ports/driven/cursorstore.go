package driven

import (
	"context"
	"time"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
)

// CursorStore persists sync cursors between poller runs, one per record
// kind. Load returns domain.ErrNotFound when no cursor has been saved yet.
type CursorStore interface {
	// Load retrieves the persisted cursor for a kind.
	Load(ctx context.Context, kind domain.Kind) (domain.Cursor, error)

	// Save stores or replaces the cursor for a kind.
	Save(ctx context.Context, kind domain.Kind, cursor domain.Cursor) error

	// Delete removes the cursor for a kind.
	Delete(ctx context.Context, kind domain.Kind) error
}

// PassRecord is one entry of the pass history.
type PassRecord struct {
	Kind      domain.Kind
	Outcome   domain.Outcome
	Stage     domain.Stage
	StartedAt time.Time
	EndedAt   time.Time
	Pulled    int
	Created   int
	Updated   int
	Skipped   int
	Failed    int
	Error     string
}

// PassHistory records completed passes for inspection. Implementations
// bound the retained history.
type PassHistory interface {
	// RecordPass appends one pass record.
	RecordPass(ctx context.Context, record PassRecord) error

	// RecentPasses returns up to limit records for a kind, most recent
	// first.
	RecentPasses(ctx context.Context, kind domain.Kind, limit int) ([]PassRecord, error)
}
