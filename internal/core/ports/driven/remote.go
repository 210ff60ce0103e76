package driven

import (
	"context"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
)

// Page is one page of a listing call.
type Page struct {
	// Records are the page's records in remote order.
	Records []domain.Record

	// NextToken is the token for the following page. Empty when the
	// remote reports no further page.
	NextToken string
}

// ItemOutcome is the remote's verdict on one record of a group write,
// aligned by position with the submitted group.
type ItemOutcome struct {
	// Status is created or updated on success, failed on a per-item
	// validation rejection.
	Status domain.PushStatus

	// ID is the remote identifier assigned or confirmed for the record.
	ID string

	// Err describes a per-item rejection. Nil on success.
	Err error
}

// RemoteEndpoint is the engine's view of the remote service. Every call can
// fail with the transport taxonomy: *domain.TransientError,
// *domain.RateLimitError or *domain.FatalError. The endpoint itself never
// retries; retry policy lives in core services so batch bookkeeping stays
// correct.
type RemoteEndpoint interface {
	// List returns one page of records of the given kind at the cursor.
	// Pages are idempotent reads: repeating a List with the same cursor
	// is safe.
	List(ctx context.Context, kind domain.Kind, cursor domain.Cursor) (Page, error)

	// CreateOrUpdate submits a group of records in order and returns one
	// outcome per record, aligned by position. A group-level failure is
	// returned as an error; per-item rejections come back as failed
	// outcomes without affecting the rest of the group.
	CreateOrUpdate(ctx context.Context, kind domain.Kind, group []domain.Record) ([]ItemOutcome, error)
}
