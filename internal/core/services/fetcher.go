package services

import (
	"context"
	"fmt"
	"time"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driven"
	"github.com/marginalia-labs/marginalia-cli/internal/logger"
)

// Fetcher walks the remote's cursor-based listing endpoint page by page.
// Pages are idempotent reads, so a transient failure retries the same page;
// when retries are exhausted the last fully-consumed cursor is surfaced so
// the pull can resume later without dropping pages.
type Fetcher struct {
	remote driven.RemoteEndpoint
	config domain.SyncConfig
}

// NewFetcher creates a fetcher over a remote endpoint.
func NewFetcher(remote driven.RemoteEndpoint, config domain.SyncConfig) *Fetcher {
	return &Fetcher{remote: remote, config: config}
}

// EachPage pulls pages starting at cursor and hands each one to fn,
// advancing the cursor after every page. It stops when the remote reports
// no further page, fn returns an error, or a page fails past the retry
// budget. The returned cursor reflects exactly the pages fn consumed.
func (f *Fetcher) EachPage(
	ctx context.Context,
	kind domain.Kind,
	cursor domain.Cursor,
	fn func(driven.Page) error,
) (domain.Cursor, error) {
	current := cursor

	for {
		var page driven.Page
		err := retryCall(ctx, f.config, fmt.Sprintf("list %s", kind), func() error {
			var callErr error
			page, callErr = f.remote.List(ctx, kind, current)
			return callErr
		})
		if err != nil {
			return current, &domain.PullError{Kind: kind, Cursor: current, Cause: err}
		}

		if err := fn(page); err != nil {
			return current, err
		}

		current = current.Advance(page.NextToken, pageWatermark(page))
		logger.Debug("list %s: %d records, next=%q", kind, len(page.Records), page.NextToken)

		if page.NextToken == "" {
			return current, nil
		}
	}
}

// Fetch pulls everything of the given kind since cursor into memory.
// On failure the records gathered so far are returned alongside the
// resumable cursor inside the *domain.PullError.
func (f *Fetcher) Fetch(
	ctx context.Context,
	kind domain.Kind,
	cursor domain.Cursor,
) ([]domain.Record, domain.Cursor, error) {
	var records []domain.Record
	final, err := f.EachPage(ctx, kind, cursor, func(page driven.Page) error {
		records = append(records, page.Records...)
		return nil
	})
	return records, final, err
}

// pageWatermark returns the highest UpdatedAt on the page.
func pageWatermark(page driven.Page) (mark time.Time) {
	for _, r := range page.Records {
		if r.UpdatedAt.After(mark) {
			mark = r.UpdatedAt
		}
	}
	return mark
}
