package services

import (
	"context"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driven"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driving"
	"github.com/marginalia-labs/marginalia-cli/internal/logger"
)

// Ensure SyncManager implements the interface.
var _ driving.SyncEngine = (*SyncManager)(nil)

// SyncManager drives one reconciliation pass: pull remote changes since a
// cursor, diff them against the caller's local snapshot, push the local
// side of the diff, and compute the next cursor. Each pass owns all of its
// state; distinct kinds may run passes concurrently without coordination.
type SyncManager struct {
	fetcher *Fetcher
	pusher  *Pusher
	config  domain.SyncConfig
}

// NewSyncManager creates a sync manager over a remote endpoint. The config
// is threaded explicitly; there is no ambient client state.
func NewSyncManager(remote driven.RemoteEndpoint, config domain.SyncConfig) *SyncManager {
	return &SyncManager{
		fetcher: NewFetcher(remote, config),
		pusher:  NewPusher(remote, config),
		config:  config,
	}
}

// RunOnce performs one pass. The report carries whatever was produced up
// to the failing stage: a pull failure returns the previous cursor
// unchanged so no progress is falsely claimed, and a push that partially
// failed still reports every per-item result.
func (m *SyncManager) RunOnce(
	ctx context.Context,
	kind domain.Kind,
	snapshot []domain.Record,
	cursor domain.Cursor,
) domain.Report {
	report := domain.Report{Kind: kind, Stage: domain.StageIdle, Cursor: cursor}

	// Pull.
	report.Stage = domain.StagePulling
	remote, pulledCursor, err := m.fetcher.Fetch(ctx, kind, cursor)
	report.Pulled = len(remote)
	if err != nil {
		logger.Warn("sync %s: pull failed after %d records: %v", kind, len(remote), err)
		report.Outcome = domain.OutcomeFailed
		report.Err = err
		return report
	}

	// Diff. Pure computation, no suspension.
	report.Stage = domain.StageDiffing
	queue, additions := diff(snapshot, remote)
	report.RemoteAdditions = additions
	logger.Info("sync %s: pulled %d, queued %d, remote additions %d",
		kind, len(remote), len(queue), len(additions))

	// Push.
	report.Stage = domain.StagePushing
	report.Results = m.pusher.Push(ctx, kind, queue)

	report.Stage = domain.StageCompleted
	report.Cursor = pulledCursor
	report.Outcome = classify(report.Results)
	if report.Outcome == domain.OutcomeFailed {
		report.Stage = domain.StagePushing
	}
	return report
}

// diff splits the reconciliation work: local records absent or stale on the
// remote side go onto the push queue in snapshot order; remote records
// missing locally are returned as additions for the caller to apply.
//
// A remote copy at the same watermark as the local one counts as fresh, so
// an at-least-once replay of the cursor never causes a redundant push.
func diff(snapshot, remote []domain.Record) (queue, additions []domain.Record) {
	remoteByID := make(map[string]domain.Record, len(remote))
	for _, r := range remote {
		if r.ID != "" {
			remoteByID[r.ID] = r
		}
	}

	localIDs := make(map[string]bool, len(snapshot))
	for _, local := range snapshot {
		if local.ID != "" {
			localIDs[local.ID] = true
		}

		if local.ID == "" {
			// Not yet created remotely.
			queue = append(queue, local)
			continue
		}
		remoteCopy, seen := remoteByID[local.ID]
		if !seen || local.UpdatedAt.After(remoteCopy.UpdatedAt) {
			queue = append(queue, local)
		}
	}

	for _, r := range remote {
		if r.ID == "" || !localIDs[r.ID] {
			additions = append(additions, r)
		}
	}
	return queue, additions
}

// classify maps per-item results onto a pass outcome. Never a bare
// boolean: a mix of failures and successes is Partial, and only a queue
// that failed in its entirety marks the pass Failed.
func classify(results []domain.PushResult) domain.Outcome {
	failed := 0
	for _, r := range results {
		if r.Status == domain.PushFailed {
			failed++
		}
	}
	switch {
	case failed == 0:
		return domain.OutcomeSucceeded
	case failed == len(results):
		return domain.OutcomeFailed
	default:
		return domain.OutcomePartial
	}
}
