package services

import (
	"context"
	"fmt"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driven"
	"github.com/marginalia-labs/marginalia-cli/internal/logger"
)

// Pusher submits grouped writes to the remote. Input order is preserved:
// the result slice is always the same length as the input and result[i]
// describes input[i], however the records were partitioned internally.
type Pusher struct {
	remote driven.RemoteEndpoint
	config domain.SyncConfig
}

// NewPusher creates a pusher over a remote endpoint.
func NewPusher(remote driven.RemoteEndpoint, config domain.SyncConfig) *Pusher {
	return &Pusher{remote: remote, config: config}
}

// batchJob tracks one push invocation: which input positions go into which
// group, plus the accumulating results. It lives only for the duration of
// the Push call and is never shared.
type batchJob struct {
	records []domain.Record
	results []domain.PushResult

	// keyDone marks idempotency keys that already produced a Created or
	// Updated result earlier in this push.
	keyDone map[string]bool
}

// Push submits records in groups no larger than the configured batch size.
// Per item it applies the truncation limits, resolves duplicates of an
// already-succeeded idempotency key to Skipped without a network call, and
// maps the remote's per-item outcomes back onto input positions. A
// group-level transport failure retries the whole group; only when retries
// are exhausted does that one group collapse to Failed for every member.
func (p *Pusher) Push(ctx context.Context, kind domain.Kind, records []domain.Record) []domain.PushResult {
	job := &batchJob{
		records: records,
		results: make([]domain.PushResult, len(records)),
		keyDone: make(map[string]bool),
	}

	batchSize := p.config.BatchSize
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}

	// Walk the input in order, assembling groups of unresolved records.
	group := make([]int, 0, batchSize)
	flush := func() {
		if len(group) > 0 {
			p.pushGroup(ctx, kind, job, group)
			group = group[:0]
		}
	}

	for i, record := range records {
		key := record.IdempotencyKey
		if record.ID == "" && key != "" {
			if job.keyDone[key] || pendingInGroup(records, group, key) {
				job.results[i] = domain.PushResult{
					Status:     domain.PushSkipped,
					SkipReason: domain.SkipReasonDuplicate,
				}
				continue
			}
		}

		group = append(group, i)
		if len(group) == batchSize {
			flush()
		}
	}
	flush()

	return job.results
}

// pendingInGroup reports whether an unsent record in the current group
// already claims the idempotency key. Two copies of one key never travel in
// the same remote call.
func pendingInGroup(records []domain.Record, group []int, key string) bool {
	for _, idx := range group {
		if records[idx].ID == "" && records[idx].IdempotencyKey == key {
			return true
		}
	}
	return false
}

// pushGroup truncates, submits and resolves one group. group holds input
// positions; results are written back by position.
func (p *Pusher) pushGroup(ctx context.Context, kind domain.Kind, job *batchJob, group []int) {
	prepared := make([]domain.Record, len(group))
	truncations := make([]domain.TruncationInfo, len(group))
	for n, idx := range group {
		prepared[n], truncations[n] = domain.Truncate(job.records[idx], p.config.Limits)
	}

	var outcomes []driven.ItemOutcome
	err := retryCall(ctx, p.config, fmt.Sprintf("push %s group", kind), func() error {
		var callErr error
		outcomes, callErr = p.remote.CreateOrUpdate(ctx, kind, prepared)
		return callErr
	})

	if err == nil && len(outcomes) != len(group) {
		err = &domain.FatalError{
			Cause: fmt.Errorf("remote returned %d outcomes for %d records", len(outcomes), len(group)),
		}
	}
	if err != nil {
		logger.Warn("push %s: group of %d failed: %v", kind, len(group), err)
		for n, idx := range group {
			job.results[idx] = domain.PushResult{
				Status:     domain.PushFailed,
				Err:        err,
				Truncation: truncations[n],
			}
		}
		return
	}

	for n, idx := range group {
		outcome := outcomes[n]
		result := domain.PushResult{
			Status:     outcome.Status,
			ID:         outcome.ID,
			Err:        outcome.Err,
			Truncation: truncations[n],
		}
		if !result.Truncation.Empty() {
			logger.Debug("push %s: truncated fields %v on %s",
				kind, result.Truncation.TruncatedFields(), job.records[idx].Identity())
		}
		job.results[idx] = result

		if result.Succeeded() {
			if key := job.records[idx].IdempotencyKey; key != "" {
				job.keyDone[key] = true
			}
		}
	}
}
