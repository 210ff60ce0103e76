package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driven"
)

func newHighlight(key, text string) domain.Record {
	return domain.Record{
		Kind:           domain.KindHighlight,
		IdempotencyKey: key,
		Fields:         map[string]string{"text": text},
	}
}

func TestPushResultsAlignWithInput(t *testing.T) {
	remote := &mockRemote{
		pushFn: func(_ int, group []domain.Record) ([]driven.ItemOutcome, error) {
			return okOutcomes(group), nil
		},
	}
	cfg := fastSync()
	cfg.BatchSize = 2
	pusher := NewPusher(remote, cfg)

	records := []domain.Record{
		newHighlight("k1", "one"),
		newHighlight("k2", "two"),
		newHighlight("k3", "three"),
		newHighlight("k4", "four"),
		newHighlight("k5", "five"),
	}

	results := pusher.Push(context.Background(), domain.KindHighlight, records)

	require.Len(t, results, len(records))
	for i, result := range results {
		assert.Equal(t, domain.PushCreated, result.Status, "result %d", i)
		assert.Equal(t, "assigned-"+records[i].IdempotencyKey, result.ID, "result[i] corresponds to input[i]")
	}
	// Partitioned into 2+2+1 while preserving order.
	require.Equal(t, 3, remote.pushCalls)
	assert.Len(t, remote.pushSeen[0], 2)
	assert.Len(t, remote.pushSeen[2], 1)
	assert.Equal(t, "k3", remote.pushSeen[1][0].IdempotencyKey)
}

func TestPushPerItemFailureIsolation(t *testing.T) {
	remote := &mockRemote{
		pushFn: func(_ int, group []domain.Record) ([]driven.ItemOutcome, error) {
			outcomes := okOutcomes(group)
			// Item 3 fails validation; the rest of the group is unaffected.
			outcomes[2] = driven.ItemOutcome{
				Status: domain.PushFailed,
				Err:    errors.New("text: this field may not be blank"),
			}
			return outcomes, nil
		},
	}
	pusher := NewPusher(remote, fastSync())

	records := []domain.Record{
		newHighlight("k1", "a"), newHighlight("k2", "b"), newHighlight("k3", ""),
		newHighlight("k4", "d"), newHighlight("k5", "e"),
	}
	results := pusher.Push(context.Background(), domain.KindHighlight, records)

	require.Len(t, results, 5)
	assert.Equal(t, domain.PushFailed, results[2].Status)
	assert.Error(t, results[2].Err)
	for _, i := range []int{0, 1, 3, 4} {
		assert.True(t, results[i].Succeeded(), "result %d", i)
	}
	assert.Equal(t, 1, remote.pushCalls, "one group, one call")
}

func TestPushDeduplicatesIdempotencyKeys(t *testing.T) {
	remote := &mockRemote{
		pushFn: func(_ int, group []domain.Record) ([]driven.ItemOutcome, error) {
			return okOutcomes(group), nil
		},
	}
	pusher := NewPusher(remote, fastSync())

	records := []domain.Record{
		newHighlight("dup", "first copy"),
		newHighlight("other", "unrelated"),
		newHighlight("dup", "second copy"),
	}
	results := pusher.Push(context.Background(), domain.KindHighlight, records)

	require.Len(t, results, 3)
	created := 0
	skipped := 0
	for _, r := range results {
		switch r.Status {
		case domain.PushCreated:
			created++
		case domain.PushSkipped:
			skipped++
			assert.Equal(t, domain.SkipReasonDuplicate, r.SkipReason)
		}
	}
	assert.Equal(t, 2, created)
	assert.Equal(t, 1, skipped)

	// The duplicate never went over the wire.
	require.Equal(t, 1, remote.pushCalls)
	assert.Len(t, remote.pushSeen[0], 2)
}

func TestPushDeduplicatesAcrossGroups(t *testing.T) {
	remote := &mockRemote{
		pushFn: func(_ int, group []domain.Record) ([]driven.ItemOutcome, error) {
			return okOutcomes(group), nil
		},
	}
	cfg := fastSync()
	cfg.BatchSize = 1
	pusher := NewPusher(remote, cfg)

	results := pusher.Push(context.Background(), domain.KindHighlight, []domain.Record{
		newHighlight("dup", "first"),
		newHighlight("dup", "second"),
	})

	require.Len(t, results, 2)
	assert.Equal(t, domain.PushCreated, results[0].Status)
	assert.Equal(t, domain.PushSkipped, results[1].Status)
	assert.Equal(t, 1, remote.pushCalls, "skipped duplicate makes no network call")
}

func TestPushRateLimitedGroupResubmittedIdentically(t *testing.T) {
	retryAfter := 30 * time.Millisecond
	remote := &mockRemote{
		pushFn: func(call int, group []domain.Record) ([]driven.ItemOutcome, error) {
			if call == 1 {
				return nil, &domain.RateLimitError{RetryAfter: retryAfter}
			}
			return okOutcomes(group), nil
		},
	}
	pusher := NewPusher(remote, fastSync())

	records := []domain.Record{newHighlight("k1", "a"), newHighlight("k2", "b")}
	start := time.Now()
	results := pusher.Push(context.Background(), domain.KindHighlight, records)

	assert.GreaterOrEqual(t, time.Since(start), retryAfter, "waited at least retry_after")
	require.Equal(t, 2, remote.pushCalls)
	assert.Equal(t, remote.pushSeen[0], remote.pushSeen[1], "identical group resubmitted")
	for _, r := range results {
		assert.True(t, r.Succeeded(), "results as if no delay occurred")
	}
}

func TestPushGroupCollapsesAfterRetryExhaustion(t *testing.T) {
	remote := &mockRemote{
		pushFn: func(_ int, _ []domain.Record) ([]driven.ItemOutcome, error) {
			return nil, &domain.TransientError{Cause: errors.New("remote is down")}
		},
	}
	cfg := fastSync()
	cfg.MaxRetries = 1
	cfg.BatchSize = 2
	pusher := NewPusher(remote, cfg)

	records := []domain.Record{
		newHighlight("k1", "a"), newHighlight("k2", "b"), newHighlight("k3", "c"),
	}
	results := pusher.Push(context.Background(), domain.KindHighlight, records)

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, domain.PushFailed, r.Status, "result %d", i)
		assert.True(t, domain.IsFatal(r.Err))
	}
	// Two groups, each tried twice (initial + one retry).
	assert.Equal(t, 4, remote.pushCalls)
}

func TestPushTruncatesOversizedFieldAndStillSucceeds(t *testing.T) {
	var submitted []domain.Record
	remote := &mockRemote{
		pushFn: func(_ int, group []domain.Record) ([]driven.ItemOutcome, error) {
			submitted = append(submitted, group...)
			return okOutcomes(group), nil
		},
	}
	cfg := fastSync()
	cfg.Limits = domain.FieldLimits{"note": 100}
	pusher := NewPusher(remote, cfg)

	records := []domain.Record{
		newHighlight("k1", "first"),
		{
			Kind:           domain.KindHighlight,
			IdempotencyKey: "k2",
			Fields:         map[string]string{"text": "second", "note": strings.Repeat("n", 120)},
		},
		newHighlight("k3", "third"),
	}
	results := pusher.Push(context.Background(), domain.KindHighlight, records)

	require.Len(t, results, 3)
	assert.True(t, results[1].Succeeded(), "truncation alone is not a failure")

	require.Len(t, results[1].Truncation, 1)
	ft := results[1].Truncation["note"]
	assert.Equal(t, 120, ft.OriginalLength)
	assert.Equal(t, 100, ft.TruncatedLength)

	assert.True(t, results[0].Truncation.Empty())
	assert.True(t, results[2].Truncation.Empty())

	// The wire saw the cut value; the caller's record is untouched.
	assert.Len(t, submitted[1].Field("note"), 100)
	assert.Len(t, records[1].Field("note"), 120)
}

func TestPushEmptyInput(t *testing.T) {
	remote := &mockRemote{}
	pusher := NewPusher(remote, fastSync())

	results := pusher.Push(context.Background(), domain.KindHighlight, nil)

	assert.Empty(t, results)
	assert.Equal(t, 0, remote.pushCalls)
}
