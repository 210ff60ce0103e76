package services

import (
	"context"
	"sync"
	"time"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driven"
)

// --- Shared mocks for engine tests ---

// mockRemote implements driven.RemoteEndpoint with scriptable behaviour.
// listFn and pushFn receive a 1-based call counter so tests can script
// failures on specific attempts.
type mockRemote struct {
	mu sync.Mutex

	listFn    func(call int, cursor domain.Cursor) (driven.Page, error)
	listCalls int
	listSeen  []domain.Cursor

	pushFn    func(call int, group []domain.Record) ([]driven.ItemOutcome, error)
	pushCalls int
	pushSeen  [][]domain.Record
}

var _ driven.RemoteEndpoint = (*mockRemote)(nil)

func (m *mockRemote) List(_ context.Context, _ domain.Kind, cursor domain.Cursor) (driven.Page, error) {
	m.mu.Lock()
	m.listCalls++
	call := m.listCalls
	m.listSeen = append(m.listSeen, cursor)
	m.mu.Unlock()
	return m.listFn(call, cursor)
}

func (m *mockRemote) CreateOrUpdate(_ context.Context, _ domain.Kind, group []domain.Record) ([]driven.ItemOutcome, error) {
	m.mu.Lock()
	m.pushCalls++
	call := m.pushCalls
	copied := make([]domain.Record, len(group))
	copy(copied, group)
	m.pushSeen = append(m.pushSeen, copied)
	m.mu.Unlock()
	return m.pushFn(call, group)
}

// emptyList scripts a remote with nothing to pull.
func emptyList(int, domain.Cursor) (driven.Page, error) {
	return driven.Page{}, nil
}

// okOutcomes creates one Created outcome per group member.
func okOutcomes(group []domain.Record) []driven.ItemOutcome {
	outcomes := make([]driven.ItemOutcome, len(group))
	for i, r := range group {
		id := r.ID
		if id == "" {
			id = "assigned-" + r.IdempotencyKey
		}
		status := domain.PushCreated
		if r.ID != "" {
			status = domain.PushUpdated
		}
		outcomes[i] = driven.ItemOutcome{Status: status, ID: id}
	}
	return outcomes
}

// mockSnapshots implements driven.SnapshotSource over a fixed map.
type mockSnapshots struct {
	records map[domain.Kind][]domain.Record
	err     error
}

func (m *mockSnapshots) Snapshot(_ context.Context, kind domain.Kind) ([]domain.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records[kind], nil
}

// mockEngine implements driving.SyncEngine with a scriptable pass.
type mockEngine struct {
	mu      sync.Mutex
	calls   int
	cursors []domain.Cursor
	fn      func(call int, cursor domain.Cursor) domain.Report
}

func (m *mockEngine) RunOnce(_ context.Context, kind domain.Kind, _ []domain.Record, cursor domain.Cursor) domain.Report {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.cursors = append(m.cursors, cursor)
	m.mu.Unlock()
	report := m.fn(call, cursor)
	report.Kind = kind
	return report
}

// fastSync returns a config with sub-millisecond retry delays so tests
// exercising backoff stay quick.
func fastSync() domain.SyncConfig {
	cfg := domain.DefaultSyncConfig()
	cfg.RetryDelay = time.Millisecond
	return cfg
}
