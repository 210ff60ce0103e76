// Package memory provides in-memory implementations of the storage ports,
// used by tests and as a fallback when no database is configured.
package memory

import (
	"context"
	"sync"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driven"
)

// Ensure CursorStore implements the interfaces.
var (
	_ driven.CursorStore = (*CursorStore)(nil)
	_ driven.PassHistory = (*CursorStore)(nil)
)

// maxHistory bounds the retained pass records per kind.
const maxHistory = 100

// CursorStore is an in-memory implementation of driven.CursorStore and
// driven.PassHistory.
type CursorStore struct {
	mu      sync.RWMutex
	cursors map[domain.Kind]domain.Cursor
	history map[domain.Kind][]driven.PassRecord
}

// NewCursorStore creates a new in-memory cursor store.
func NewCursorStore() *CursorStore {
	return &CursorStore{
		cursors: make(map[domain.Kind]domain.Cursor),
		history: make(map[domain.Kind][]driven.PassRecord),
	}
}

// Load retrieves the cursor for a kind.
func (s *CursorStore) Load(_ context.Context, kind domain.Kind) (domain.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cursor, ok := s.cursors[kind]
	if !ok {
		return domain.Cursor{}, domain.ErrNotFound
	}
	return cursor, nil
}

// Save stores or replaces the cursor for a kind.
func (s *CursorStore) Save(_ context.Context, kind domain.Kind, cursor domain.Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[kind] = cursor
	return nil
}

// Delete removes the cursor for a kind.
func (s *CursorStore) Delete(_ context.Context, kind domain.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cursors, kind)
	return nil
}

// RecordPass appends one pass record, pruning beyond the retention bound.
func (s *CursorStore) RecordPass(_ context.Context, record driven.PassRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := append(s.history[record.Kind], record)
	if len(records) > maxHistory {
		records = records[len(records)-maxHistory:]
	}
	s.history[record.Kind] = records
	return nil
}

// RecentPasses returns up to limit records for a kind, most recent first.
func (s *CursorStore) RecentPasses(_ context.Context, kind domain.Kind, limit int) ([]driven.PassRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.history[kind]
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}
	out := make([]driven.PassRecord, 0, limit)
	for i := len(records) - 1; i >= len(records)-limit; i-- {
		out = append(out, records[i])
	}
	return out, nil
}
