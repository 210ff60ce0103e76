// Package file implements the SnapshotSource port over a local JSON
// snapshot file, the CLI's view of the user's notes and highlights.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driven"
)

var _ driven.SnapshotSource = (*Source)(nil)

// keyNamespace derives stable idempotency keys for records the snapshot
// does not name. Derived from the project domain with uuid.NewSHA1 over
// the DNS namespace.
var keyNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("marginalia.dev"))

// Reserved snapshot keys mapping to record metadata.
const (
	keyID        = "id"
	keyClientRef = "client_ref"
	keyUpdatedAt = "updated_at"
)

// Source reads local records from a JSON snapshot file. The file holds one
// array per kind; every element is a flat object whose non-reserved keys
// become record fields.
//
// Records without an id or client_ref get a deterministic idempotency key
// derived from their content, so re-reading the same snapshot never mints
// a new identity for the same record.
type Source struct {
	path string
}

// NewSource creates a snapshot source reading from path.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Path returns the snapshot file path.
func (s *Source) Path() string {
	return s.path
}

type snapshotFile struct {
	Highlights []map[string]json.RawMessage `json:"highlights"`
	Documents  []map[string]json.RawMessage `json:"documents"`
}

// Snapshot returns the current local records of a kind. A missing file is
// an empty snapshot, not an error.
func (s *Source) Snapshot(ctx context.Context, kind domain.Kind) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	var items []map[string]json.RawMessage
	switch kind {
	case domain.KindHighlight:
		items = file.Highlights
	case domain.KindDocument:
		items = file.Documents
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInput, kind)
	}

	records := make([]domain.Record, 0, len(items))
	for i, item := range items {
		record, err := parseRecord(kind, item)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s[%d]: %w", kind, i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func parseRecord(kind domain.Kind, item map[string]json.RawMessage) (domain.Record, error) {
	record := domain.Record{Kind: kind, Fields: make(map[string]string, len(item))}
	for key, value := range item {
		switch key {
		case keyID:
			if err := json.Unmarshal(value, &record.ID); err != nil {
				return domain.Record{}, fmt.Errorf("id: %w", err)
			}
		case keyClientRef:
			if err := json.Unmarshal(value, &record.IdempotencyKey); err != nil {
				return domain.Record{}, fmt.Errorf("client_ref: %w", err)
			}
		case keyUpdatedAt:
			var stamp string
			if err := json.Unmarshal(value, &stamp); err != nil {
				return domain.Record{}, fmt.Errorf("updated_at: %w", err)
			}
			parsed, err := time.Parse(time.RFC3339Nano, stamp)
			if err != nil {
				return domain.Record{}, fmt.Errorf("updated_at: %w", err)
			}
			record.UpdatedAt = parsed
		default:
			var field string
			if err := json.Unmarshal(value, &field); err != nil {
				field = string(value)
			}
			record.Fields[key] = field
		}
	}

	if record.ID == "" && record.IdempotencyKey == "" {
		record.IdempotencyKey = deriveKey(kind, record.Fields)
	}
	return record, nil
}

// deriveKey builds a content-addressed idempotency key so the same snapshot
// entry keeps the same identity across passes.
func deriveKey(kind domain.Kind, fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(string(kind))
	for _, name := range names {
		b.WriteByte(0)
		b.WriteString(name)
		b.WriteByte(0)
		b.WriteString(fields[name])
	}
	return uuid.NewSHA1(keyNamespace, []byte(b.String())).String()
}
