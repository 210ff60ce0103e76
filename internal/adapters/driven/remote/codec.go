package remote

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driven"
)

// Ensure Codec implements the interface.
var _ driven.RecordCodec = (*Codec)(nil)

// Reserved wire keys that map to record metadata rather than fields.
const (
	wireKeyID             = "id"
	wireKeyIdempotencyKey = "client_ref"
	wireKeyUpdatedAt      = "updated_at"
)

// Codec converts records to and from the service's flat JSON objects.
// Metadata travels under reserved keys; every other key is a field value.
// Encode and Decode are a lossless round trip for all fields present.
type Codec struct{}

// NewCodec creates a codec.
func NewCodec() *Codec { return &Codec{} }

// Encode serializes a record to its wire payload.
func (Codec) Encode(record domain.Record) ([]byte, error) {
	payload := make(map[string]any, len(record.Fields)+3)
	for name, value := range record.Fields {
		if isReservedKey(name) {
			return nil, fmt.Errorf("%w: field name %q is reserved", domain.ErrInvalidInput, name)
		}
		payload[name] = value
	}
	if record.ID != "" {
		payload[wireKeyID] = record.ID
	}
	if record.IdempotencyKey != "" {
		payload[wireKeyIdempotencyKey] = record.IdempotencyKey
	}
	if !record.UpdatedAt.IsZero() {
		payload[wireKeyUpdatedAt] = record.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(payload)
}

// Decode parses a wire payload into a record of the given kind.
func (Codec) Decode(kind domain.Kind, payload []byte) (domain.Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.Record{}, fmt.Errorf("decode %s payload: %w", kind, err)
	}

	record := domain.Record{Kind: kind, Fields: make(map[string]string, len(raw))}
	for key, value := range raw {
		switch key {
		case wireKeyID:
			if err := json.Unmarshal(value, &record.ID); err != nil {
				return domain.Record{}, fmt.Errorf("decode %s id: %w", kind, err)
			}
		case wireKeyIdempotencyKey:
			if err := json.Unmarshal(value, &record.IdempotencyKey); err != nil {
				return domain.Record{}, fmt.Errorf("decode %s client_ref: %w", kind, err)
			}
		case wireKeyUpdatedAt:
			var stamp string
			if err := json.Unmarshal(value, &stamp); err != nil {
				return domain.Record{}, fmt.Errorf("decode %s updated_at: %w", kind, err)
			}
			parsed, err := time.Parse(time.RFC3339Nano, stamp)
			if err != nil {
				return domain.Record{}, fmt.Errorf("decode %s updated_at: %w", kind, err)
			}
			record.UpdatedAt = parsed
		default:
			var field string
			if err := json.Unmarshal(value, &field); err != nil {
				// Non-string values (nulls, numbers the service adds
				// server-side) are carried verbatim.
				field = string(value)
			}
			record.Fields[key] = field
		}
	}
	return record, nil
}

func isReservedKey(name string) bool {
	return name == wireKeyID || name == wireKeyIdempotencyKey || name == wireKeyUpdatedAt
}
