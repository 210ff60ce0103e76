package driven

import "github.com/marginalia-labs/marginalia-cli/internal/core/domain"

// RecordCodec converts domain records to and from wire payloads.
// Encode followed by Decode must be a lossless round trip for every field
// present on the record.
type RecordCodec interface {
	// Encode serializes a record to its wire payload.
	Encode(record domain.Record) ([]byte, error)

	// Decode parses a wire payload into a record of the given kind.
	Decode(kind domain.Kind, payload []byte) (domain.Record, error)
}
