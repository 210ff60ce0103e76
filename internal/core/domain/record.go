package domain

import "time"

// Kind identifies a record collection on the remote service.
type Kind string

// Record kinds supported by the engine.
const (
	KindHighlight Kind = "highlight"
	KindDocument  Kind = "document"
)

// Valid reports whether k is a known record kind.
func (k Kind) Valid() bool {
	return k == KindHighlight || k == KindDocument
}

// Record is a single domain item (a highlight or a document) as the engine
// sees it. Field values are kept as an open name→value mapping because the
// engine only ever needs identity, modification time and field lengths;
// interpreting the fields is the codec's job.
type Record struct {
	// Kind is the collection this record belongs to.
	Kind Kind

	// ID is the remote identifier. Empty until the remote has assigned one.
	ID string

	// IdempotencyKey identifies a not-yet-created record across retries and
	// duplicate submissions. Required when ID is empty.
	IdempotencyKey string

	// Fields maps field names to their values.
	Fields map[string]string

	// UpdatedAt is the last known modification time on the owning side.
	UpdatedAt time.Time
}

// Identity returns the stable identity of the record: the remote ID once
// assigned, the idempotency key before that.
func (r Record) Identity() string {
	if r.ID != "" {
		return r.ID
	}
	return r.IdempotencyKey
}

// Field returns the value of a named field, or "" when absent.
func (r Record) Field(name string) string {
	return r.Fields[name]
}

// CloneFields returns a copy of the record with its own Fields map, so the
// copy can be modified without aliasing the original.
func (r Record) CloneFields() Record {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	r.Fields = fields
	return r
}
