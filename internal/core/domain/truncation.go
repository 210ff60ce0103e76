package domain

import "sort"

// Default per-field character limits imposed by the remote service.
const (
	MaxTextLength   = 8191
	MaxNoteLength   = 8191
	MaxTitleLength  = 511
	MaxAuthorLength = 1024
)

// FieldLimits maps field names to their maximum length in characters.
// Fields without an entry are never truncated.
type FieldLimits map[string]int

// DefaultFieldLimits returns the limits the remote service enforces on
// highlight fields.
func DefaultFieldLimits() FieldLimits {
	return FieldLimits{
		"text":   MaxTextLength,
		"note":   MaxNoteLength,
		"title":  MaxTitleLength,
		"author": MaxAuthorLength,
	}
}

// FieldTruncation records one field that was cut down to its limit.
type FieldTruncation struct {
	// OriginalLength is the field length before the cut.
	OriginalLength int

	// TruncatedLength is the field length after the cut.
	TruncatedLength int

	// Limit is the configured maximum that forced the cut.
	Limit int
}

// CharsRemoved returns how many characters the cut removed.
func (t FieldTruncation) CharsRemoved() int {
	return t.OriginalLength - t.TruncatedLength
}

// TruncationInfo maps field names to what was cut from them.
// An empty map means no field was modified.
type TruncationInfo map[string]FieldTruncation

// Empty reports whether no field was truncated.
func (i TruncationInfo) Empty() bool {
	return len(i) == 0
}

// TruncatedFields returns the names of truncated fields, sorted.
func (i TruncationInfo) TruncatedFields() []string {
	names := make([]string, 0, len(i))
	for name := range i {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Truncate enforces the configured per-field limits on a record. Fields over
// their limit are hard-cut at the limit (no word-boundary awareness) and the
// cut is recorded. The input record is not modified; the returned record
// shares no field storage with it.
//
// Truncate is a pure function and is idempotent: a record that already fits
// its limits is returned unchanged with empty TruncationInfo.
func Truncate(record Record, limits FieldLimits) (Record, TruncationInfo) {
	info := TruncationInfo{}
	out := record.CloneFields()

	for field, limit := range limits {
		value, ok := out.Fields[field]
		if !ok || limit <= 0 {
			continue
		}
		runes := []rune(value)
		if len(runes) <= limit {
			continue
		}
		out.Fields[field] = string(runes[:limit])
		info[field] = FieldTruncation{
			OriginalLength:  len(runes),
			TruncatedLength: limit,
			Limit:           limit,
		}
	}

	return out, info
}
