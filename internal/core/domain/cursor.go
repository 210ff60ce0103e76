package domain

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// CursorVersion is the current cursor schema version.
const CursorVersion = 1

// Cursor marks how far a pull has progressed for one record kind. The token
// is opaque resumption state for the remote's listing endpoint; the
// watermark is the highest modification time observed so far.
//
// Cursors are monotonic: resuming from a cursor never re-delivers records
// strictly older than its watermark. Records at exactly the watermark may be
// delivered again, so consumers must tolerate at-least-once delivery.
type Cursor struct {
	// Version is the schema version for future migrations.
	Version int `json:"v"`

	// Token is the remote's opaque page/resumption token.
	Token string `json:"token,omitempty"`

	// Watermark is the highest UpdatedAt seen during pulls.
	Watermark time.Time `json:"watermark,omitempty"`
}

// NewCursor creates an empty cursor ("from the beginning").
func NewCursor() Cursor {
	return Cursor{Version: CursorVersion}
}

// IsZero reports whether the cursor carries no progress.
func (c Cursor) IsZero() bool {
	return c.Token == "" && c.Watermark.IsZero()
}

// Advance returns a copy of the cursor with the token replaced and the
// watermark raised to t if t is newer. The watermark never moves backwards.
func (c Cursor) Advance(token string, t time.Time) Cursor {
	c.Token = token
	if t.After(c.Watermark) {
		c.Watermark = t
	}
	if c.Version == 0 {
		c.Version = CursorVersion
	}
	return c
}

// Encode serializes the cursor to a base64-encoded JSON string.
// The zero cursor encodes to "".
func (c Cursor) Encode() string {
	if c.IsZero() {
		return ""
	}
	if c.Version == 0 {
		c.Version = CursorVersion
	}
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeCursor deserializes a cursor from a base64-encoded JSON string.
// An empty input yields an empty cursor.
func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return NewCursor(), nil
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	if cursor.Version == 0 {
		cursor.Version = CursorVersion
	}
	return cursor, nil
}
