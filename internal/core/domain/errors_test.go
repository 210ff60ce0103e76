package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomyPredicates(t *testing.T) {
	transient := &TransientError{Cause: errors.New("connection reset")}
	rateLimited := &RateLimitError{RetryAfter: 5 * time.Second}
	fatal := &FatalError{Cause: errors.New("401 unauthorized")}

	assert.True(t, IsTransient(transient))
	assert.False(t, IsTransient(fatal))

	delay, ok := IsRateLimited(rateLimited)
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, delay)
	_, ok = IsRateLimited(transient)
	assert.False(t, ok)

	assert.True(t, IsFatal(fatal))
	assert.False(t, IsFatal(transient))
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("push group 2: %w", &TransientError{Cause: errors.New("timeout")})
	assert.True(t, IsTransient(err))

	err = fmt.Errorf("list page: %w", &RateLimitError{RetryAfter: time.Second})
	_, ok := IsRateLimited(err)
	assert.True(t, ok)
}

func TestPullErrorCarriesResumableCursor(t *testing.T) {
	cursor := NewCursor().Advance("tok", time.Now())
	cause := &FatalError{Cause: errors.New("server gave up")}
	err := &PullError{Kind: KindHighlight, Cursor: cursor, Cause: cause}

	var pullErr *PullError
	assert.True(t, errors.As(fmt.Errorf("pass: %w", err), &pullErr))
	assert.Equal(t, "tok", pullErr.Cursor.Token)
	assert.True(t, IsFatal(err), "PullError unwraps to its cause")
}
