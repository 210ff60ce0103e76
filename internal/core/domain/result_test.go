package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushResultSucceeded(t *testing.T) {
	assert.True(t, PushResult{Status: PushCreated, ID: "h1"}.Succeeded())
	assert.True(t, PushResult{Status: PushUpdated, ID: "h2"}.Succeeded())
	assert.False(t, PushResult{Status: PushSkipped, SkipReason: SkipReasonDuplicate}.Succeeded())
	assert.False(t, PushResult{Status: PushFailed, Err: errors.New("boom")}.Succeeded())
}

func TestReportCounts(t *testing.T) {
	report := Report{
		Results: []PushResult{
			{Status: PushCreated, ID: "1"},
			{Status: PushUpdated, ID: "2"},
			{Status: PushSkipped, SkipReason: SkipReasonDuplicate},
			{Status: PushFailed, Err: errors.New("validation")},
			{Status: PushCreated, ID: "3"},
		},
	}

	assert.Equal(t, 2, report.Created())
	assert.Equal(t, 1, report.Updated())
	assert.Equal(t, 1, report.Skipped())
	assert.Equal(t, 1, report.Failed())
}

func TestRecordIdentity(t *testing.T) {
	assert.Equal(t, "remote-9", Record{ID: "remote-9", IdempotencyKey: "key-1"}.Identity())
	assert.Equal(t, "key-1", Record{IdempotencyKey: "key-1"}.Identity())
}
