package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driven"
)

func TestStatusCmd_NeverSynced(t *testing.T) {
	_, cleanup := setupCLITest(&mockEngine{}, &mockSnapshot{})
	defer cleanup()

	out, err := execute("status")
	require.NoError(t, err)
	assert.Contains(t, out, "highlights:")
	assert.Contains(t, out, "documents:")
	assert.Contains(t, out, "never synced")
	assert.Contains(t, out, "no passes recorded")
}

func TestStatusCmd_ShowsWatermarkAndHistory(t *testing.T) {
	store, cleanup := setupCLITest(&mockEngine{}, &mockSnapshot{})
	defer cleanup()

	ctx := context.Background()
	mark := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, domain.KindHighlight, domain.NewCursor().Advance("t", mark)))
	require.NoError(t, store.RecordPass(ctx, driven.PassRecord{
		Kind:      domain.KindHighlight,
		Outcome:   domain.OutcomePartial,
		Stage:     domain.StageCompleted,
		StartedAt: mark,
		EndedAt:   mark.Add(time.Second),
		Pulled:    3,
		Created:   1,
		Failed:    1,
		Error:     "one record rejected",
	}))

	out, err := execute("status")
	require.NoError(t, err)
	assert.Contains(t, out, "synced through 2024-06-01T10:00:00Z")
	assert.Contains(t, out, "partial")
	assert.Contains(t, out, "one record rejected")
}
