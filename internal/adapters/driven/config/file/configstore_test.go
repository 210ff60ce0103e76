package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestConfigStoreSetAndGet(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Set(KeyToken, "secret-token"))
	require.NoError(t, store.Set(KeyBatchSize, 50))
	require.NoError(t, store.Set("poll.enabled", true))

	assert.Equal(t, "secret-token", store.GetString(KeyToken))
	assert.Equal(t, 50, store.GetInt(KeyBatchSize))
	assert.True(t, store.GetBool("poll.enabled"))

	_, ok := store.Get("missing.key")
	assert.False(t, ok)
}

func TestConfigStorePersistsAcrossReopens(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyToken, "tok"))
	require.NoError(t, store.Set(KeyBackoffFactor, 1.5))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "tok", reopened.GetString(KeyToken))
	assert.Equal(t, 1.5, reopened.GetFloat(KeyBackoffFactor))
}

func TestConfigStoreWritesNestedTables(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Set(KeyToken, "tok"))
	require.NoError(t, store.Set(KeyBaseURL, "https://example.test"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[api]")
	assert.Contains(t, string(data), `token = 'tok'`)
}

func TestConfigStoreDelete(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Set(KeyToken, "tok"))
	require.NoError(t, store.Delete(KeyToken))

	assert.Empty(t, store.GetString(KeyToken))

	reopened, err := NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Empty(t, reopened.GetString(KeyToken))
}

func TestConfigStoreRestrictsFilePermissions(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Set(KeyToken, "tok"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStoreTypeMismatchesFallBack(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Set(KeyToken, 42))

	assert.Empty(t, store.GetString(KeyToken))
	assert.False(t, store.GetBool(KeyToken))
}

func TestSyncConfigDefaultsAndOverrides(t *testing.T) {
	store := setupTestStore(t)

	cfg := store.SyncConfig()
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 3, cfg.MaxRetries)

	require.NoError(t, store.Set(KeyBatchSize, 25))
	require.NoError(t, store.Set(KeyMaxRetries, 5))
	cfg = store.SyncConfig()
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 5, cfg.MaxRetries)
}

func TestPollerConfigDefaultsAndOverrides(t *testing.T) {
	store := setupTestStore(t)

	cfg := store.PollerConfig()
	assert.Equal(t, 5*time.Minute, cfg.Interval)
	assert.Equal(t, 2.0, cfg.BackoffFactor)

	require.NoError(t, store.Set(KeyPollInterval, 30))
	require.NoError(t, store.Set(KeyBackoffFactor, 3.0))
	require.NoError(t, store.Set(KeyMaxInterval, 600))
	require.NoError(t, store.Set(KeyMaxFailures, 4))

	cfg = store.PollerConfig()
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, 3.0, cfg.BackoffFactor)
	assert.Equal(t, 10*time.Minute, cfg.MaxInterval)
	assert.Equal(t, 4, cfg.MaxConsecutiveFailures)
}
