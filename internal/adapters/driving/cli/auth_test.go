package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configfile "github.com/marginalia-labs/marginalia-cli/internal/adapters/driven/config/file"
)

func setupAuthTest() (*mockConfigStore, func()) {
	oldConfig := configStore
	oldToken := authLoginToken

	store := newMockConfigStore()
	configStore = store

	return store, func() {
		configStore = oldConfig
		authLoginToken = oldToken
	}
}

func TestAuthCmd_Short(t *testing.T) {
	assert.Equal(t, "Manage the service access token", authCmd.Short)
}

func TestAuthLogin_WithTokenFlag(t *testing.T) {
	store, cleanup := setupAuthTest()
	defer cleanup()

	out, err := execute("auth", "login", "--token", "tok-123456789")
	require.NoError(t, err)
	assert.Contains(t, out, "Token saved")
	assert.Equal(t, "tok-123456789", store.GetString(configfile.KeyToken))
}

func TestAuthLogin_TrimsWhitespace(t *testing.T) {
	store, cleanup := setupAuthTest()
	defer cleanup()

	_, err := execute("auth", "login", "--token", "  tok  ")
	require.NoError(t, err)
	assert.Equal(t, "tok", store.GetString(configfile.KeyToken))
}

func TestAuthStatus_MasksToken(t *testing.T) {
	store, cleanup := setupAuthTest()
	defer cleanup()

	require.NoError(t, store.Set(configfile.KeyToken, "tok-123456789"))

	out, err := execute("auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Authenticated")
	assert.NotContains(t, out, "tok-123456789")
}

func TestAuthStatus_NotAuthenticated(t *testing.T) {
	_, cleanup := setupAuthTest()
	defer cleanup()

	out, err := execute("auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not authenticated")
}

func TestAuthLogout_RemovesToken(t *testing.T) {
	store, cleanup := setupAuthTest()
	defer cleanup()

	require.NoError(t, store.Set(configfile.KeyToken, "tok"))

	out, err := execute("auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Token removed")
	assert.Empty(t, store.GetString(configfile.KeyToken))
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "****", maskToken("short"))
	masked := maskToken("tok-123456789")
	assert.Contains(t, masked, "tok-")
	assert.Contains(t, masked, "6789")
	assert.NotEqual(t, "tok-123456789", masked)
}
