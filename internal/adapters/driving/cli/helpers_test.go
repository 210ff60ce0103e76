package cli

import (
	"bytes"
	"context"

	"github.com/marginalia-labs/marginalia-cli/internal/adapters/driven/storage/memory"
	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
)

// mockConfigStore implements driven.ConfigStore in memory.
type mockConfigStore struct {
	data map[string]any
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{data: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	s, _ := m.data[key].(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	i, _ := m.data[key].(int)
	return i
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	f, _ := m.data[key].(float64)
	return f
}

func (m *mockConfigStore) GetBool(key string) bool {
	b, _ := m.data[key].(bool)
	return b
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Delete(key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockConfigStore) Load() error { return nil }

func (m *mockConfigStore) Path() string { return "/dev/null" }

// mockEngine implements driving.SyncEngine with a canned function.
type mockEngine struct {
	fn func(kind domain.Kind, snapshot []domain.Record, cursor domain.Cursor) domain.Report
}

func (m *mockEngine) RunOnce(
	_ context.Context, kind domain.Kind, snapshot []domain.Record, cursor domain.Cursor,
) domain.Report {
	return m.fn(kind, snapshot, cursor)
}

// mockSnapshot implements driven.SnapshotSource from a fixed map.
type mockSnapshot struct {
	records map[domain.Kind][]domain.Record
}

func (m *mockSnapshot) Snapshot(_ context.Context, kind domain.Kind) ([]domain.Record, error) {
	return m.records[kind], nil
}

// setupCLITest swaps every wired service for a mock and restores the
// previous wiring on cleanup.
func setupCLITest(engine *mockEngine, snaps *mockSnapshot) (store *memory.CursorStore, cleanup func()) {
	oldConfig, oldCursors, oldHistory := configStore, cursorStore, passHistory
	oldEngine, oldSnapshot := syncEngine, snapshotSource
	oldInput, oldKind, oldFull := syncInput, syncKind, syncFull

	store = memory.NewCursorStore()
	configStore = newMockConfigStore()
	cursorStore = store
	passHistory = store
	syncEngine = engine
	snapshotSource = snaps

	cleanup = func() {
		configStore, cursorStore, passHistory = oldConfig, oldCursors, oldHistory
		syncEngine, snapshotSource = oldEngine, oldSnapshot
		syncInput, syncKind, syncFull = oldInput, oldKind, oldFull
	}
	return store, cleanup
}

// execute runs the root command with args and captures its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
