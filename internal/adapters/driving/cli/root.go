// Package cli implements the command line interface, the driving adapter
// that wires configuration, storage and the remote endpoint into the core
// services.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	configfile "github.com/marginalia-labs/marginalia-cli/internal/adapters/driven/config/file"
	"github.com/marginalia-labs/marginalia-cli/internal/adapters/driven/remote"
	snapshotfile "github.com/marginalia-labs/marginalia-cli/internal/adapters/driven/snapshot/file"
	"github.com/marginalia-labs/marginalia-cli/internal/adapters/driven/storage/sqlite"
	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driven"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driving"
	"github.com/marginalia-labs/marginalia-cli/internal/core/services"
	"github.com/marginalia-labs/marginalia-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services wired at startup. Tests inject mocks directly.
var (
	configStore    driven.ConfigStore
	cursorStore    driven.CursorStore
	passHistory    driven.PassHistory
	syncEngine     driving.SyncEngine
	snapshotSource driven.SnapshotSource

	storeCloser io.Closer
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "marginalia",
	Short: "Sync notes and highlights with the marginalia service",
	Long: `marginalia keeps a local snapshot of notes and highlights in step with
the marginalia service. It pulls remote changes incrementally, pushes
local edits in batches, and remembers where it left off between runs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	defer func() {
		if storeCloser != nil {
			storeCloser.Close() //nolint:errcheck
		}
	}()
	return rootCmd.Execute()
}

// setupConfig opens the config store if no test injected one.
func setupConfig() error {
	if configStore != nil {
		return nil
	}
	store, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	configStore = store
	return nil
}

// setupStorage opens the SQLite store if no test injected one.
func setupStorage() error {
	if cursorStore != nil && passHistory != nil {
		return nil
	}
	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening state database: %w", err)
	}
	cursorStore = store.CursorStore()
	passHistory = store.PassHistory()
	storeCloser = store
	return nil
}

// setupEngine builds the sync engine from the configured token.
func setupEngine() error {
	if syncEngine != nil {
		return nil
	}
	if err := setupConfig(); err != nil {
		return err
	}

	token := configStore.GetString(configfile.KeyToken)
	if token == "" {
		return errors.New("not authenticated: run 'marginalia auth login' first")
	}

	client := remote.NewClient(remote.Config{
		BaseURL: configStore.GetString(configfile.KeyBaseURL),
		Token:   token,
	})
	endpoint := remote.NewEndpoint(client, remote.NewCodec())

	syncEngine = services.NewSyncManager(endpoint, engineConfig())
	return nil
}

// engineConfig resolves the engine tuning from the config store.
func engineConfig() domain.SyncConfig {
	if tuner, ok := configStore.(interface{ SyncConfig() domain.SyncConfig }); ok {
		return tuner.SyncConfig()
	}
	return domain.DefaultSyncConfig()
}

// pollConfig resolves the poller tuning from the config store.
func pollConfig() domain.PollerConfig {
	if tuner, ok := configStore.(interface{ PollerConfig() domain.PollerConfig }); ok {
		return tuner.PollerConfig()
	}
	return domain.DefaultPollerConfig()
}

// setupSnapshot resolves the snapshot source: an explicit path wins over
// the configured one.
func setupSnapshot(path string) error {
	if snapshotSource != nil && path == "" {
		return nil
	}
	if path == "" {
		if err := setupConfig(); err != nil {
			return err
		}
		path = configStore.GetString(configfile.KeySnapshotPath)
	}
	if path == "" {
		return errors.New("no snapshot configured: pass --input or set sync.snapshot_path")
	}
	snapshotSource = snapshotfile.NewSource(path)
	return nil
}
