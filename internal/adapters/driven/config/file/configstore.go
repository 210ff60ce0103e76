package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// Well-known configuration keys.
const (
	KeyToken         = "api.token"
	KeyBaseURL       = "api.base_url"
	KeySnapshotPath  = "sync.snapshot_path"
	KeyBatchSize     = "sync.batch_size"
	KeyMaxRetries    = "sync.max_retries"
	KeyPollInterval  = "poll.interval"
	KeyBackoffFactor = "poll.backoff_factor"
	KeyMaxInterval   = "poll.max_interval"
	KeyMaxFailures   = "poll.max_consecutive_failures"
)

// ConfigStore is a file-based implementation of driven.ConfigStore using
// TOML. Configuration is stored in a TOML file within the marginalia config
// directory, with nested tables addressed by dot-notation keys.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.marginalia/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".marginalia")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
	}

	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return s, nil
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}

	str, ok := val.(string)
	if !ok {
		return ""
	}
	return str
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}

	// TOML integers are parsed as int64
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// GetFloat retrieves a float configuration value.
func (s *ConfigStore) GetFloat(key string) float64 {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, ok := s.Get(key)
	if !ok {
		return false
	}

	b, ok := val.(bool)
	if !ok {
		return false
	}
	return b
}

// Set stores a configuration value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// Delete removes a configuration value and persists immediately.
func (s *ConfigStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(unflattenMap(s.data))
	if err != nil {
		return err
	}

	// The token lives here, so keep permissions tight.
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the TOML file.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file yet - that's fine, start empty
			s.data = make(map[string]any)
			return nil
		}
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return err
	}

	s.data = flattenMap(loaded, "")
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// SyncConfig materializes the engine tuning from configured keys, falling
// back to the engine defaults for anything unset.
func (s *ConfigStore) SyncConfig() domain.SyncConfig {
	cfg := domain.DefaultSyncConfig()
	if v := s.GetInt(KeyBatchSize); v > 0 {
		cfg.BatchSize = v
	}
	if v := s.GetInt(KeyMaxRetries); v > 0 {
		cfg.MaxRetries = v
	}
	return cfg
}

// PollerConfig materializes the poller tuning from configured keys, falling
// back to the poller defaults for anything unset. Durations are given in
// seconds.
func (s *ConfigStore) PollerConfig() domain.PollerConfig {
	cfg := domain.DefaultPollerConfig()
	if v := s.GetInt(KeyPollInterval); v > 0 {
		cfg.Interval = time.Duration(v) * time.Second
	}
	if v := s.GetFloat(KeyBackoffFactor); v > 1 {
		cfg.BackoffFactor = v
	}
	if v := s.GetInt(KeyMaxInterval); v > 0 {
		cfg.MaxInterval = time.Duration(v) * time.Second
	}
	if v := s.GetInt(KeyMaxFailures); v > 0 {
		cfg.MaxConsecutiveFailures = v
	}
	return cfg
}

// flattenMap converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}

// unflattenMap converts dot-notation keys back to nested maps so the TOML
// file keeps its table structure.
func unflattenMap(flat map[string]any) map[string]any {
	result := make(map[string]any)

	for key, value := range flat {
		node := result
		for {
			head, rest, found := strings.Cut(key, ".")
			if !found {
				node[key] = value
				break
			}

			child, ok := node[head].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[head] = child
			}
			node = child
			key = rest
		}
	}

	return result
}
