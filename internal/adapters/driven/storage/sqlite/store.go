// Package sqlite provides SQLite-backed implementations of the storage
// ports, persisting cursors and pass history across CLI invocations.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/marginalia-labs/marginalia-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driven"
)

// maxHistory bounds the retained pass records per kind.
const maxHistory = 100

// Store is a SQLite-based storage that provides access to the cursor and
// history store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.marginalia/data/state.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".marginalia", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CursorStore returns a CursorStore interface backed by this store.
func (s *Store) CursorStore() driven.CursorStore {
	return &cursorStore{store: s}
}

// PassHistory returns a PassHistory interface backed by this store.
func (s *Store) PassHistory() driven.PassHistory {
	return &passHistory{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Cursor Store ====================

// cursorStore implements driven.CursorStore.
type cursorStore struct {
	store *Store
}

var _ driven.CursorStore = (*cursorStore)(nil)

// Load retrieves the persisted cursor for a kind.
func (s *cursorStore) Load(ctx context.Context, kind domain.Kind) (domain.Cursor, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT cursor FROM cursors WHERE kind = ?", string(kind))

	var encoded string
	if err := row.Scan(&encoded); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Cursor{}, domain.ErrNotFound
		}
		return domain.Cursor{}, fmt.Errorf("scanning cursor: %w", err)
	}

	return domain.DecodeCursor(encoded)
}

// Save stores or replaces the cursor for a kind.
func (s *cursorStore) Save(ctx context.Context, kind domain.Kind, cursor domain.Cursor) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO cursors (kind, cursor, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET
			cursor = excluded.cursor,
			saved_at = excluded.saved_at
	`, string(kind), cursor.Encode(), time.Now().UTC())

	if err != nil {
		return fmt.Errorf("saving cursor: %w", err)
	}
	return nil
}

// Delete removes the cursor for a kind.
func (s *cursorStore) Delete(ctx context.Context, kind domain.Kind) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM cursors WHERE kind = ?", string(kind))
	if err != nil {
		return fmt.Errorf("deleting cursor: %w", err)
	}
	return nil
}

// ==================== Pass History ====================

// passHistory implements driven.PassHistory.
type passHistory struct {
	store *Store
}

var _ driven.PassHistory = (*passHistory)(nil)

// RecordPass appends one pass record, pruning beyond the retention bound.
func (s *passHistory) RecordPass(ctx context.Context, record driven.PassRecord) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pass_history
			(kind, outcome, stage, started_at, ended_at, pulled, created, updated, skipped, failed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, string(record.Kind), string(record.Outcome), string(record.Stage),
		record.StartedAt, record.EndedAt,
		record.Pulled, record.Created, record.Updated, record.Skipped, record.Failed,
		record.Error)
	if err != nil {
		return fmt.Errorf("recording pass: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM pass_history
		WHERE kind = ? AND id NOT IN (
			SELECT id FROM pass_history WHERE kind = ? ORDER BY id DESC LIMIT ?
		)
	`, string(record.Kind), string(record.Kind), maxHistory)
	if err != nil {
		return fmt.Errorf("pruning pass history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// RecentPasses returns up to limit records for a kind, most recent first.
func (s *passHistory) RecentPasses(ctx context.Context, kind domain.Kind, limit int) ([]driven.PassRecord, error) {
	if limit <= 0 || limit > maxHistory {
		limit = maxHistory
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT kind, outcome, stage, started_at, ended_at, pulled, created, updated, skipped, failed, error
		FROM pass_history WHERE kind = ?
		ORDER BY id DESC LIMIT ?
	`, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("querying pass history: %w", err)
	}
	defer rows.Close()

	var records []driven.PassRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r driven.PassRecord
		var kindStr, outcome, stage string
		var startedAt, endedAt sql.NullTime
		if err := rows.Scan(&kindStr, &outcome, &stage, &startedAt, &endedAt,
			&r.Pulled, &r.Created, &r.Updated, &r.Skipped, &r.Failed, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning pass record: %w", err)
		}

		r.Kind = domain.Kind(kindStr)
		r.Outcome = domain.Outcome(outcome)
		r.Stage = domain.Stage(stage)
		if startedAt.Valid {
			r.StartedAt = startedAt.Time
		}
		if endedAt.Valid {
			r.EndedAt = endedAt.Time
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pass history: %w", err)
	}

	return records, nil
}
