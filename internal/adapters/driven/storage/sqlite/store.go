package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/pikia/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driven"
)

// DBFilename is the name of the working database inside the data directory.
const DBFilename = "pikia.db"

// archiveTimeLayout formats the suffix of archived databases.
const archiveTimeLayout = "20060102_150405"

// Store owns the SQLite connection for one session.
// Open it at batch start; Close or Archive it at batch end.
type Store struct {
	db     *sql.DB
	path   string
	closed bool
}

// NewStore creates or opens the corpus database in the specified data directory.
// If dataDir is empty, defaults to ~/.pikia/data/pikia.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".pikia", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFilename)

	// foreign_keys is a per-connection pragma, so set it in the DSN for every pooled connection
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CorpusStore returns a CorpusStore interface backed by this store.
func (s *Store) CorpusStore() driven.CorpusStore {
	return &corpusStore{store: s}
}

// Archive closes the database and moves it into sessionsDir as
// pikia.db.YYYYMMDD_HHMMSS. Returns the archived path.
func (s *Store) Archive(sessionsDir string) (string, error) {
	return s.archiveAt(sessionsDir, time.Now())
}

func (s *Store) archiveAt(sessionsDir string, now time.Time) (string, error) {
	if sessionsDir == "" {
		return "", fmt.Errorf("%w: empty sessions directory", domain.ErrInvalidInput)
	}
	if err := s.Close(); err != nil {
		return "", fmt.Errorf("closing database: %w", err)
	}
	if err := os.MkdirAll(sessionsDir, 0700); err != nil {
		return "", fmt.Errorf("creating sessions directory: %w", err)
	}

	target := filepath.Join(sessionsDir, DBFilename+"."+now.Format(archiveTimeLayout))
	if err := os.Rename(s.path, target); err != nil {
		return "", fmt.Errorf("archiving database: %w", err)
	}

	// WAL side files are normally removed on close; drop leftovers
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(s.path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return target, fmt.Errorf("removing %s file: %w", suffix, err)
		}
	}

	return target, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	latest, err := migrations.Latest(fsys)
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	if currentVersion > latest {
		return fmt.Errorf("database schema version %d is newer than this pikia supports (%d)", currentVersion, latest)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		version, ok := migrations.Version(name)
		if !ok || version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// applyMigration runs one migration and records its version atomically.
func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// constraintError maps SQLite constraint failures onto domain errors.
func constraintError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "FOREIGN KEY constraint failed") || strings.Contains(msg, "CHECK constraint failed") {
		return fmt.Errorf("%w: %v", domain.ErrReferentialIntegrity, err)
	}
	return err
}
