package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// cliName is used for state directory paths. Default is "teactl".
var cliName = "teactl"

// SetCLIName sets the CLI name used for state directory paths.
// Call this at startup to isolate state between different tools
// built on this package.
func SetCLIName(name string) {
	cliName = name
}

// CredentialStore is the durable home of the one opaque credential.
// It survives process restarts; the Manager is its only writer.
type CredentialStore interface {
	// Load returns the stored credential, or "" when none is stored.
	Load() (string, error)
	// Save replaces the stored credential.
	Save(credential string) error
	// Clear removes the stored credential. Clearing an empty store is a no-op.
	Clear() error
}

// Store is a SQLite-backed CredentialStore.
type Store struct {
	db *sql.DB
}

// DefaultStorePath returns the default database path following the XDG spec.
func DefaultStorePath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, cliName, cliName+".db")
}

// OpenStore opens or creates a SQLite database at the given path.
func OpenStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode lets a concurrent reader (e.g. a second teactl invocation)
	// see committed changes without blocking the writer.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Without a busy timeout, concurrent writes immediately return SQLITE_BUSY.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS credentials (
		id       TEXT PRIMARY KEY,
		token    TEXT NOT NULL,
		saved_at TIMESTAMP NOT NULL
	);
	`)
	return err
}

// Load returns the stored credential, or "" when none is stored.
func (s *Store) Load() (string, error) {
	var token string
	err := s.db.QueryRow(`SELECT token FROM credentials ORDER BY saved_at DESC LIMIT 1`).Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	return token, nil
}

// Save replaces the stored credential. At most one credential is kept.
func (s *Store) Save(credential string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM credentials`); err != nil {
		return fmt.Errorf("failed to clear previous credential: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO credentials (id, token, saved_at) VALUES (?, ?, ?)`,
		uuid.NewString(), credential, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	return tx.Commit()
}

// Clear removes the stored credential.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM credentials`); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
