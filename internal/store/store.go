package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/text/unicode/norm"
)

// Schema version tracking:
// 0 - Instance not created by Home (or creation interrupted)
// 1 - Schema statements applied
const currentSchemaVersion = 1

// fileSuffix is appended to instance names to form the database file name.
const fileSuffix = ".db"

// Home manages named database instances under a storage root.
type Home struct {
	root string
}

// StartInstance prepares the storage root and returns a Home for it.
// The directory is created with mode 0700 if it does not exist.
//
// This function is idempotent - safe to call on every process start.
func StartInstance(root string) (*Home, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage root is required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}

	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	return &Home{root: abs}, nil
}

// Root returns the absolute storage root.
func (h *Home) Root() string {
	return h.root
}

// Path returns the database file path for a named instance.
func (h *Home) Path(name string) (string, error) {
	n, err := normalizeName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(h.root, n+fileSuffix), nil
}

// Exists reports whether the named instance has been created.
// Invalid names never exist.
func (h *Home) Exists(name string) bool {
	path, err := h.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Create creates the named instance and issues the schema statements once,
// inside a single transaction. Returns ErrExists if the instance is present.
//
// If any schema statement fails the partially created files are removed so
// the next Create starts clean.
func (h *Home) Create(ctx context.Context, name string, schema ...string) (*Conn, error) {
	path, err := h.Path(name)
	if err != nil {
		return nil, err
	}
	if h.Exists(name) {
		return nil, fmt.Errorf("%w: %s", ErrExists, name)
	}

	c, err := openConn(name, path, "rwc")
	if err != nil {
		return nil, err
	}

	if err := applySchema(ctx, c.db, schema); err != nil {
		c.Close()
		removeInstanceFiles(path)
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return c, nil
}

// Connect opens an existing named instance.
// Returns ErrNotFound if the instance has not been created.
func (h *Home) Connect(name string) (*Conn, error) {
	path, err := h.Path(name)
	if err != nil {
		return nil, err
	}
	if !h.Exists(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return openConn(name, path, "rw")
}

// Open connects to the named instance, creating it with schema when absent.
func (h *Home) Open(ctx context.Context, name string, schema ...string) (*Conn, error) {
	if h.Exists(name) {
		return h.Connect(name)
	}
	return h.Create(ctx, name, schema...)
}

// Conn is a handle to an open database instance.
// Safe for use from multiple goroutines; statements are serialized by the
// single pooled connection.
type Conn struct {
	name   string
	path   string
	db     *sql.DB
	closed atomic.Bool
}

// openConn opens the database file with the given SQLite open mode
// ("rw" or "rwc") and verifies the connection.
func openConn(name, path, mode string) (*Conn, error) {
	db, err := sql.Open("sqlite3", dsn(path, mode))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for SQLite
	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1) // Single writer to avoid SQLITE_BUSY errors
	db.SetMaxIdleConns(1) // Keep one connection ready
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Conn{name: name, path: path, db: db}, nil
}

// dsn builds a SQLite URI filename. Pragmas are passed as DSN parameters so
// they apply to every connection the pool opens.
func dsn(path, mode string) string {
	q := url.Values{}
	q.Set("mode", mode)
	q.Set("_journal_mode", "WAL")
	q.Set("_synchronous", "NORMAL")
	q.Set("_busy_timeout", "5000")
	q.Set("_foreign_keys", "on")
	return "file:" + path + "?" + q.Encode()
}

// Name returns the instance name the handle was opened for.
func (c *Conn) Name() string {
	return c.name
}

// Path returns the database file path.
func (c *Conn) Path() string {
	return c.path
}

// SchemaVersion returns the recorded user_version of the instance.
func (c *Conn) SchemaVersion(ctx context.Context) (int, error) {
	if c.isClosed() {
		return 0, ErrClosed
	}
	var version int
	if err := c.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// Close releases the handle. Safe to call on a nil handle and more than once.
func (c *Conn) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.db.Close()
}

func (c *Conn) isClosed() bool {
	return c == nil || c.db == nil || c.closed.Load()
}

// applySchema runs the schema statements and records the schema version.
func applySchema(ctx context.Context, db *sql.DB, schema []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return newExecutionError(stmt, err)
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return tx.Commit()
}

// normalizeName validates an instance name and returns its NFC form, so the
// same name typed with composed or decomposed characters maps to one file.
func normalizeName(name string) (string, error) {
	n := norm.NFC.String(strings.TrimSpace(name))
	switch {
	case n == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.ContainsAny(n, `/\`):
		return "", fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.HasPrefix(n, "."):
		return "", fmt.Errorf("%w: %q starts with a dot", ErrInvalidName, name)
	}
	return n, nil
}

// removeInstanceFiles deletes a database file and its WAL sidecars.
func removeInstanceFiles(path string) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (c *Conn) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := c.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
