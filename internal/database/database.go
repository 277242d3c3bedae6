package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Supported database/sql driver names.
const (
	// DriverModernc is the pure-Go SQLite driver (default).
	DriverModernc = "sqlite"
	// DriverMattn is the cgo SQLite driver.
	DriverMattn = "sqlite3"
)

// Options controls how the database file is opened
type Options struct {
	// Driver is one of DriverModernc or DriverMattn. Empty means DriverModernc.
	Driver string
	// ReadOnly opens the file with mode=ro. The serving path never writes.
	ReadOnly bool
	// BusyTimeout is how long a statement waits on a locked file.
	BusyTimeout time.Duration
	// MaxOpenConns caps concurrently held connections (one per in-flight request).
	MaxOpenConns int
	// MaxIdleConns is the number of connections kept warm between requests.
	MaxIdleConns int
}

// DefaultOptions returns the options used by the API server
func DefaultOptions() Options {
	return Options{
		Driver:       DriverModernc,
		ReadOnly:     true,
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}
}

// DB wraps the SQLite connection pool
type DB struct {
	pool     *sql.DB
	path     string
	driver   string
	readOnly bool
	mu       sync.Mutex
}

// Open opens the SQLite database at path and verifies it is reachable
func Open(path string, opts Options) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if opts.Driver == "" {
		opts.Driver = DriverModernc
	}

	dsn, err := buildDSN(path, opts)
	if err != nil {
		return nil, err
	}

	pool, err := sql.Open(sqlDriverName(opts.Driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := pool.Ping(); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(opts.MaxIdleConns)
	}

	log.Debug().
		Str("path", path).
		Str("driver", opts.Driver).
		Bool("read_only", opts.ReadOnly).
		Msg("Database connection established")

	return &DB{
		pool:     pool,
		path:     path,
		driver:   opts.Driver,
		readOnly: opts.ReadOnly,
	}, nil
}

// uriPathEscaper escapes the characters that would end or corrupt the path
// part of a file: URI. SQLite decodes %HH escapes before opening the file.
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// buildDSN renders a file: URI understood by the selected driver
func buildDSN(path string, opts Options) (string, error) {
	mode := "rwc"
	if opts.ReadOnly {
		mode = "ro"
	}
	busy := opts.BusyTimeout.Milliseconds()
	path = uriPathEscaper.Replace(path)

	switch opts.Driver {
	case DriverModernc:
		return fmt.Sprintf("file:%s?mode=%s&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", path, mode, busy), nil
	case DriverMattn:
		return fmt.Sprintf("file:%s?mode=%s&_busy_timeout=%d&_foreign_keys=on", path, mode, busy), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Driver returns the configured driver, DriverModernc or DriverMattn
func (db *DB) Driver() string {
	return db.driver
}

// Stats returns connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.pool.Stats()
}

// ReadOnly reports whether the file was opened with mode=ro
func (db *DB) ReadOnly() bool {
	return db.readOnly
}

// Close closes the connection pool
func (db *DB) Close() error {
	return db.pool.Close()
}

// Transaction wraps a function in a database transaction
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("Failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
