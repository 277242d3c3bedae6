package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrScopeReleased is returned when a scope is used after Release.
var ErrScopeReleased = errors.New("connection scope already released")

// Scope holds at most one connection for the lifetime of a single request.
// The connection is taken from the pool on first use and handed back by
// Release, which callers defer right after creating the scope.
type Scope struct {
	db       *DB
	mode     RowMode
	mu       sync.Mutex
	conn     *sql.Conn
	released bool
}

// Scope creates a request scope that materializes rows in the given mode
func (db *DB) Scope(mode RowMode) (*Scope, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRowMode, mode)
	}
	return &Scope{db: db, mode: mode}, nil
}

// Conn returns the scope's connection, acquiring it on first call.
// Later calls return the same handle.
func (s *Scope) Conn(ctx context.Context) (*sql.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, ErrScopeReleased
	}
	if s.conn != nil {
		return s.conn, nil
	}

	conn, err := s.db.pool.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	s.conn = conn
	return conn, nil
}

// Acquired reports whether a connection is currently held
func (s *Scope) Acquired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Release returns the connection to the pool. Only the first call has any
// effect, so it is safe to defer alongside explicit early releases.
func (s *Scope) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return
	}
	s.released = true

	if s.conn == nil {
		return
	}
	if err := s.conn.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to release database connection")
	}
	s.conn = nil
}

// Query runs query with args and materializes every row in the scope's mode
func (s *Scope) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	out := []Row{}
	err := s.each(ctx, query, args, func(columns []string, values []any) error {
		row, err := materialize(s.mode, columns, values)
		if err != nil {
			return err
		}
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QueryOne returns the first row of the result, or nil when nothing matched
func (s *Scope) QueryOne(ctx context.Context, query string, args ...any) (Row, error) {
	var first Row
	err := s.each(ctx, query, args, func(columns []string, values []any) error {
		if first != nil {
			return nil
		}
		row, err := materialize(s.mode, columns, values)
		if err != nil {
			return err
		}
		first = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return first, nil
}

// Tuples runs query and returns every row as a Tuple regardless of the scope mode
func (s *Scope) Tuples(ctx context.Context, query string, args ...any) ([]Tuple, error) {
	out := []Tuple{}
	err := s.each(ctx, query, args, func(columns []string, values []any) error {
		row, err := materialize(RowTuple, columns, values)
		if err != nil {
			return err
		}
		out = append(out, row.(Tuple))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count runs a count query and returns the first column of the first row
func (s *Scope) Count(ctx context.Context, query string, args ...any) (int64, error) {
	conn, err := s.Conn(ctx)
	if err != nil {
		return 0, err
	}

	log.Trace().Str("query", query).Interface("args", args).Msg("Executing query")

	var v any
	err = conn.QueryRowContext(ctx, query, args...).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to run count query: %w", err)
	}
	return toInt64(v)
}

// each executes query on the scope's connection and calls fn for every row
func (s *Scope) each(ctx context.Context, query string, args []any, fn func(columns []string, values []any) error) error {
	conn, err := s.Conn(ctx)
	if err != nil {
		return err
	}

	log.Trace().Str("query", query).Interface("args", args).Msg("Executing query")

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read columns: %w", err)
	}

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		if err := fn(columns, values); err != nil {
			return err
		}
	}

	return rows.Err()
}
