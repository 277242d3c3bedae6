package database

import (
	"context"
	"errors"
	"fmt"
)

// ErrReadOnly is returned by maintenance operations on a read-only handle.
var ErrReadOnly = errors.New("database is opened read-only")

// Optimize runs SQLite's PRAGMA optimize to refresh planner stats.
func (db *DB) Optimize(ctx context.Context) error {
	if db == nil || db.pool == nil {
		return fmt.Errorf("database not initialized")
	}
	if db.ReadOnly() {
		return ErrReadOnly
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.pool.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		return fmt.Errorf("failed to optimize database: %w", err)
	}

	return nil
}

// Vacuum rebuilds the database file to reclaim unused space.
func (db *DB) Vacuum(ctx context.Context) error {
	if db == nil || db.pool == nil {
		return fmt.Errorf("database not initialized")
	}
	if db.ReadOnly() {
		return ErrReadOnly
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.pool.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}

	return nil
}
