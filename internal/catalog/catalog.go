// Package catalog implements the read operations of the API as plain Go
// calls. Every operation runs inside a caller-provided database.Scope and
// returns native values shaped by the scope's row mode: records keyed by
// column name or tuples in column order. Turning them into a wire format is
// left to the caller.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tutormatch/tutormatch/internal/database"
	"github.com/tutormatch/tutormatch/internal/queries"
)

// Column lists substituted into the templates
const (
	userColumns     = "u.id, u.name, ut.name AS type"
	skillColumns    = "s.name, s.display_name"
	skillNameColumn = "s.name"
	countColumn     = "count(*)"
)

// QueryObserver is notified after every template execution
type QueryObserver interface {
	ObserveQuery(resource, variant string, duration time.Duration, err error)
}

// Catalog runs the API's read operations
type Catalog struct {
	store    *queries.Store
	observer QueryObserver
}

// New creates a catalog over a validated template store
func New(store *queries.Store) *Catalog {
	return &Catalog{store: store}
}

// SetObserver sets the query observer
func (c *Catalog) SetObserver(o QueryObserver) {
	c.observer = o
}

// UserFilter narrows a user listing. Empty fields do not filter.
type UserFilter struct {
	Type  string
	Skill string
}

// variant returns the template variant and bound arguments for the filter
func (f UserFilter) variant() (string, []any) {
	utype := normalize(f.Type)
	skill := normalize(f.Skill)

	switch {
	case utype != "" && skill != "":
		return queries.VariantTypeSkill, []any{utype, skill}
	case utype != "":
		return queries.VariantType, []any{utype}
	case skill != "":
		return queries.VariantSkill, []any{skill}
	default:
		return queries.VariantBase, nil
	}
}

// normalize lower-cases a path parameter before it is matched
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NotFound is the value single-item lookups return when nothing matches,
// whatever the scope's row mode.
func NotFound() database.Record {
	return database.Record{}
}

func (c *Catalog) observe(resource, variant string, start time.Time, err error) {
	if c.observer != nil {
		c.observer.ObserveQuery(resource, variant, time.Since(start), err)
	}
}

// rows runs a template and materializes its rows in the scope's mode
func (c *Catalog) rows(ctx context.Context, scope *database.Scope, resource, variant, columns string, args ...any) ([]database.Row, error) {
	query, err := c.store.Build(resource, variant, columns)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := scope.Query(ctx, query, args...)
	c.observe(resource, variant, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s/%s: %w", resource, variant, err)
	}
	return rows, nil
}

// tuples runs a template and returns its rows positionally
func (c *Catalog) tuples(ctx context.Context, scope *database.Scope, resource, variant, columns string, args ...any) ([]database.Tuple, error) {
	query, err := c.store.Build(resource, variant, columns)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := scope.Tuples(ctx, query, args...)
	c.observe(resource, variant, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s/%s: %w", resource, variant, err)
	}
	return rows, nil
}

// count runs the count(*) form of a template
func (c *Catalog) count(ctx context.Context, scope *database.Scope, resource, variant string, args ...any) (int64, error) {
	query, err := c.store.Build(resource, variant, countColumn)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	n, err := scope.Count(ctx, query, args...)
	c.observe(resource, variant, start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s/%s: %w", resource, variant, err)
	}
	return n, nil
}

// first runs a template and returns its first row, or NotFound
func (c *Catalog) first(ctx context.Context, scope *database.Scope, resource, variant, columns string, args ...any) (database.Row, error) {
	query, err := c.store.Build(resource, variant, columns)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	row, err := scope.QueryOne(ctx, query, args...)
	c.observe(resource, variant, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s/%s: %w", resource, variant, err)
	}
	if row == nil {
		return NotFound(), nil
	}
	return row, nil
}
