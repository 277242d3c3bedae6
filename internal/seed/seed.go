// Package seed loads table definitions and rows from a JSON document into a
// fresh SQLite database. It is an offline tool and never runs while serving.
package seed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tutormatch/tutormatch/internal/database"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Table is one table definition in a seed document
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Document maps table name to its definition
type Document map[string]Table

// Options controls how a document is applied
type Options struct {
	// Force drops tables that already exist before creating them.
	Force bool
}

// Result summarises an applied document
type Result struct {
	Tables int
	Rows   int
}

// Decode reads a seed document. Numbers are kept as int64 where they are
// integral so ids and foreign keys are stored as INTEGER.
func Decode(r io.Reader) (Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode seed document: %w", err)
	}

	for name, table := range doc {
		for i, row := range table.Rows {
			for j, v := range row {
				table.Rows[i][j] = convertNumber(v)
			}
		}
		doc[name] = table
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeFile reads a seed document from path
func DecodeFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file %q: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

func convertNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// Validate checks identifiers and row widths
func (d Document) Validate() error {
	if len(d) == 0 {
		return fmt.Errorf("seed document has no tables")
	}
	for name, table := range d {
		if !identifierRe.MatchString(name) {
			return fmt.Errorf("invalid table name %q", name)
		}
		if len(table.Columns) == 0 {
			return fmt.Errorf("table %s has no columns", name)
		}
		for _, col := range table.Columns {
			if !identifierRe.MatchString(col) {
				return fmt.Errorf("table %s: invalid column name %q", name, col)
			}
			if strings.EqualFold(col, "id") {
				return fmt.Errorf("table %s: column id is assigned automatically", name)
			}
		}
		for i, row := range table.Rows {
			if len(row) != len(table.Columns) {
				return fmt.Errorf("table %s row %d: expected %d values, got %d", name, i+1, len(table.Columns), len(row))
			}
		}
	}
	return nil
}

// TableNames returns the document's tables in the order they are created
func (d Document) TableNames() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Apply creates every table in doc and inserts its rows with sequential ids
// starting at 1. Everything happens in a single transaction.
func Apply(ctx context.Context, db *database.DB, doc Document, opts Options) (*Result, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	result := &Result{}
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, name := range doc.TableNames() {
			table := doc[name]

			if opts.Force {
				if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, name)); err != nil {
					return fmt.Errorf("failed to drop table %s: %w", name, err)
				}
			}

			create := createStatement(name, table.Columns)
			log.Debug().Str("table", name).Str("query", create).Msg("Creating table")
			if _, err := tx.ExecContext(ctx, create); err != nil {
				return fmt.Errorf("failed to create table %s: %w", name, err)
			}

			if len(table.Rows) == 0 {
				result.Tables++
				continue
			}

			insert := insertStatement(name, table.Columns)
			stmt, err := tx.PrepareContext(ctx, insert)
			if err != nil {
				return fmt.Errorf("failed to prepare insert for %s: %w", name, err)
			}
			for i, row := range table.Rows {
				args := make([]any, 0, len(row)+1)
				args = append(args, int64(i+1))
				args = append(args, row...)
				if _, err := stmt.ExecContext(ctx, args...); err != nil {
					_ = stmt.Close()
					return fmt.Errorf("failed to insert row %d into %s: %w", i+1, name, err)
				}
			}
			if err := stmt.Close(); err != nil {
				return fmt.Errorf("failed to finalize insert for %s: %w", name, err)
			}

			log.Debug().Str("table", name).Int("rows", len(table.Rows)).Msg("Inserted rows")
			result.Tables++
			result.Rows += len(table.Rows)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func createStatement(name string, columns []string) string {
	quoted := make([]string, 0, len(columns)+1)
	quoted = append(quoted, "id INTEGER PRIMARY KEY")
	for _, col := range columns {
		quoted = append(quoted, `"`+col+`"`)
	}
	return fmt.Sprintf(`CREATE TABLE "%s" (%s)`, name, strings.Join(quoted, ", "))
}

func insertStatement(name string, columns []string) string {
	cols := make([]string, 0, len(columns)+1)
	cols = append(cols, "id")
	for _, col := range columns {
		cols = append(cols, `"`+col+`"`)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf(`INSERT INTO "%s" (%s) VALUES (%s)`, name, strings.Join(cols, ", "), placeholders)
}
