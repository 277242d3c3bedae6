package database

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	opts := DefaultOptions()
	opts.ReadOnly = false
	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite"), opts)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.pool.Exec(`
		CREATE TABLE Skill (id INTEGER PRIMARY KEY, name, display_name);
		INSERT INTO Skill VALUES (1, 'python', 'Python'), (2, 'go', 'Go');
	`); err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}
	return db
}

func TestScope_ConnIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	scope, err := db.Scope(RowRecord)
	if err != nil {
		t.Fatalf("Scope returned error: %v", err)
	}
	defer scope.Release()

	if scope.Acquired() {
		t.Fatal("expected no connection before first use")
	}

	first, err := scope.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn returned error: %v", err)
	}
	second, err := scope.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn returned error: %v", err)
	}
	if first != second {
		t.Fatal("expected the same connection handle within one scope")
	}
	if !scope.Acquired() {
		t.Fatal("expected connection to be held")
	}
}

func TestScope_ReleaseOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	scope, err := db.Scope(RowRecord)
	if err != nil {
		t.Fatalf("Scope returned error: %v", err)
	}
	if _, err := scope.Conn(ctx); err != nil {
		t.Fatalf("Conn returned error: %v", err)
	}

	scope.Release()
	scope.Release()

	if scope.Acquired() {
		t.Fatal("expected connection to be released")
	}
	if _, err := scope.Conn(ctx); !errors.Is(err, ErrScopeReleased) {
		t.Fatalf("expected ErrScopeReleased, got %v", err)
	}
	if _, err := scope.Query(ctx, "SELECT name FROM Skill"); !errors.Is(err, ErrScopeReleased) {
		t.Fatalf("expected ErrScopeReleased from query, got %v", err)
	}
}

func TestScope_ReleaseWithoutUse(t *testing.T) {
	db := openTestDB(t)

	scope, err := db.Scope(RowTuple)
	if err != nil {
		t.Fatalf("Scope returned error: %v", err)
	}
	scope.Release()

	if scope.Acquired() {
		t.Fatal("expected no connection to be held")
	}
}

func TestScope_ConnectionReturnedToPool(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		scope, err := db.Scope(RowRecord)
		if err != nil {
			t.Fatalf("Scope returned error: %v", err)
		}
		if _, err := scope.Count(ctx, "SELECT count(*) FROM Skill"); err != nil {
			t.Fatalf("Count returned error: %v", err)
		}
		scope.Release()
	}

	if inUse := db.pool.Stats().InUse; inUse != 0 {
		t.Fatalf("expected 0 connections in use, got %d", inUse)
	}
}

func TestScope_UnknownRowMode(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Scope(RowMode(42)); !errors.Is(err, ErrUnknownRowMode) {
		t.Fatalf("expected ErrUnknownRowMode, got %v", err)
	}
}

func TestScope_QueryMaterializesByMode(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	query := "SELECT name, display_name FROM Skill ORDER BY id"

	tests := []struct {
		name     string
		mode     RowMode
		expected []Row
	}{
		{
			name: "record",
			mode: RowRecord,
			expected: []Row{
				Record{"name": "python", "display_name": "Python"},
				Record{"name": "go", "display_name": "Go"},
			},
		},
		{
			name: "tuple",
			mode: RowTuple,
			expected: []Row{
				Tuple{"python", "Python"},
				Tuple{"go", "Go"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := db.Scope(tt.mode)
			if err != nil {
				t.Fatalf("Scope returned error: %v", err)
			}
			defer scope.Release()

			rows, err := scope.Query(ctx, query)
			if err != nil {
				t.Fatalf("Query returned error: %v", err)
			}
			if !reflect.DeepEqual(rows, tt.expected) {
				t.Errorf("Query() = %#v, want %#v", rows, tt.expected)
			}
		})
	}
}

func TestScope_QueryOne(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	scope, err := db.Scope(RowRecord)
	if err != nil {
		t.Fatalf("Scope returned error: %v", err)
	}
	defer scope.Release()

	row, err := scope.QueryOne(ctx, "SELECT name FROM Skill WHERE id = ?", 2)
	if err != nil {
		t.Fatalf("QueryOne returned error: %v", err)
	}
	rec, ok := row.(Record)
	if !ok || rec["name"] != "go" {
		t.Fatalf("expected record for go, got %#v", row)
	}

	row, err = scope.QueryOne(ctx, "SELECT name FROM Skill WHERE id = ?", 99)
	if err != nil {
		t.Fatalf("QueryOne returned error: %v", err)
	}
	if row != nil {
		t.Fatalf("expected nil for no match, got %#v", row)
	}
}

func TestScope_Count(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	scope, err := db.Scope(RowTuple)
	if err != nil {
		t.Fatalf("Scope returned error: %v", err)
	}
	defer scope.Release()

	n, err := scope.Count(ctx, "SELECT count(*) FROM Skill WHERE name = ?", "python")
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected count 1, got %d", n)
	}
}

func TestScope_QueryEmptyIsNotNil(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	scope, err := db.Scope(RowRecord)
	if err != nil {
		t.Fatalf("Scope returned error: %v", err)
	}
	defer scope.Release()

	rows, err := scope.Query(ctx, "SELECT name FROM Skill WHERE id < 0")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", rows)
	}
}

func TestScope_QueryErrorPropagates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	scope, err := db.Scope(RowRecord)
	if err != nil {
		t.Fatalf("Scope returned error: %v", err)
	}
	defer scope.Release()

	if _, err := scope.Query(ctx, "SELECT * FROM Missing"); err == nil {
		t.Fatal("expected error for missing table")
	}
}

func TestOpen_ReadOnlyRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.sqlite")

	opts := DefaultOptions()
	opts.ReadOnly = false
	w, err := Open(path, opts)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if _, err := w.pool.Exec("CREATE TABLE t (id INTEGER)"); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	_ = w.Close()

	ro, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open read-only db: %v", err)
	}
	defer ro.Close()

	if _, err := ro.pool.Exec("INSERT INTO t VALUES (1)"); err == nil {
		t.Fatal("expected write to fail on read-only database")
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	opts := DefaultOptions()
	opts.Driver = "postgres"
	if _, err := Open(filepath.Join(t.TempDir(), "x.sqlite"), opts); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestMaintenance(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Optimize(ctx); err != nil {
		t.Fatalf("Optimize returned error: %v", err)
	}
	if err := db.Vacuum(ctx); err != nil {
		t.Fatalf("Vacuum returned error: %v", err)
	}

	ro, err := Open(db.Path(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open read-only db: %v", err)
	}
	defer ro.Close()

	if !ro.ReadOnly() {
		t.Fatal("expected read-only handle")
	}
	if err := ro.Vacuum(ctx); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}

func TestScope_CountIsTraced(t *testing.T) {
	db := openTestDB(t)

	var buf bytes.Buffer
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	scope, err := db.Scope(RowTuple)
	if err != nil {
		t.Fatalf("Scope returned error: %v", err)
	}
	defer scope.Release()

	if _, err := scope.Count(context.Background(), "SELECT count(*) FROM Skill WHERE name = ?", "go"); err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "SELECT count(*) FROM Skill WHERE name = ?") {
		t.Fatalf("expected count query in trace log, got %q", buf.String())
	}
}

func TestCaseFold_Unicode(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.pool.Exec(`INSERT INTO Skill VALUES (3, 'Éclair', 'Éclair')`); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}

	scope, err := db.Scope(RowTuple)
	if err != nil {
		t.Fatalf("Scope returned error: %v", err)
	}
	defer scope.Release()

	row, err := scope.QueryOne(ctx, "SELECT casefold(name), casefold(NULL) FROM Skill WHERE id = 3")
	if err != nil {
		t.Fatalf("QueryOne returned error: %v", err)
	}
	expected := Tuple{"éclair", nil}
	if !reflect.DeepEqual(row, expected) {
		t.Fatalf("expected %#v, got %#v", expected, row)
	}

	n, err := scope.Count(ctx, "SELECT count(*) FROM Skill WHERE casefold(name) = casefold(?)", "ÉCLAIR")
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected non-ASCII name to match, got %d", n)
	}
}

func TestBuildDSN_EscapesPath(t *testing.T) {
	dsn, err := buildDSN("/data/a?b#c%d.sqlite", DefaultOptions())
	if err != nil {
		t.Fatalf("buildDSN returned error: %v", err)
	}
	if !strings.HasPrefix(dsn, "file:/data/a%3Fb%23c%25d.sqlite?mode=ro&") {
		t.Fatalf("expected escaped path, got %q", dsn)
	}
}

func TestOpen_PathWithURICharacters(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "odd?dir#1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	path := filepath.Join(dir, "test.sqlite")

	opts := DefaultOptions()
	opts.ReadOnly = false
	db, err := Open(path, opts)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if _, err := db.pool.Exec("CREATE TABLE t (id INTEGER)"); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	_ = db.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file at %s: %v", path, err)
	}
}
