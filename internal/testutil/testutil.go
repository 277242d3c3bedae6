// Package testutil builds seeded SQLite databases for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tutormatch/tutormatch/internal/database"
	"github.com/tutormatch/tutormatch/internal/seed"
)

// Fixture is the seed document shared by catalog and handler tests.
//
//	Alice (tutor)   go, python
//	Bob   (Student) python
//	Carol (tutor)   calculus
//	Dave  (Student) -
var Fixture = seed.Document{
	"User_Type": {
		Columns: []string{"name"},
		Rows:    [][]any{{"tutor"}, {"Student"}},
	},
	"Skill": {
		Columns: []string{"name", "display_name"},
		Rows:    [][]any{{"python", "Python"}, {"go", "Go"}, {"calculus", "Calculus"}},
	},
	"User": {
		Columns: []string{"name", "utype"},
		Rows:    [][]any{{"Alice", int64(1)}, {"Bob", int64(2)}, {"Carol", int64(1)}, {"Dave", int64(2)}},
	},
	"User_Skill": {
		Columns: []string{"user_id", "skill_id"},
		Rows:    [][]any{{int64(1), int64(1)}, {int64(1), int64(2)}, {int64(2), int64(1)}, {int64(3), int64(3)}},
	},
}

// UnicodeFixture holds names whose capitals fall outside ASCII.
//
//	Ana (tutor) python
//	Zoé (Élève) Éclair
var UnicodeFixture = seed.Document{
	"User_Type": {
		Columns: []string{"name"},
		Rows:    [][]any{{"tutor"}, {"Élève"}},
	},
	"Skill": {
		Columns: []string{"name", "display_name"},
		Rows:    [][]any{{"python", "Python"}, {"Éclair", "Éclair"}},
	},
	"User": {
		Columns: []string{"name", "utype"},
		Rows:    [][]any{{"Ana", int64(1)}, {"Zoé", int64(2)}},
	},
	"User_Skill": {
		Columns: []string{"user_id", "skill_id"},
		Rows:    [][]any{{int64(1), int64(1)}, {int64(2), int64(2)}},
	},
}

// OpenSeededDB seeds doc into a fresh database file under t.TempDir and
// returns a read-only handle to it. The handle is closed on cleanup.
func OpenSeededDB(t *testing.T, doc seed.Document) *database.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.sqlite")

	opts := database.DefaultOptions()
	opts.ReadOnly = false
	w, err := database.Open(path, opts)
	if err != nil {
		t.Fatalf("failed to open db for seeding: %v", err)
	}
	if _, err := seed.Apply(context.Background(), w, doc, seed.Options{}); err != nil {
		_ = w.Close()
		t.Fatalf("failed to seed db: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close seeding db: %v", err)
	}

	db, err := database.Open(path, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Scope opens a scope in the given mode, released on cleanup
func Scope(t *testing.T, db *database.DB, mode database.RowMode) *database.Scope {
	t.Helper()
	scope, err := db.Scope(mode)
	if err != nil {
		t.Fatalf("failed to create scope: %v", err)
	}
	t.Cleanup(scope.Release)
	return scope
}
