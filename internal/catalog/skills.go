package catalog

import (
	"context"

	"github.com/tutormatch/tutormatch/internal/database"
	"github.com/tutormatch/tutormatch/internal/queries"
)

// Skills returns every skill's name and display name
func (c *Catalog) Skills(ctx context.Context, scope *database.Scope) ([]database.Row, error) {
	return c.rows(ctx, scope, queries.ResourceSkills, queries.VariantBase, skillColumns)
}

// CountSkills returns the number of skills
func (c *Catalog) CountSkills(ctx context.Context, scope *database.Scope) (int64, error) {
	return c.count(ctx, scope, queries.ResourceSkills, queries.VariantBase)
}

// SkillByID returns a single skill by id, or NotFound
func (c *Catalog) SkillByID(ctx context.Context, scope *database.Scope, id int64) (database.Row, error) {
	return c.first(ctx, scope, queries.ResourceSkills, queries.VariantID, skillColumns, id)
}

// SkillByName returns a single skill by its short name, or NotFound.
// Matching is case-insensitive.
func (c *Catalog) SkillByName(ctx context.Context, scope *database.Scope, name string) (database.Row, error) {
	return c.first(ctx, scope, queries.ResourceSkills, queries.VariantName, skillColumns, normalize(name))
}
