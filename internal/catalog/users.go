package catalog

import (
	"context"
	"fmt"

	"github.com/tutormatch/tutormatch/internal/database"
	"github.com/tutormatch/tutormatch/internal/queries"
)

// Users returns every user matching the filter with their skill names
// attached. The internal id is not part of the returned rows.
func (c *Catalog) Users(ctx context.Context, scope *database.Scope, filter UserFilter) ([]database.Row, error) {
	variant, args := filter.variant()

	users, err := c.rows(ctx, scope, queries.ResourceUsers, variant, userColumns, args...)
	if err != nil {
		return nil, err
	}

	for i, user := range users {
		if users[i], err = c.attachSkills(ctx, scope, user); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// CountUsers returns the number of users matching the filter
func (c *Catalog) CountUsers(ctx context.Context, scope *database.Scope, filter UserFilter) (int64, error) {
	variant, args := filter.variant()
	return c.count(ctx, scope, queries.ResourceUsers, variant, args...)
}

// User returns a single user by id, or NotFound
func (c *Catalog) User(ctx context.Context, scope *database.Scope, id int64) (database.Row, error) {
	user, err := c.first(ctx, scope, queries.ResourceUsers, queries.VariantID, userColumns, id)
	if err != nil {
		return nil, err
	}
	if rec, ok := user.(database.Record); ok && len(rec) == 0 {
		return user, nil
	}
	return c.attachSkills(ctx, scope, user)
}

// SkillsForUser returns the skill names joined to a user id
func (c *Catalog) SkillsForUser(ctx context.Context, scope *database.Scope, userID any) ([]string, error) {
	rows, err := c.tuples(ctx, scope, queries.ResourceSkills, queries.VariantForUser, skillNameColumn, userID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if name, ok := row[0].(string); ok {
			names = append(names, name)
		} else {
			names = append(names, fmt.Sprint(row[0]))
		}
	}
	return names, nil
}

// attachSkills adds the user's skill names and drops the id. A record gains
// a "skills" key; a tuple (id, name, type) becomes (name, type, skills).
func (c *Catalog) attachSkills(ctx context.Context, scope *database.Scope, user database.Row) (database.Row, error) {
	switch u := user.(type) {
	case database.Record:
		skills, err := c.SkillsForUser(ctx, scope, u["id"])
		if err != nil {
			return nil, err
		}
		u["skills"] = skills
		delete(u, "id")
		return u, nil
	case database.Tuple:
		if len(u) == 0 {
			return nil, fmt.Errorf("user row has no columns")
		}
		skills, err := c.SkillsForUser(ctx, scope, u[0])
		if err != nil {
			return nil, err
		}
		out := make(database.Tuple, 0, len(u))
		out = append(out, u[1:]...)
		return append(out, skills), nil
	default:
		return nil, fmt.Errorf("unexpected user row of type %T", user)
	}
}
