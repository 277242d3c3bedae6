package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tutormatch/tutormatch/internal/database"
)

// Skills lists every skill
func (h *Handlers) Skills(r *http.Request, scope *database.Scope) (any, error) {
	return h.catalog.Skills(r.Context(), scope)
}

// SkillsCount counts every skill
func (h *Handlers) SkillsCount(r *http.Request, scope *database.Scope) (any, error) {
	return h.catalog.CountSkills(r.Context(), scope)
}

// SkillByIDOrName serves /skills/{key}: a numeric key is a skill id,
// anything else is the skill's short name. Skills named "count" or with an
// all-digit name are shadowed by /skills/count and the id lookup.
func (h *Handlers) SkillByIDOrName(r *http.Request, scope *database.Scope) (any, error) {
	key := chi.URLParam(r, "key")
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		return h.catalog.SkillByID(r.Context(), scope, id)
	}
	return h.catalog.SkillByName(r.Context(), scope, key)
}
