package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tutormatch/tutormatch/internal/catalog"
	"github.com/tutormatch/tutormatch/internal/database"
)

// Users lists every user
func (h *Handlers) Users(r *http.Request, scope *database.Scope) (any, error) {
	return h.catalog.Users(r.Context(), scope, catalog.UserFilter{})
}

// UsersCount counts every user
func (h *Handlers) UsersCount(r *http.Request, scope *database.Scope) (any, error) {
	return h.catalog.CountUsers(r.Context(), scope, catalog.UserFilter{})
}

// UserByIDOrType serves /users/{key}: a numeric key is a user id, anything
// else is a user type name. A type whose name is all digits, or is "count"
// or "with", cannot be reached here since those keys resolve to an id or to
// the /count and /with routes first.
func (h *Handlers) UserByIDOrType(r *http.Request, scope *database.Scope) (any, error) {
	key := chi.URLParam(r, "key")
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		return h.catalog.User(r.Context(), scope, id)
	}
	return h.catalog.Users(r.Context(), scope, catalog.UserFilter{Type: key})
}

// UsersByTypeCount counts users of a type
func (h *Handlers) UsersByTypeCount(r *http.Request, scope *database.Scope) (any, error) {
	filter := catalog.UserFilter{Type: chi.URLParam(r, "key")}
	return h.catalog.CountUsers(r.Context(), scope, filter)
}

// UsersBySkill lists users that have a skill
func (h *Handlers) UsersBySkill(r *http.Request, scope *database.Scope) (any, error) {
	filter := catalog.UserFilter{Skill: chi.URLParam(r, "skill")}
	return h.catalog.Users(r.Context(), scope, filter)
}

// UsersBySkillCount counts users that have a skill
func (h *Handlers) UsersBySkillCount(r *http.Request, scope *database.Scope) (any, error) {
	filter := catalog.UserFilter{Skill: chi.URLParam(r, "skill")}
	return h.catalog.CountUsers(r.Context(), scope, filter)
}

// UsersByTypeAndSkill lists users of a type that have a skill
func (h *Handlers) UsersByTypeAndSkill(r *http.Request, scope *database.Scope) (any, error) {
	filter := catalog.UserFilter{Type: chi.URLParam(r, "key"), Skill: chi.URLParam(r, "skill")}
	return h.catalog.Users(r.Context(), scope, filter)
}

// UsersByTypeAndSkillCount counts users of a type that have a skill
func (h *Handlers) UsersByTypeAndSkillCount(r *http.Request, scope *database.Scope) (any, error) {
	filter := catalog.UserFilter{Type: chi.URLParam(r, "key"), Skill: chi.URLParam(r, "skill")}
	return h.catalog.CountUsers(r.Context(), scope, filter)
}
