package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mjansen/recipebox/internal/auth"
	"github.com/mjansen/recipebox/internal/httpx"
	"github.com/mjansen/recipebox/internal/models"
	"github.com/mjansen/recipebox/internal/policy"
)

// authorize checks the policy table for the action and writes the failure
// response itself. Anonymous requesters get 401, authenticated ones
// lacking the role get 403.
func authorize(w http.ResponseWriter, r *http.Request, resource policy.Resource, action policy.Action) (*models.User, bool) {
	user, _ := auth.UserFromContext(r.Context())
	if !policy.Satisfies(user, policy.RequiredRole(resource, action)) {
		if user == nil {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		} else {
			httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		}
		return nil, false
	}
	return user, true
}

// urlID parses the {id} route parameter. Zero or garbage reads as "no such
// resource" so probing with bad ids gets the same 404 as a foreign id.
func urlID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// pagination reads limit/page query params the same way every list
// endpoint does.
func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}
