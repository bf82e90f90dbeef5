package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mjansen/recipebox/internal/auth"
	"github.com/mjansen/recipebox/internal/httpx"
	"github.com/mjansen/recipebox/internal/policy"
	"github.com/mjansen/recipebox/internal/services"
)

type UserHandler struct {
	users   *services.UserService
	tokens  *auth.TokenManager
	limiter *auth.RateLimiter
}

func NewUserHandler(users *services.UserService, tokens *auth.TokenManager, limiter *auth.RateLimiter) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, limiter: limiter}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, policy.ResourceUser, policy.ActionCreate); !ok {
		return
	}
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	user, violations, err := h.users.CreateUser(input.Email, input.Password, input.Name)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", violations)
			return
		}
		log.Error().Err(err).Msg("create user")
		httpx.JSONError(w, http.StatusInternalServerError, "user_create_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, policy.ResourceUser, policy.ActionList); !ok {
		return
	}
	limit, offset := pagination(r)
	users, total, err := h.users.List(limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("list users")
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_users", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.ListResponse{Items: users, Total: total, Limit: limit, Offset: offset})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, policy.ResourceUser, policy.ActionRetrieve); !ok {
		return
	}
	id, ok := urlID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	user, err := h.users.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		log.Error().Err(err).Msg("get user")
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_get_user", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

// Patch is the self-service profile update: name and password only. Staff
// may edit any account; everyone else only their own.
func (h *UserHandler) Patch(w http.ResponseWriter, r *http.Request) {
	requester, ok := authorize(w, r, policy.ResourceUser, policy.ActionPartialUpdate)
	if !ok {
		return
	}
	id, ok := urlID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if requester.ID != id && !requester.IsAdmin() {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	var input struct {
		Name     *string `json:"name"`
		Password *string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	user, violations, err := h.users.Update(id, services.UserUpdate{Name: input.Name, Password: input.Password})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		case errors.Is(err, services.ErrValidation):
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", violations)
		default:
			log.Error().Err(err).Msg("update user")
			httpx.JSONError(w, http.StatusInternalServerError, "user_update_failed", nil)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, policy.ResourceUser, policy.ActionDelete); !ok {
		return
	}
	id, ok := urlID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if err := h.users.Delete(id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		log.Error().Err(err).Msg("delete user")
		httpx.JSONError(w, http.StatusInternalServerError, "user_delete_failed", nil)
		return
	}
	httpx.NoContent(w)
}

// Login verifies credentials and issues the token pair. Unknown email and
// wrong password share one response so accounts cannot be enumerated.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(clientIP(r)) {
		httpx.JSON(w, http.StatusTooManyRequests, map[string]string{"message": "too many login attempts"})
		return
	}
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	user, err := h.users.Authenticate(input.Email, input.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			httpx.JSON(w, http.StatusUnauthorized, map[string]string{"message": "Authentication Failed"})
			return
		}
		log.Error().Err(err).Msg("login")
		httpx.JSONError(w, http.StatusInternalServerError, "login_failed", nil)
		return
	}
	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("issue tokens")
		httpx.JSONError(w, http.StatusInternalServerError, "login_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "login successful",
		"token":   pair,
	})
}

// Refresh exchanges a valid refresh token for a new access token.
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	uid, err := h.tokens.ParseRefresh(input.Refresh)
	if err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_token", nil)
		return
	}
	// The subject must still exist and be active.
	if _, err := h.users.Get(uid); err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_token", nil)
		return
	}
	access, err := h.tokens.IssueAccess(uid)
	if err != nil {
		log.Error().Err(err).Msg("issue access token")
		httpx.JSONError(w, http.StatusInternalServerError, "refresh_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"access": access})
}

// Verify reports whether a token (of either kind) is currently valid.
func (h *UserHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if _, err := h.tokens.ParseAny(input.Token); err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_token", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
