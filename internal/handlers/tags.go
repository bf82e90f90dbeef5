package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mjansen/recipebox/internal/httpx"
	"github.com/mjansen/recipebox/internal/policy"
	"github.com/mjansen/recipebox/internal/services"
)

type TagHandler struct {
	tags *services.TagService
}

func NewTagHandler(tags *services.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := authorize(w, r, policy.ResourceTag, policy.ActionList)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	tags, total, err := h.tags.List(user.ID, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("list tags")
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_tags", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.ListResponse{Items: tags, Total: total, Limit: limit, Offset: offset})
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := authorize(w, r, policy.ResourceTag, policy.ActionCreate)
	if !ok {
		return
	}
	var input struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	tag, violations, err := h.tags.Create(user.ID, input.Name)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", violations)
			return
		}
		log.Error().Err(err).Msg("create tag")
		httpx.JSONError(w, http.StatusInternalServerError, "tag_create_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, tag)
}

func (h *TagHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := authorize(w, r, policy.ResourceTag, policy.ActionRetrieve)
	if !ok {
		return
	}
	id, ok := urlID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	tag, err := h.tags.Get(user.ID, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		log.Error().Err(err).Msg("get tag")
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_get_tag", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, tag)
}

// Update serves both PUT and PATCH: a tag has a single mutable field.
func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := authorize(w, r, policy.ResourceTag, policy.ActionUpdate)
	if !ok {
		return
	}
	id, ok := urlID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var input struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	tag, violations, err := h.tags.Update(user.ID, id, input.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		case errors.Is(err, services.ErrValidation):
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", violations)
		default:
			log.Error().Err(err).Msg("update tag")
			httpx.JSONError(w, http.StatusInternalServerError, "tag_update_failed", nil)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, tag)
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := authorize(w, r, policy.ResourceTag, policy.ActionDelete)
	if !ok {
		return
	}
	id, ok := urlID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if err := h.tags.Delete(user.ID, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		log.Error().Err(err).Msg("delete tag")
		httpx.JSONError(w, http.StatusInternalServerError, "tag_delete_failed", nil)
		return
	}
	httpx.NoContent(w)
}
