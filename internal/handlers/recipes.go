package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mjansen/recipebox/internal/httpx"
	"github.com/mjansen/recipebox/internal/models"
	"github.com/mjansen/recipebox/internal/policy"
	"github.com/mjansen/recipebox/internal/services"
	"github.com/mjansen/recipebox/internal/validation"
)

const maxImageUpload = 10 << 20 // 10 MiB

type RecipeHandler struct {
	recipes *services.RecipeService
}

func NewRecipeHandler(recipes *services.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes}
}

// recipeListItem is the compact list representation; description and tags
// only appear on the detail endpoint.
type recipeListItem struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	TimeMinutes int     `json:"time_minutes"`
	Price       float64 `json:"price"`
	Link        string  `json:"link,omitempty"`
	Image       string  `json:"image,omitempty"`
}

func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := authorize(w, r, policy.ResourceRecipe, policy.ActionList)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	recipes, total, err := h.recipes.List(user.ID, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("list recipes")
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_recipes", nil)
		return
	}
	items := make([]recipeListItem, 0, len(recipes))
	for _, rec := range recipes {
		items = append(items, recipeListItem{
			ID:          rec.ID,
			Title:       rec.Title,
			TimeMinutes: rec.TimeMinutes,
			Price:       rec.Price,
			Link:        rec.Link,
			Image:       rec.Image,
		})
	}
	httpx.JSON(w, http.StatusOK, httpx.ListResponse{Items: items, Total: total, Limit: limit, Offset: offset})
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := authorize(w, r, policy.ResourceRecipe, policy.ActionCreate)
	if !ok {
		return
	}
	var input services.RecipeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := validateRecipeInput(input, true); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	recipe, err := h.recipes.Create(user.ID, input)
	if err != nil {
		log.Error().Err(err).Msg("create recipe")
		httpx.JSONError(w, http.StatusInternalServerError, "recipe_create_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, recipe)
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := authorize(w, r, policy.ResourceRecipe, policy.ActionRetrieve)
	if !ok {
		return
	}
	recipe, ok := h.lookup(w, r, user)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) Put(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *RecipeHandler) Patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

func (h *RecipeHandler) update(w http.ResponseWriter, r *http.Request, full bool) {
	action := policy.ActionPartialUpdate
	if full {
		action = policy.ActionUpdate
	}
	user, ok := authorize(w, r, policy.ResourceRecipe, action)
	if !ok {
		return
	}
	id, ok := urlID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var input services.RecipeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := validateRecipeInput(input, full); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	recipe, err := h.recipes.Update(user.ID, id, input, full)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		log.Error().Err(err).Msg("update recipe")
		httpx.JSONError(w, http.StatusInternalServerError, "recipe_update_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := authorize(w, r, policy.ResourceRecipe, policy.ActionDelete)
	if !ok {
		return
	}
	id, ok := urlID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if err := h.recipes.Delete(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		log.Error().Err(err).Msg("delete recipe")
		httpx.JSONError(w, http.StatusInternalServerError, "recipe_delete_failed", nil)
		return
	}
	httpx.NoContent(w)
}

// UploadImage accepts a multipart form with an "image" part, sniffs the
// payload and rejects anything that is not an image.
func (h *RecipeHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user, ok := authorize(w, r, policy.ResourceRecipe, policy.ActionUploadImage)
	if !ok {
		return
	}
	id, ok := urlID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if err := r.ParseMultipartForm(maxImageUpload); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_multipart_form", nil)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"image": "required"})
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_upload", nil)
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"image": "not_an_image"})
		return
	}

	body := io.MultiReader(bytes.NewReader(head), file)
	recipe, err := h.recipes.AttachImage(r.Context(), user.ID, id, header.Filename, contentType, body)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		log.Error().Err(err).Msg("upload recipe image")
		httpx.JSONError(w, http.StatusInternalServerError, "image_upload_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) lookup(w http.ResponseWriter, r *http.Request, user *models.User) (*models.Recipe, bool) {
	id, ok := urlID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return nil, false
	}
	recipe, err := h.recipes.Get(user.ID, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return nil, false
		}
		log.Error().Err(err).Msg("get recipe")
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_get_recipe", nil)
		return nil, false
	}
	return recipe, true
}

// validateRecipeInput checks supplied fields. On a create or full update
// the required fields must all be present.
func validateRecipeInput(in services.RecipeInput, full bool) validation.Violations {
	v := validation.Violations{}
	if in.Title != nil {
		validation.Required("title", *in.Title, v)
	} else if full {
		v["title"] = "required"
	}
	if in.TimeMinutes != nil {
		validation.PositiveInt("time_minutes", *in.TimeMinutes, v)
	} else if full {
		v["time_minutes"] = "required"
	}
	if in.Price != nil {
		validation.PositiveFloat("price", *in.Price, v)
	} else if full {
		v["price"] = "required"
	}
	if in.Tags != nil {
		for _, tag := range *in.Tags {
			if strings.TrimSpace(tag.Name) == "" {
				v["tags"] = "name_required"
				break
			}
		}
	}
	return v
}
