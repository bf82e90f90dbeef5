package services

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mjansen/recipebox/internal/media"
	"github.com/mjansen/recipebox/internal/models"
	"github.com/mjansen/recipebox/internal/policy"
)

// TagInput is a tag descriptor in a recipe payload.
type TagInput struct {
	Name string `json:"name"`
}

// RecipeInput carries the client-mutable recipe fields. Pointer fields
// distinguish "absent" from "zero" so the same type serves PATCH and PUT.
type RecipeInput struct {
	Title       *string     `json:"title"`
	TimeMinutes *int        `json:"time_minutes"`
	Price       *float64    `json:"price"`
	Description *string     `json:"description"`
	Link        *string     `json:"link"`
	Tags        *[]TagInput `json:"tags"`
}

type RecipeService struct {
	db    *gorm.DB
	media media.Store
}

func NewRecipeService(db *gorm.DB, store media.Store) *RecipeService {
	return &RecipeService{db: db, media: store}
}

// List returns the requester's recipes, most recent first.
func (s *RecipeService) List(userID uint, limit, offset int) ([]models.Recipe, int64, error) {
	scoped := s.db.Scopes(policy.OwnedBy(userID))
	var total int64
	if err := scoped.Model(&models.Recipe{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var recipes []models.Recipe
	if err := scoped.Order("id desc").Limit(limit).Offset(offset).Find(&recipes).Error; err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// Get loads one recipe with its tags. A foreign or unknown id is the same
// ErrNotFound.
func (s *RecipeService) Get(userID, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.Scopes(policy.OwnedBy(userID)).Preload("Tags").First(&recipe, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// Create inserts a recipe owned by userID. Tag descriptors are resolved
// against the owner's existing tags by exact name, creating the missing
// ones; the whole sequence runs in one transaction so a tag failure rolls
// back the recipe.
func (s *RecipeService) Create(userID uint, in RecipeInput) (*models.Recipe, error) {
	recipe := models.Recipe{UserID: userID}
	applyRecipeInput(&recipe, in, true)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}
		if in.Tags != nil {
			tags, err := resolveTags(tx, userID, *in.Tags)
			if err != nil {
				return err
			}
			if err := tx.Model(&recipe).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(userID, recipe.ID)
}

// Update mutates an owned recipe. With full=true unsupplied optional
// fields reset to their defaults; otherwise only supplied fields change.
// The owner never changes either way.
func (s *RecipeService) Update(userID, id uint, in RecipeInput, full bool) (*models.Recipe, error) {
	recipe, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	applyRecipeInput(recipe, in, full)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Select("title", "time_minutes", "price", "description", "link").
			Updates(map[string]any{
				"title":        recipe.Title,
				"time_minutes": recipe.TimeMinutes,
				"price":        recipe.Price,
				"description":  recipe.Description,
				"link":         recipe.Link,
			}).Error; err != nil {
			return err
		}
		if in.Tags != nil || full {
			var tagIn []TagInput
			if in.Tags != nil {
				tagIn = *in.Tags
			}
			tags, err := resolveTags(tx, userID, tagIn)
			if err != nil {
				return err
			}
			if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(userID, id)
}

// Delete removes an owned recipe and releases its image blob if any.
func (s *RecipeService) Delete(ctx context.Context, userID, id uint) error {
	recipe, err := s.Get(userID, id)
	if err != nil {
		return err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(recipe).Error
	})
	if err != nil {
		return err
	}
	if recipe.Image != "" {
		// The row is gone either way; a stray blob is logged, not fatal.
		if err := s.media.Remove(ctx, recipe.Image); err != nil {
			log.Warn().Err(err).Str("key", recipe.Image).Msg("removing recipe image")
		}
	}
	return nil
}

// AttachImage stores the uploaded blob and points the recipe at it,
// replacing (and removing) any previous image.
func (s *RecipeService) AttachImage(ctx context.Context, userID, id uint, filename, contentType string, r io.Reader) (*models.Recipe, error) {
	recipe, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	key := media.NewKey(filename)
	if err := s.media.Save(ctx, key, contentType, r); err != nil {
		return nil, err
	}
	old := recipe.Image
	if err := s.db.Model(recipe).Update("image", key).Error; err != nil {
		return nil, err
	}
	recipe.Image = key
	if old != "" && old != key {
		if err := s.media.Remove(ctx, old); err != nil {
			log.Warn().Err(err).Str("key", old).Msg("removing replaced recipe image")
		}
	}
	return recipe, nil
}

// applyRecipeInput copies supplied fields onto the model. full=true also
// resets absent optional fields to their zero defaults.
func applyRecipeInput(recipe *models.Recipe, in RecipeInput, full bool) {
	if in.Title != nil {
		recipe.Title = *in.Title
	}
	if in.TimeMinutes != nil {
		recipe.TimeMinutes = *in.TimeMinutes
	}
	if in.Price != nil {
		recipe.Price = *in.Price
	}
	switch {
	case in.Description != nil:
		recipe.Description = *in.Description
	case full:
		recipe.Description = ""
	}
	switch {
	case in.Link != nil:
		recipe.Link = *in.Link
	case full:
		recipe.Link = ""
	}
}

// resolveTags maps tag descriptors to rows owned by userID, reusing
// existing names and creating the rest. Duplicate names in the payload
// collapse to one row.
func resolveTags(tx *gorm.DB, userID uint, inputs []TagInput) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if seen[in.Name] {
			continue
		}
		seen[in.Name] = true
		var tag models.Tag
		err := tx.Scopes(policy.OwnedBy(userID)).Where("name = ?", in.Name).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.Tag{UserID: userID, Name: in.Name}
			err = tx.Create(&tag).Error
		}
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
