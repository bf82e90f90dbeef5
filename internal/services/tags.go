package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mjansen/recipebox/internal/models"
	"github.com/mjansen/recipebox/internal/policy"
	"github.com/mjansen/recipebox/internal/validation"
)

type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService { return &TagService{db: db} }

// List returns the requester's tags in reverse name order.
func (s *TagService) List(userID uint, limit, offset int) ([]models.Tag, int64, error) {
	scoped := s.db.Scopes(policy.OwnedBy(userID))
	var total int64
	if err := scoped.Model(&models.Tag{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var tags []models.Tag
	if err := scoped.Order("name desc").Limit(limit).Offset(offset).Find(&tags).Error; err != nil {
		return nil, 0, err
	}
	return tags, total, nil
}

func (s *TagService) Get(userID, id uint) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.Scopes(policy.OwnedBy(userID)).First(&tag, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// Create adds a tag for userID. Names are unique per owner only.
func (s *TagService) Create(userID uint, name string) (*models.Tag, validation.Violations, error) {
	v := validation.Violations{}
	validation.Required("name", name, v)
	if !v.Empty() {
		return nil, v, ErrValidation
	}
	if taken, err := s.nameTaken(userID, name, 0); err != nil {
		return nil, nil, err
	} else if taken {
		return nil, validation.Violations{"name": "already_exists"}, ErrValidation
	}
	tag := models.Tag{UserID: userID, Name: name}
	if err := s.db.Create(&tag).Error; err != nil {
		return nil, nil, err
	}
	return &tag, nil, nil
}

// Update renames an owned tag.
func (s *TagService) Update(userID, id uint, name string) (*models.Tag, validation.Violations, error) {
	tag, err := s.Get(userID, id)
	if err != nil {
		return nil, nil, err
	}
	v := validation.Violations{}
	validation.Required("name", name, v)
	if !v.Empty() {
		return nil, v, ErrValidation
	}
	if taken, err := s.nameTaken(userID, name, id); err != nil {
		return nil, nil, err
	} else if taken {
		return nil, validation.Violations{"name": "already_exists"}, ErrValidation
	}
	tag.Name = name
	if err := s.db.Save(tag).Error; err != nil {
		return nil, nil, err
	}
	return tag, nil, nil
}

// Delete removes an owned tag and detaches it from any recipes.
func (s *TagService) Delete(userID, id uint) error {
	tag, err := s.Get(userID, id)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM recipe_tags WHERE tag_id = ?", tag.ID).Error; err != nil {
			return err
		}
		return tx.Delete(tag).Error
	})
}

func (s *TagService) nameTaken(userID uint, name string, excludeID uint) (bool, error) {
	q := s.db.Model(&models.Tag{}).Scopes(policy.OwnedBy(userID)).Where("name = ?", strings.TrimSpace(name))
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
