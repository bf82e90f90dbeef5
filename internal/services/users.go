package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mjansen/recipebox/internal/auth"
	"github.com/mjansen/recipebox/internal/models"
	"github.com/mjansen/recipebox/internal/validation"
)

var (
	// ErrNotFound covers both "no such row" and "row owned by someone
	// else" — callers must not be able to tell them apart.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is deliberately generic: unknown email and
	// wrong password produce the same failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation signals that the returned Violations carry details.
	ErrValidation = errors.New("validation failed")
)

// MinPasswordLen matches the write-only password constraint on the user
// resource.
const MinPasswordLen = 5

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService { return &UserService{db: db} }

// CreateUser registers a user with a hashed password. The email's domain
// part is lower-cased before storage; duplicates are rejected as a
// validation failure, not a conflict, to match the API contract.
func (s *UserService) CreateUser(email, password, name string) (*models.User, validation.Violations, error) {
	v := validation.Violations{}
	validation.Required("email", email, v)
	if _, ok := v["email"]; !ok {
		validation.Email("email", email, v)
	}
	validation.Required("password", password, v)
	if _, ok := v["password"]; !ok {
		validation.MinLen("password", password, MinPasswordLen, v)
	}
	if !v.Empty() {
		return nil, v, ErrValidation
	}

	normalized := NormalizeEmail(email)
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", normalized).Count(&count).Error; err != nil {
		return nil, nil, err
	}
	if count > 0 {
		return nil, validation.Violations{"email": "already_registered"}, ErrValidation
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, nil, err
	}
	user := models.User{Email: normalized, Password: hash, Name: name, IsActive: true}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, nil, err
	}
	return &user, nil, nil
}

// CreateSuperuser registers a staff superuser, used by the bootstrap flag.
func (s *UserService) CreateSuperuser(email, password string) (*models.User, validation.Violations, error) {
	user, v, err := s.CreateUser(email, password, "")
	if err != nil {
		return nil, v, err
	}
	user.IsStaff = true
	user.IsSuperuser = true
	if err := s.db.Save(user).Error; err != nil {
		return nil, nil, err
	}
	return user, nil, nil
}

// Authenticate resolves email+password to a user or ErrInvalidCredentials.
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive || !auth.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserService) List(limit, offset int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	if err := s.db.Order("id desc").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *UserService) Get(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UserUpdate carries the self-service profile changes. Nil means "leave
// unchanged"; email and role flags are not client-mutable here.
type UserUpdate struct {
	Name     *string
	Password *string
}

func (s *UserService) Update(id uint, in UserUpdate) (*models.User, validation.Violations, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	if in.Password != nil {
		v := validation.Violations{}
		validation.MinLen("password", *in.Password, MinPasswordLen, v)
		if !v.Empty() {
			return nil, v, ErrValidation
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, nil, err
		}
		user.Password = hash
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if err := s.db.Save(user).Error; err != nil {
		return nil, nil, err
	}
	return user, nil, nil
}

func (s *UserService) Delete(id uint) error {
	res := s.db.Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// NormalizeEmail lower-cases the domain part only, keeping the local part
// as given.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
