package services

import (
	"errors"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mjansen/recipebox/internal/auth"
	"github.com/mjansen/recipebox/internal/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:svc_"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Tag{}, &models.Recipe{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCreateUserHashesPassword(t *testing.T) {
	svc := NewUserService(setupDB(t))
	user, violations, err := svc.CreateUser("test@Example.COM", "testpass123", "Test Name")
	if err != nil {
		t.Fatalf("create: %v (violations=%v)", err, violations)
	}
	if user.Password == "testpass123" {
		t.Fatal("plaintext password stored")
	}
	if !auth.CheckPassword(user.Password, "testpass123") {
		t.Fatal("stored hash does not verify")
	}
	if user.Email != "test@example.com" {
		t.Fatalf("domain not normalized: %s", user.Email)
	}
	if !user.IsActive || user.IsStaff || user.IsSuperuser {
		t.Fatalf("unexpected flags: %+v", user)
	}
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewUserService(setupDB(t))

	if _, v, err := svc.CreateUser("", "testpass123", ""); !errors.Is(err, ErrValidation) || v["email"] == "" {
		t.Fatalf("empty email accepted: err=%v v=%v", err, v)
	}
	if _, v, err := svc.CreateUser("not-an-email", "testpass123", ""); !errors.Is(err, ErrValidation) || v["email"] == "" {
		t.Fatalf("malformed email accepted: err=%v v=%v", err, v)
	}
	if _, v, err := svc.CreateUser("a@b.com", "pw", ""); !errors.Is(err, ErrValidation) || v["password"] == "" {
		t.Fatalf("short password accepted: err=%v v=%v", err, v)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := NewUserService(setupDB(t))
	if _, _, err := svc.CreateUser("dup@example.com", "testpass123", ""); err != nil {
		t.Fatalf("first create: %v", err)
	}
	// Same address with a differently cased domain is still a duplicate.
	_, v, err := svc.CreateUser("dup@EXAMPLE.com", "testpass123", "")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("duplicate accepted: %v", err)
	}
	if v["email"] != "already_registered" {
		t.Fatalf("unexpected violations: %v", v)
	}
}

func TestCreateSuperuser(t *testing.T) {
	svc := NewUserService(setupDB(t))
	user, _, err := svc.CreateSuperuser("admin@example.com", "adminpass")
	if err != nil {
		t.Fatalf("create superuser: %v", err)
	}
	if !user.IsStaff || !user.IsSuperuser {
		t.Fatalf("superuser flags not set: %+v", user)
	}
}

func TestAuthenticate(t *testing.T) {
	db := setupDB(t)
	svc := NewUserService(db)
	if _, _, err := svc.CreateUser("login@example.com", "testpass123", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Authenticate("login@example.com", "testpass123"); err != nil {
		t.Fatalf("valid login failed: %v", err)
	}
	// Unknown user and wrong password are indistinguishable.
	if _, err := svc.Authenticate("login@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := svc.Authenticate("nobody@example.com", "testpass123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: %v", err)
	}
}

func TestAuthenticateInactiveUser(t *testing.T) {
	db := setupDB(t)
	svc := NewUserService(db)
	user, _, err := svc.CreateUser("gone@example.com", "testpass123", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.Model(user).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.Authenticate("gone@example.com", "testpass123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("inactive user logged in: %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	svc := NewUserService(setupDB(t))
	user, _, err := svc.CreateUser("u@example.com", "testpass123", "old name")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newName := "new name"
	newPass := "passwordNew"
	updated, _, err := svc.Update(user.ID, UserUpdate{Name: &newName, Password: &newPass})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "new name" {
		t.Fatalf("name not updated: %s", updated.Name)
	}
	if !auth.CheckPassword(updated.Password, "passwordNew") {
		t.Fatal("password not re-hashed")
	}
	if updated.Email != "u@example.com" {
		t.Fatalf("email changed: %s", updated.Email)
	}
}

func TestDeleteUser(t *testing.T) {
	svc := NewUserService(setupDB(t))
	user, _, err := svc.CreateUser("del@example.com", "testpass123", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be not found: %v", err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"User@Example.COM": "User@example.com",
		"a@B.c":            "a@b.c",
		"noat":             "noat",
	}
	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
