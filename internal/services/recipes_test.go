package services

import (
	"context"
	"errors"
	"io"
	"testing"

	"gorm.io/gorm"

	"github.com/mjansen/recipebox/internal/models"
)

// fakeStore records media operations so tests can assert blob release.
type fakeStore struct {
	saved   []string
	removed []string
}

func (f *fakeStore) Save(_ context.Context, key, _ string, _ io.Reader) error {
	f.saved = append(f.saved, key)
	return nil
}

func (f *fakeStore) Remove(_ context.Context, key string) error {
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeStore) URL(key string) string { return "/media/" + key }

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := models.User{Email: email, Password: "hash", IsActive: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

func strPtr(s string) *string    { return &s }
func intPtr(n int) *int          { return &n }
func floatPtr(f float64) *float64 { return &f }

func recipeInput(title string) RecipeInput {
	return RecipeInput{
		Title:       strPtr(title),
		TimeMinutes: intPtr(5),
		Price:       floatPtr(1.00),
	}
}

func TestCreateRecipeOwnerForced(t *testing.T) {
	db := setupDB(t)
	user := createTestUser(t, db, "owner@example.com")
	svc := NewRecipeService(db, &fakeStore{})

	recipe, err := svc.Create(user.ID, recipeInput("X"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if recipe.UserID != user.ID {
		t.Fatalf("owner not forced: %d", recipe.UserID)
	}
	got, err := svc.Get(user.ID, recipe.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "X" || got.TimeMinutes != 5 || got.Price != 1.00 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestTagDedupAcrossRecipes(t *testing.T) {
	db := setupDB(t)
	user := createTestUser(t, db, "tags@example.com")
	svc := NewRecipeService(db, &fakeStore{})

	in1 := recipeInput("Curry")
	in1.Tags = &[]TagInput{{Name: "Thai"}, {Name: "Dinner"}}
	r1, err := svc.Create(user.ID, in1)
	if err != nil {
		t.Fatalf("create 1: %v", err)
	}
	if len(r1.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(r1.Tags))
	}

	in2 := recipeInput("Stew")
	in2.Tags = &[]TagInput{{Name: "Dinner"}}
	r2, err := svc.Create(user.ID, in2)
	if err != nil {
		t.Fatalf("create 2: %v", err)
	}
	if len(r2.Tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(r2.Tags))
	}

	var count int64
	if err := db.Model(&models.Tag{}).Where("user_id = ? AND name = ?", user.ID, "Dinner").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one Dinner tag, got %d", count)
	}
}

func TestTagsScopedPerOwner(t *testing.T) {
	db := setupDB(t)
	u1 := createTestUser(t, db, "one@example.com")
	u2 := createTestUser(t, db, "two@example.com")
	svc := NewRecipeService(db, &fakeStore{})

	for _, u := range []*models.User{u1, u2} {
		in := recipeInput("R")
		in.Tags = &[]TagInput{{Name: "Dinner"}}
		if _, err := svc.Create(u.ID, in); err != nil {
			t.Fatalf("create for %d: %v", u.ID, err)
		}
	}

	// Both owners get their own row with the same name.
	var count int64
	if err := db.Model(&models.Tag{}).Where("name = ?", "Dinner").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected one Dinner tag per owner, got %d", count)
	}
}

func TestListMostRecentFirst(t *testing.T) {
	db := setupDB(t)
	user := createTestUser(t, db, "list@example.com")
	svc := NewRecipeService(db, &fakeStore{})

	for _, title := range []string{"A", "B", "C"} {
		if _, err := svc.Create(user.ID, recipeInput(title)); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	recipes, total, err := svc.List(user.ID, 50, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(recipes) != 3 {
		t.Fatalf("expected 3 recipes, got total=%d len=%d", total, len(recipes))
	}
	for i, want := range []string{"C", "B", "A"} {
		if recipes[i].Title != want {
			t.Fatalf("position %d: got %s want %s", i, recipes[i].Title, want)
		}
	}
}

func TestCrossOwnerIsNotFound(t *testing.T) {
	db := setupDB(t)
	owner := createTestUser(t, db, "owner2@example.com")
	intruder := createTestUser(t, db, "intruder@example.com")
	svc := NewRecipeService(db, &fakeStore{})

	recipe, err := svc.Create(owner.ID, recipeInput("Secret"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(intruder.ID, recipe.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign get: %v", err)
	}
	if _, err := svc.Update(intruder.ID, recipe.ID, recipeInput("Stolen"), false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign update: %v", err)
	}
	if err := svc.Delete(context.Background(), intruder.ID, recipe.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete: %v", err)
	}
	// The row is untouched.
	got, err := svc.Get(owner.ID, recipe.ID)
	if err != nil {
		t.Fatalf("owner get after foreign attempts: %v", err)
	}
	if got.Title != "Secret" {
		t.Fatalf("recipe mutated by foreign update: %s", got.Title)
	}
}

func TestDeleteIdempotence(t *testing.T) {
	db := setupDB(t)
	user := createTestUser(t, db, "del2@example.com")
	store := &fakeStore{}
	svc := NewRecipeService(db, store)

	recipe, err := svc.Create(user.ID, recipeInput("Gone"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.Model(&models.Recipe{}).Where("id = ?", recipe.ID).Update("image", "recipes/img.png").Error; err != nil {
		t.Fatalf("set image: %v", err)
	}

	if err := svc.Delete(context.Background(), user.ID, recipe.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if len(store.removed) != 1 || store.removed[0] != "recipes/img.png" {
		t.Fatalf("image blob not released: %v", store.removed)
	}
	if err := svc.Delete(context.Background(), user.ID, recipe.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be not found: %v", err)
	}
}

func TestFullUpdateResetsOptionalFields(t *testing.T) {
	db := setupDB(t)
	user := createTestUser(t, db, "full@example.com")
	svc := NewRecipeService(db, &fakeStore{})

	in := recipeInput("Original")
	in.Description = strPtr("long text")
	in.Link = strPtr("http://example.com/recipe.pdf")
	in.Tags = &[]TagInput{{Name: "Dessert"}}
	recipe, err := svc.Create(user.ID, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(user.ID, recipe.ID, recipeInput("Replaced"), true)
	if err != nil {
		t.Fatalf("full update: %v", err)
	}
	if updated.Title != "Replaced" {
		t.Fatalf("title: %s", updated.Title)
	}
	if updated.Description != "" || updated.Link != "" {
		t.Fatalf("optional fields not reset: %+v", updated)
	}
	if len(updated.Tags) != 0 {
		t.Fatalf("tags not cleared: %v", updated.Tags)
	}
}

func TestPartialUpdateKeepsOtherFields(t *testing.T) {
	db := setupDB(t)
	user := createTestUser(t, db, "partial@example.com")
	svc := NewRecipeService(db, &fakeStore{})

	in := recipeInput("Original")
	in.Description = strPtr("keep me")
	in.Tags = &[]TagInput{{Name: "Lunch"}}
	recipe, err := svc.Create(user.ID, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(user.ID, recipe.ID, RecipeInput{Title: strPtr("Renamed")}, false)
	if err != nil {
		t.Fatalf("partial update: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Fatalf("title: %s", updated.Title)
	}
	if updated.Description != "keep me" {
		t.Fatalf("description lost: %q", updated.Description)
	}
	if len(updated.Tags) != 1 || updated.Tags[0].Name != "Lunch" {
		t.Fatalf("tags lost: %v", updated.Tags)
	}
}

func TestCreateRollsBackWhenTagsFail(t *testing.T) {
	db := setupDB(t)
	user := createTestUser(t, db, "tx@example.com")
	svc := NewRecipeService(db, &fakeStore{})

	// Losing the tags table makes resolution fail mid-transaction.
	if err := db.Migrator().DropTable(&models.Tag{}); err != nil {
		t.Fatalf("drop: %v", err)
	}
	in := recipeInput("Doomed")
	in.Tags = &[]TagInput{{Name: "NoHome"}}
	if _, err := svc.Create(user.ID, in); err == nil {
		t.Fatal("create should fail when tag resolution fails")
	}

	var count int64
	if err := db.Model(&models.Recipe{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("orphaned recipe left behind: %d", count)
	}
}
