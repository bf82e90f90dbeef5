package policy_test

import (
	"testing"

	"github.com/mjansen/recipebox/internal/models"
	"github.com/mjansen/recipebox/internal/policy"
)

func TestRequiredRole(t *testing.T) {
	cases := []struct {
		resource policy.Resource
		action   policy.Action
		want     policy.Role
	}{
		{policy.ResourceUser, policy.ActionCreate, policy.RoleAnonymous},
		{policy.ResourceUser, policy.ActionList, policy.RoleAuthenticated},
		{policy.ResourceUser, policy.ActionRetrieve, policy.RoleAuthenticated},
		{policy.ResourceUser, policy.ActionPartialUpdate, policy.RoleAuthenticated},
		{policy.ResourceUser, policy.ActionDelete, policy.RoleAdmin},
		{policy.ResourceRecipe, policy.ActionCreate, policy.RoleAuthenticated},
		{policy.ResourceRecipe, policy.ActionList, policy.RoleAuthenticated},
		{policy.ResourceRecipe, policy.ActionDelete, policy.RoleAuthenticated},
		{policy.ResourceRecipe, policy.ActionUploadImage, policy.RoleAuthenticated},
		{policy.ResourceTag, policy.ActionUpdate, policy.RoleAuthenticated},
	}
	for _, c := range cases {
		if got := policy.RequiredRole(c.resource, c.action); got != c.want {
			t.Errorf("RequiredRole(%s, %s) = %v, want %v", c.resource, c.action, got, c.want)
		}
	}
}

func TestSatisfies(t *testing.T) {
	staff := &models.User{ID: 1, IsStaff: true}
	regular := &models.User{ID: 2}

	if !policy.Satisfies(nil, policy.RoleAnonymous) {
		t.Error("anonymous requester should satisfy RoleAnonymous")
	}
	if policy.Satisfies(nil, policy.RoleAuthenticated) {
		t.Error("anonymous requester must not satisfy RoleAuthenticated")
	}
	if policy.Satisfies(nil, policy.RoleAdmin) {
		t.Error("anonymous requester must not satisfy RoleAdmin")
	}
	if !policy.Satisfies(regular, policy.RoleAuthenticated) {
		t.Error("authenticated requester should satisfy RoleAuthenticated")
	}
	if policy.Satisfies(regular, policy.RoleAdmin) {
		t.Error("non-staff requester must not satisfy RoleAdmin")
	}
	if !policy.Satisfies(staff, policy.RoleAdmin) {
		t.Error("staff requester should satisfy RoleAdmin")
	}
}

func TestOwns(t *testing.T) {
	recipe := &models.Recipe{UserID: 42}
	if !policy.Owns(42, recipe) {
		t.Error("owner should own the resource")
	}
	if policy.Owns(99, recipe) {
		t.Error("non-owner must not own the resource")
	}
}
