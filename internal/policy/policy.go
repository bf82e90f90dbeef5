// Package policy is the central authorization checkpoint. Every route maps
// to a (Resource, Action) pair; RequiredRole is a pure function from that
// pair to the role a requester must hold. Handlers evaluate it explicitly
// instead of deriving permissions from route names at runtime.
package policy

import "github.com/mjansen/recipebox/internal/models"

// Action describes the kind of operation a user wants to perform.
type Action string

const (
	ActionList          Action = "list"
	ActionRetrieve      Action = "retrieve"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDelete        Action = "delete"
	ActionUploadImage   Action = "upload_image"
)

// Resource names an API resource type.
type Resource string

const (
	ResourceUser   Resource = "user"
	ResourceRecipe Resource = "recipe"
	ResourceTag    Resource = "tag"
)

// Role is the minimum standing a requester needs for an action.
type Role int

const (
	RoleAnonymous Role = iota
	RoleAuthenticated
	RoleAdmin
)

// RequiredRole returns the role required to perform action on resource.
// Registration is the only open action; user deletion is staff-only;
// everything else needs authentication. Ownership of recipes and tags is
// not decided here — it is enforced by query scoping, so a foreign
// resource reads as not found rather than forbidden.
func RequiredRole(resource Resource, action Action) Role {
	if resource == ResourceUser {
		switch action {
		case ActionCreate:
			return RoleAnonymous
		case ActionDelete:
			return RoleAdmin
		default:
			return RoleAuthenticated
		}
	}
	return RoleAuthenticated
}

// Satisfies reports whether the requester (nil when anonymous) holds role.
func Satisfies(u *models.User, role Role) bool {
	switch role {
	case RoleAnonymous:
		return true
	case RoleAuthenticated:
		return u != nil
	case RoleAdmin:
		return u != nil && u.IsAdmin()
	}
	return false
}
