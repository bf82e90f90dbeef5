package policy

import "gorm.io/gorm"

// Ownable is implemented by models that belong to a single user.
type Ownable interface {
	GetUserID() uint
}

// OwnedBy is a GORM scope restricting a query to rows owned by userID.
// Services apply it to every read and write on recipes and tags, which is
// what turns a foreign identifier into a plain record-not-found.
func OwnedBy(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// Owns reports whether the user owns the resource. Kept for callers that
// already hold a loaded row and only need the check.
func Owns(userID uint, resource Ownable) bool {
	return resource.GetUserID() == userID
}
