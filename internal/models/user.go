package models

import "time"

// User represents an authenticated identity in the system.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
	Email     string    `gorm:"uniqueIndex;size:225;not null" json:"email"`
	Name      string    `gorm:"size:225" json:"name"`
	Password  string    `gorm:"size:255;not null" json:"-"` // Hashed, never exposed in JSON
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	// IsStaff gates administrator-only endpoints (user deletion).
	IsStaff     bool `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser bool `gorm:"not null;default:false" json:"is_superuser"`
}

// IsAdmin reports whether the user may perform staff-gated actions.
func (u *User) IsAdmin() bool { return u.IsStaff }
