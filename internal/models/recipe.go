package models

import "time"

// Recipe is an owned entity: every read and write is scoped to UserID.
// The owner is set once at creation and never taken from client input.
type Recipe struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
	UserID      uint      `gorm:"not null;index" json:"-"`
	User        User      `gorm:"foreignKey:UserID" json:"-"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	TimeMinutes int       `gorm:"not null" json:"time_minutes"`
	Price       float64   `gorm:"not null" json:"price"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Link        string    `gorm:"size:255" json:"link,omitempty"`
	// Image holds the media store key of the attached image, empty if none.
	Image string `gorm:"size:255" json:"image,omitempty"`
	Tags  []Tag  `gorm:"many2many:recipe_tags;" json:"tags,omitempty"`
}

// GetUserID implements policy.Ownable.
func (r *Recipe) GetUserID() uint { return r.UserID }

// Tag labels recipes. Names are unique per owner, not globally; the
// composite index enforces that without blocking two users from both
// having a "Dinner" tag.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
	UserID    uint      `gorm:"not null;index:idx_owner_name,unique,priority:1" json:"-"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Name      string    `gorm:"size:255;not null;index:idx_owner_name,unique,priority:2" json:"name"`
}

// GetUserID implements policy.Ownable.
func (t *Tag) GetUserID() uint { return t.UserID }
