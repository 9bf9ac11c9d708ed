package models

import (
	"time"
)

// MaxPostContentLen is the upper bound on post content length.
const MaxPostContentLen = 255

// Post is a micro-blog entry owned by exactly one user.
type Post struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Content string `gorm:"size:255;not null" json:"content"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	// Favourited indicates whether the requesting user bookmarked this post (computed)
	Favourited bool      `gorm:"-" json:"favourited"`
	CreatedAt  time.Time `json:"created_at"`
}
