// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered account.
//
// Username and email are globally unique; both are capped at 50
// characters. The password column only ever holds a bcrypt hash.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email       string    `gorm:"size:50;uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	IsStaff     bool      `gorm:"default:false" json:"is_staff"`
	IsSuperuser bool      `gorm:"default:false" json:"is_superuser"`
	Avatar      string    `json:"avatar"`
	DateJoined  time.Time `gorm:"autoCreateTime" json:"date_joined"`
	UpdatedAt   time.Time `json:"updated_at"`
	Posts       []Post    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"posts,omitempty"`
}
