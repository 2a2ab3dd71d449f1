// Package models contains data structures for the application's domain models.
package models

import (
	"strings"

	"gorm.io/gorm"
)

// DefaultImageURL is the portrait shown for users who did not supply one.
const DefaultImageURL = "https://randomuser.me/api/portraits/lego/1.jpg"

// User represents a blog author.
type User struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName string `gorm:"size:50;not null" json:"first_name"`
	LastName  string `gorm:"size:50;not null" json:"last_name"`
	ImageURL  string `gorm:"not null" json:"image_url"`
	Posts     []Post `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"posts,omitempty"`
}

// FullName joins first and last name with a single space.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// BeforeCreate fills in the placeholder portrait.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if strings.TrimSpace(u.ImageURL) == "" {
		u.ImageURL = DefaultImageURL
	}
	return nil
}
