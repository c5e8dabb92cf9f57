package models

import (
	"time"
)

// User is an authenticated account. Username doubles as the display name
// attributed to comments; mutation rights on a comment are gated by
// comparing usernames, so it is immutable after signup.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"unique;not null" json:"username"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
