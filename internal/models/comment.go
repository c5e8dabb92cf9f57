// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Comment represents a single comment in the live feed. The ID is assigned
// by the store on creation and is immutable, as are Author, Timestamp and
// ReplyTo. Only Text and Edited change over a comment's lifetime.
type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Author    string    `gorm:"not null;index" json:"author"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	Edited    bool      `gorm:"not null;default:false" json:"edited"`
	// ReplyTo holds the parent comment's ID, or nil for top-level comments.
	// The parent may have been deleted since; readers must tolerate that.
	ReplyTo *string `gorm:"size:36" json:"reply_to,omitempty"`
}

// IsReply reports whether the comment references a parent.
func (c *Comment) IsReply() bool {
	return c.ReplyTo != nil && *c.ReplyTo != ""
}

// HasTimestamp reports whether the comment carries a usable creation instant.
// Records with a zero timestamp are kept rather than rejected; they sort
// after all timestamped comments.
func (c *Comment) HasTimestamp() bool {
	return !c.Timestamp.IsZero()
}
