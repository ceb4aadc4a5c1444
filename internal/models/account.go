package models

import "time"

// Account represents a registered chat identity, keyed by username.
type Account struct {
	Username     string    `gorm:"primaryKey;size:64" json:"username"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	IsModerator  bool      `gorm:"not null;default:false" json:"is_moderator"`
	Online       bool      `gorm:"not null;default:false;index" json:"online"`
	LastSeen     time.Time `json:"last_seen"`
	CreatedAt    time.Time `json:"created_at"`
}
