package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ModerationConfig is the singleton document holding the banned-user set and
// the filtered-word set. Both sets are duplicate-free; filter words are stored
// lowercase.
type ModerationConfig struct {
	ID            uint                        `gorm:"primaryKey" json:"-"`
	BannedUsers   datatypes.JSONSlice[string] `json:"banned_users"`
	FilteredWords datatypes.JSONSlice[string] `json:"filtered_words"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// IsBanned reports whether the given username is in the banned set.
func (c ModerationConfig) IsBanned(username string) bool {
	for _, banned := range c.BannedUsers {
		if banned == username {
			return true
		}
	}
	return false
}

// ToggleBan adds the username to the banned set, or removes it if already
// present. Adding is idempotent.
func (c *ModerationConfig) ToggleBan(username string) {
	for i, banned := range c.BannedUsers {
		if banned == username {
			c.BannedUsers = append(c.BannedUsers[:i], c.BannedUsers[i+1:]...)
			return
		}
	}
	c.BannedUsers = append(c.BannedUsers, username)
}

// AddFilterWord inserts a lowercased word into the filter set. Duplicate adds
// are no-ops.
func (c *ModerationConfig) AddFilterWord(word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return false
	}
	for _, existing := range c.FilteredWords {
		if existing == word {
			return false
		}
	}
	c.FilteredWords = append(c.FilteredWords, word)
	return true
}

// RemoveFilterWord drops a word from the filter set.
func (c *ModerationConfig) RemoveFilterWord(word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	for i, existing := range c.FilteredWords {
		if existing == word {
			c.FilteredWords = append(c.FilteredWords[:i], c.FilteredWords[i+1:]...)
			return true
		}
	}
	return false
}
