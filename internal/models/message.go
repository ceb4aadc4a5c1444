package models

import "time"

// Message kinds.
const (
	MessageKindText  = "text"
	MessageKindImage = "image"
)

// Message represents a single chat payload inside a conversation. The same
// shape is stored in two tables: room messages and direct messages.
type Message struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ConversationKey string    `gorm:"size:160;index;not null" json:"conversation_key"`
	Username        string    `gorm:"size:64;index;not null" json:"username"`
	Body            string    `gorm:"type:text" json:"body"`
	AttachmentURL   string    `gorm:"size:512" json:"attachment_url,omitempty"`
	Kind            string    `gorm:"size:32;default:text" json:"kind"`
	CreatedAt       time.Time `json:"created_at"`
}

// DirectMessage carries the direct-message table through migration. Rows are
// read and written through the shared Message shape with an explicit table
// override in the repository.
type DirectMessage struct {
	Message
}

// TableName pins the direct-message table.
func (DirectMessage) TableName() string { return "direct_messages" }
