package dto

import (
	"time"

	"github.com/noah-isme/relay-chat-api/internal/models"
)

// SendMessageRequest is the payload for posting a message into the currently
// viewed conversation. RoomID and To are mutually exclusive; when To is set
// the message goes to the direct conversation with that peer.
type SendMessageRequest struct {
	RoomID        string `json:"room_id" validate:"omitempty,max=128"`
	To            string `json:"to" validate:"omitempty,max=64"`
	Body          string `json:"body" validate:"omitempty,max=4000"`
	AttachmentURL string `json:"attachment_url" validate:"omitempty,url,max=512"`
}

// HistoryQuery filters a one-shot history read.
type HistoryQuery struct {
	RoomID string `query:"room_id" validate:"omitempty,max=128"`
	Peer   string `query:"peer" validate:"omitempty,max=64"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

// MessageResponse is the serialized representation of a message.
type MessageResponse struct {
	ID              uint      `json:"id"`
	ConversationKey string    `json:"conversation_key"`
	Username        string    `json:"username"`
	Body            string    `json:"body"`
	AttachmentURL   string    `json:"attachment_url,omitempty"`
	Kind            string    `json:"kind"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewMessageResponse converts a model into a DTO. A record whose store
// timestamp has not resolved yet is stamped with the local receipt time so a
// freshly written message renders immediately.
func NewMessageResponse(message models.Message) MessageResponse {
	createdAt := message.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return MessageResponse{
		ID:              message.ID,
		ConversationKey: message.ConversationKey,
		Username:        message.Username,
		Body:            message.Body,
		AttachmentURL:   message.AttachmentURL,
		Kind:            message.Kind,
		CreatedAt:       createdAt,
	}
}

// NewMessageResponseSlice converts a slice of models into DTOs.
func NewMessageResponseSlice(messages []models.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewMessageResponse(message))
	}
	return out
}

// Client frame actions accepted over the websocket.
const (
	FrameSelectRoom  = "select_room"
	FrameSelectDM    = "select_dm"
	FrameTogglePanel = "toggle_panel"
	FrameSend        = "send"
)

// ClientFrame is a single instruction from a connected client.
type ClientFrame struct {
	Action        string `json:"action" validate:"required,oneof=select_room select_dm toggle_panel send"`
	RoomID        string `json:"room_id,omitempty" validate:"omitempty,max=128"`
	Peer          string `json:"peer,omitempty" validate:"omitempty,max=64"`
	Body          string `json:"body,omitempty" validate:"omitempty,max=4000"`
	AttachmentURL string `json:"attachment_url,omitempty" validate:"omitempty,url,max=512"`
}

// Server frame types pushed to connected clients.
const (
	FrameSnapshot = "snapshot"
	FrameError    = "error"
)

// ServerFrame is a single push to a connected client. A snapshot frame always
// carries the full current window of its conversation, never a partial patch.
type ServerFrame struct {
	Type         string            `json:"type"`
	Conversation string            `json:"conversation,omitempty"`
	Messages     []MessageResponse `json:"messages,omitempty"`
	Error        string            `json:"error,omitempty"`
}
