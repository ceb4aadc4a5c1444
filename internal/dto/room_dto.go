package dto

import (
	"time"

	"github.com/noah-isme/relay-chat-api/internal/models"
)

// CreateRoomRequest is the payload for creating a room.
type CreateRoomRequest struct {
	Name string `json:"name" validate:"required,min=1,max=128"`
}

// RoomResponse is the serialized representation of a room.
type RoomResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by,omitempty"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRoomResponse converts a room model into a DTO.
func NewRoomResponse(room models.Room) RoomResponse {
	return RoomResponse{
		ID:        room.ID,
		Name:      room.Name,
		CreatedBy: room.CreatedBy,
		Type:      room.Type,
		CreatedAt: room.CreatedAt,
	}
}

// NewRoomResponseSlice converts a slice of room models.
func NewRoomResponseSlice(rooms []models.Room) []RoomResponse {
	out := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, NewRoomResponse(room))
	}
	return out
}
