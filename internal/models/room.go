package models

import "time"

// GeneralRoomID is the reserved identifier of the default room. It is upserted
// at startup and can never be deleted.
const GeneralRoomID = "general"

// RoomTypePublic is the only room visibility currently supported.
const RoomTypePublic = "public"

// Room represents a named public conversation channel.
type Room struct {
	ID        string    `gorm:"primaryKey;size:128" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	CreatedBy string    `gorm:"size:64" json:"created_by"`
	Type      string    `gorm:"size:32;default:public" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
