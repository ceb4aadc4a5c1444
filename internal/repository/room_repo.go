package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/relay-chat-api/internal/models"
)

// RoomRepository persists chat rooms.
type RoomRepository interface {
	EnsureGeneral(ctx context.Context) error
	Create(ctx context.Context, room *models.Room) error
	Get(ctx context.Context, id string) (models.Room, error)
	List(ctx context.Context) ([]models.Room, error)
	DeleteWithMessages(ctx context.Context, id string) error
}

type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository constructs a room repository backed by GORM.
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

// EnsureGeneral idempotently upserts the default room. Runs at every startup.
func (r *roomRepository) EnsureGeneral(ctx context.Context) error {
	room := models.Room{
		ID:   models.GeneralRoomID,
		Name: "General",
		Type: models.RoomTypePublic,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "type"}),
	}).Create(&room).Error
}

func (r *roomRepository) Create(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *roomRepository) Get(ctx context.Context, id string) (models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		return models.Room{}, err
	}
	return room, nil
}

func (r *roomRepository) List(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}

	// General is always listed first.
	for i, room := range rooms {
		if room.ID == models.GeneralRoomID && i != 0 {
			copy(rooms[1:i+1], rooms[:i])
			rooms[0] = room
			break
		}
	}

	return rooms, nil
}

// DeleteWithMessages removes the room and every message in it as one
// transaction.
func (r *roomRepository) DeleteWithMessages(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Room{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("conversation_key = ?", id).Delete(&models.Message{}).Error
	})
}
