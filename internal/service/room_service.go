package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/relay-chat-api/internal/dto"
	"github.com/noah-isme/relay-chat-api/internal/models"
	"github.com/noah-isme/relay-chat-api/internal/repository"
)

// ErrRoomNotFound indicates the requested room does not exist.
var ErrRoomNotFound = errors.New("room not found")

// RoomService exposes the public room directory.
type RoomService interface {
	List(ctx context.Context) ([]dto.RoomResponse, error)
	Create(ctx context.Context, creator string, req dto.CreateRoomRequest) (dto.RoomResponse, error)
	Get(ctx context.Context, roomID string) (dto.RoomResponse, error)
}

type roomService struct {
	rooms     repository.RoomRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRoomService creates the room service.
func NewRoomService(rooms repository.RoomRepository, validate *validator.Validate, logger zerolog.Logger) RoomService {
	return &roomService{
		rooms:     rooms,
		validator: validate,
		logger:    logger.With().Str("component", "room_service").Logger(),
	}
}

func (s *roomService) List(ctx context.Context) ([]dto.RoomResponse, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewRoomResponseSlice(rooms), nil
}

func (s *roomService) Create(ctx context.Context, creator string, req dto.CreateRoomRequest) (dto.RoomResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return dto.RoomResponse{}, err
	}

	room := models.Room{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CreatedBy: creator,
		Type:      models.RoomTypePublic,
	}

	if err := s.rooms.Create(ctx, &room); err != nil {
		return dto.RoomResponse{}, err
	}

	s.logger.Info().Str("room_id", room.ID).Str("created_by", creator).Msg("room created")

	return dto.NewRoomResponse(room), nil
}

func (s *roomService) Get(ctx context.Context, roomID string) (dto.RoomResponse, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RoomResponse{}, ErrRoomNotFound
		}
		return dto.RoomResponse{}, err
	}
	return dto.NewRoomResponse(room), nil
}
