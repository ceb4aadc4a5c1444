package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/relay-chat-api/internal/dto"
	"github.com/noah-isme/relay-chat-api/internal/middleware"
	"github.com/noah-isme/relay-chat-api/internal/service"
	"github.com/noah-isme/relay-chat-api/internal/utils"
)

// RoomHandler wires the public room directory endpoints.
type RoomHandler struct {
	service service.RoomService
	logger  zerolog.Logger
}

// NewRoomHandler creates a room handler instance.
func NewRoomHandler(service service.RoomService, logger zerolog.Logger) *RoomHandler {
	return &RoomHandler{
		service: service,
		logger:  logger.With().Str("component", "room_handler").Logger(),
	}
}

// Register binds room routes under the provided router group.
func (h *RoomHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
}

func (h *RoomHandler) list(c *fiber.Ctx) error {
	rooms, err := h.service.List(h.requestContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("room list failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "room list failed")
	}

	return utils.SendSuccess(c, "rooms", rooms)
}

func (h *RoomHandler) create(c *fiber.Ctx) error {
	username := usernameFromContext(c)
	if username == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	var req dto.CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	room, err := h.service.Create(h.requestContext(c), username, req)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("room create failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "room create failed")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "room created", room)
}

func (h *RoomHandler) get(c *fiber.Ctx) error {
	room, err := h.service.Get(h.requestContext(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("room lookup failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "room lookup failed")
	}

	return utils.SendSuccess(c, "room", room)
}

func (h *RoomHandler) requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}
