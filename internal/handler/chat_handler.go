package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/relay-chat-api/internal/dto"
	"github.com/noah-isme/relay-chat-api/internal/middleware"
	"github.com/noah-isme/relay-chat-api/internal/service"
	"github.com/noah-isme/relay-chat-api/internal/utils"
)

// ChatHandler wires chat endpoints including the websocket upgrade.
type ChatHandler struct {
	service   service.ChatService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewChatHandler creates a chat handler instance.
func NewChatHandler(service service.ChatService, validator *validator.Validate, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register binds chat routes under the provided router group.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.handleConnection))
	router.Get("/history", h.history)
	router.Post("/messages", h.send)
}

func (h *ChatHandler) handleConnection(conn *websocket.Conn) {
	username := websocketUsername(conn)
	if username == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusUnauthorized, "username missing"))
		_ = conn.Close()
		return
	}

	moderator, _ := conn.Locals("is_moderator").(bool)
	correlation, _ := conn.Locals("correlation_id").(string)
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)

	opts := service.ChatConnectionOptions{
		Username:      username,
		Moderator:     moderator,
		CorrelationID: correlation,
		Context:       baseCtx,
	}

	h.logger.Info().Str("username", username).Msg("chat websocket connected")
	h.service.ServeConnection(conn, opts)
	h.logger.Info().Str("username", username).Msg("chat websocket disconnected")
}

func (h *ChatHandler) send(c *fiber.Ctx) error {
	username := usernameFromContext(c)
	if username == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	message, err := h.service.Send(h.requestContext(c), username, req)
	if err != nil {
		switch {
		case isValidationError(err), errors.Is(err, service.ErrEmptyMessage):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrBanned):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("message send failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "message send failed")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", message)
}

func (h *ChatHandler) history(c *fiber.Ctx) error {
	username := usernameFromContext(c)
	if username == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}

	query := dto.HistoryQuery{
		RoomID: strings.TrimSpace(c.Query("room_id")),
		Peer:   strings.TrimSpace(c.Query("peer")),
		Limit:  limit,
	}

	if err := h.validator.Struct(query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	messages, err := h.service.History(h.requestContext(c), username, query)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("history read failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "history read failed")
	}

	return utils.SendSuccess(c, "chat history", messages)
}

func (h *ChatHandler) requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func websocketUsername(conn *websocket.Conn) string {
	if value := conn.Locals("username"); value != nil {
		if username, ok := value.(string); ok {
			return strings.TrimSpace(username)
		}
	}
	return ""
}
