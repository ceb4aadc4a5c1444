package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/relay-chat-api/internal/dto"
	"github.com/noah-isme/relay-chat-api/internal/middleware"
	"github.com/noah-isme/relay-chat-api/internal/service"
	"github.com/noah-isme/relay-chat-api/internal/utils"
)

// ModerationHandler wires the moderator-only endpoints.
type ModerationHandler struct {
	moderation service.ModerationService
	retention  service.RetentionService
	logger     zerolog.Logger
}

// NewModerationHandler creates a moderation handler instance.
func NewModerationHandler(moderation service.ModerationService, retention service.RetentionService, logger zerolog.Logger) *ModerationHandler {
	return &ModerationHandler{
		moderation: moderation,
		retention:  retention,
		logger:     logger.With().Str("component", "moderation_handler").Logger(),
	}
}

// Register binds moderation routes under the provided router group.
func (h *ModerationHandler) Register(router fiber.Router) {
	router.Get("/panel", h.panel)
	router.Post("/bans", h.toggleBan)
	router.Post("/filters", h.addFilterWord)
	router.Delete("/filters", h.removeFilterWord)
	router.Post("/moderators", h.toggleModerator)
	router.Delete("/accounts/:username", h.deleteAccount)
	router.Delete("/rooms/:id", h.deleteRoom)
	router.Post("/clear", h.clearConversation)
	router.Post("/clear-all", h.clearAll)
	router.Post("/retention/run", h.runRetention)
}

func (h *ModerationHandler) panel(c *fiber.Ctx) error {
	panel, err := h.moderation.Panel(h.requestContext(c), usernameFromContext(c))
	if err != nil {
		return h.fail(c, err, "panel load failed")
	}

	return utils.SendSuccess(c, "moderation panel", panel)
}

func (h *ModerationHandler) toggleBan(c *fiber.Ctx) error {
	var req dto.BanToggleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	cfg, err := h.moderation.ToggleBan(h.requestContext(c), usernameFromContext(c), req.Username)
	if err != nil {
		return h.fail(c, err, "ban toggle failed")
	}

	return utils.SendSuccess(c, "ban toggled", cfg)
}

func (h *ModerationHandler) addFilterWord(c *fiber.Ctx) error {
	var req dto.FilterWordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	cfg, err := h.moderation.AddFilterWord(h.requestContext(c), usernameFromContext(c), req.Word)
	if err != nil {
		return h.fail(c, err, "filter word add failed")
	}

	return utils.SendSuccess(c, "filter word added", cfg)
}

func (h *ModerationHandler) removeFilterWord(c *fiber.Ctx) error {
	var req dto.FilterWordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	cfg, err := h.moderation.RemoveFilterWord(h.requestContext(c), usernameFromContext(c), req.Word)
	if err != nil {
		return h.fail(c, err, "filter word removal failed")
	}

	return utils.SendSuccess(c, "filter word removed", cfg)
}

func (h *ModerationHandler) toggleModerator(c *fiber.Ctx) error {
	var req dto.ModeratorToggleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	moderator, err := h.moderation.ToggleModerator(h.requestContext(c), usernameFromContext(c), req.Username)
	if err != nil {
		return h.fail(c, err, "moderator toggle failed")
	}

	return utils.SendSuccess(c, "moderator toggled", fiber.Map{"username": req.Username, "is_moderator": moderator})
}

func (h *ModerationHandler) deleteAccount(c *fiber.Ctx) error {
	username := c.Params("username")

	if err := h.moderation.DeleteAccount(h.requestContext(c), usernameFromContext(c), username); err != nil {
		return h.fail(c, err, "account delete failed")
	}

	return utils.SendSuccess(c, "account deleted", nil)
}

func (h *ModerationHandler) deleteRoom(c *fiber.Ctx) error {
	if err := h.moderation.DeleteRoom(h.requestContext(c), usernameFromContext(c), c.Params("id")); err != nil {
		return h.fail(c, err, "room delete failed")
	}

	return utils.SendSuccess(c, "room deleted", nil)
}

func (h *ModerationHandler) clearConversation(c *fiber.Ctx) error {
	var req dto.ClearConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	deleted, err := h.moderation.ClearConversation(h.requestContext(c), usernameFromContext(c), req)
	if err != nil {
		return h.fail(c, err, "conversation clear failed")
	}

	return utils.SendSuccess(c, "conversation cleared", dto.ClearResponse{Deleted: deleted})
}

func (h *ModerationHandler) clearAll(c *fiber.Ctx) error {
	var req dto.ClearAllRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	deleted, err := h.moderation.ClearAll(h.requestContext(c), usernameFromContext(c), req.Confirm)
	if err != nil {
		return h.fail(c, err, "clear all failed")
	}

	return utils.SendSuccess(c, "all conversations cleared", dto.ClearResponse{Deleted: deleted})
}

func (h *ModerationHandler) runRetention(c *fiber.Ctx) error {
	var req dto.RetentionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Confirm != dto.RetentionConfirmPhrase {
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrBadConfirmation.Error())
	}

	deleted, err := h.retention.RunManual(h.requestContext(c), usernameFromContext(c))
	if err != nil {
		return h.fail(c, err, "retention run failed")
	}

	return utils.SendSuccess(c, "retention run complete", dto.RetentionResponse{Deleted: deleted, Ran: true})
}

func (h *ModerationHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrNotModerator):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrSelfTarget), errors.Is(err, service.ErrReservedRoom), errors.Is(err, service.ErrBadConfirmation):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRoomNotFound), errors.Is(err, service.ErrAccountGone), errors.Is(err, gorm.ErrRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "target not found")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}

func (h *ModerationHandler) requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}
