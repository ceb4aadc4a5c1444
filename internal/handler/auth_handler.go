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

// AuthHandler wires account and session endpoints.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler creates an auth handler instance.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterPublic binds the unauthenticated auth routes.
func (h *AuthHandler) RegisterPublic(router fiber.Router) {
	router.Post("/signup", h.signup)
	router.Post("/login", h.login)
}

// RegisterProtected binds the token-protected auth routes.
func (h *AuthHandler) RegisterProtected(router fiber.Router) {
	router.Get("/session", h.session)
	router.Post("/logout", h.logout)
}

func (h *AuthHandler) signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.service.Signup(h.requestContext(c), req)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUsernameTaken):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("signup failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "signup failed")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created", session)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	token, err := h.service.Login(h.requestContext(c), req)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidCredentials):
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("login failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "login failed")
		}
	}

	return utils.SendSuccess(c, "login successful", token)
}

func (h *AuthHandler) session(c *fiber.Ctx) error {
	username := usernameFromContext(c)
	if username == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	session, err := h.service.Resume(h.requestContext(c), username)
	if err != nil {
		if errors.Is(err, service.ErrAccountGone) {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("session resume failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "session resume failed")
	}

	return utils.SendSuccess(c, "session active", session)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	username := usernameFromContext(c)
	if username == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	if err := h.service.Logout(h.requestContext(c), username); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("logout failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "logout failed")
	}

	return utils.SendSuccess(c, "logged out", nil)
}

// OnlineUsers reports everyone currently online except the caller.
func (h *AuthHandler) OnlineUsers(c *fiber.Ctx) error {
	username := usernameFromContext(c)
	if username == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	users, err := h.service.OnlineUsers(h.requestContext(c), username)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("online users lookup failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "online users lookup failed")
	}

	return utils.SendSuccess(c, "online users", users)
}

func (h *AuthHandler) requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}
