package handler_test

import (
	"context"
	"io"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/relay-chat-api/internal/dto"
	"github.com/noah-isme/relay-chat-api/internal/handler"
	"github.com/noah-isme/relay-chat-api/internal/models"
	"github.com/noah-isme/relay-chat-api/internal/service"
)

type moderationServiceStub struct {
	err error
}

func (m *moderationServiceStub) ToggleBan(ctx context.Context, actor, username string) (models.ModerationConfig, error) {
	return models.ModerationConfig{}, m.err
}

func (m *moderationServiceStub) AddFilterWord(ctx context.Context, actor, word string) (models.ModerationConfig, error) {
	return models.ModerationConfig{}, m.err
}

func (m *moderationServiceStub) RemoveFilterWord(ctx context.Context, actor, word string) (models.ModerationConfig, error) {
	return models.ModerationConfig{}, m.err
}

func (m *moderationServiceStub) ToggleModerator(ctx context.Context, actor, username string) (bool, error) {
	return false, m.err
}

func (m *moderationServiceStub) DeleteAccount(ctx context.Context, actor, username string) error {
	return m.err
}

func (m *moderationServiceStub) DeleteRoom(ctx context.Context, actor, roomID string) error {
	return m.err
}

func (m *moderationServiceStub) ClearConversation(ctx context.Context, actor string, req dto.ClearConversationRequest) (int64, error) {
	return 0, m.err
}

func (m *moderationServiceStub) ClearAll(ctx context.Context, actor, confirm string) (int64, error) {
	return 0, m.err
}

func (m *moderationServiceStub) Panel(ctx context.Context, actor string) (dto.ModerationPanelResponse, error) {
	return dto.ModerationPanelResponse{}, m.err
}

func (m *moderationServiceStub) Config(ctx context.Context) (models.ModerationConfig, error) {
	return models.ModerationConfig{}, m.err
}

type retentionServiceStub struct {
	deleted int64
	err     error
}

func (r *retentionServiceStub) Start(ctx context.Context) {}

func (r *retentionServiceStub) RunAuto(ctx context.Context) (int64, bool, error) {
	return 0, false, nil
}

func (r *retentionServiceStub) RunManual(ctx context.Context, actor string) (int64, error) {
	return r.deleted, r.err
}

func moderationApp(moderation service.ModerationService, retention service.RetentionService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("username", "mod")
		return c.Next()
	})
	h := handler.NewModerationHandler(moderation, retention, zerolog.New(io.Discard))
	h.Register(app.Group("/moderation"))
	return app
}

func TestModerationForbiddenForNonModerator(t *testing.T) {
	app := moderationApp(&moderationServiceStub{err: service.ErrNotModerator}, &retentionServiceStub{})

	resp := postJSON(t, app, "/moderation/bans", dto.BanToggleRequest{Username: "alice"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestClearAllBadConfirmationIsBadRequest(t *testing.T) {
	app := moderationApp(&moderationServiceStub{err: service.ErrBadConfirmation}, &retentionServiceStub{})

	resp := postJSON(t, app, "/moderation/clear-all", dto.ClearAllRequest{Confirm: "nope"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRetentionRunDemandsConfirmPhrase(t *testing.T) {
	app := moderationApp(&moderationServiceStub{}, &retentionServiceStub{deleted: 3})

	resp := postJSON(t, app, "/moderation/retention/run", dto.RetentionRequest{Confirm: "delete"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, app, "/moderation/retention/run", dto.RetentionRequest{Confirm: dto.RetentionConfirmPhrase})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
