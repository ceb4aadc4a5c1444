package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/relay-chat-api/internal/config"
	"github.com/noah-isme/relay-chat-api/internal/handler"
	"github.com/noah-isme/relay-chat-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	ChatHandler       *handler.ChatHandler
	RoomHandler       *handler.RoomHandler
	ModerationHandler *handler.ModerationHandler
	UploadHandler     *handler.UploadHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := app.Group("/api/v1/auth")
		deps.AuthHandler.RegisterPublic(auth)

		session := app.Group("/api/v1/auth", jwtMiddleware)
		deps.AuthHandler.RegisterProtected(session)

		users := app.Group("/api/v1/users", jwtMiddleware)
		users.Get("/online", deps.AuthHandler.OnlineUsers)
	}

	if deps.RoomHandler != nil {
		rooms := app.Group("/api/v1/rooms", jwtMiddleware)
		deps.RoomHandler.Register(rooms)
	}

	if deps.ChatHandler != nil {
		chat := app.Group("/api/v1/chat", jwtMiddleware)
		deps.ChatHandler.Register(chat)
	}

	if deps.ModerationHandler != nil {
		moderation := app.Group("/api/v1/moderation", jwtMiddleware)
		deps.ModerationHandler.Register(moderation)
	}

	if deps.UploadHandler != nil {
		uploads := app.Group("/api/v1/uploads", jwtMiddleware)
		deps.UploadHandler.Register(uploads)
	}
}
