package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/relay-chat-api/internal/config"
	"github.com/noah-isme/relay-chat-api/internal/database"
	"github.com/noah-isme/relay-chat-api/internal/handler"
	"github.com/noah-isme/relay-chat-api/internal/middleware"
	"github.com/noah-isme/relay-chat-api/internal/models"
	"github.com/noah-isme/relay-chat-api/internal/repository"
	"github.com/noah-isme/relay-chat-api/internal/router"
	"github.com/noah-isme/relay-chat-api/internal/service"
	cloud "github.com/noah-isme/relay-chat-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Account{}, &models.Room{}, &models.Message{}, &models.DirectMessage{}, &models.ModerationConfig{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, cross-node stream events disabled")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	accountRepo := repository.NewAccountRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	moderationRepo := repository.NewModerationRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := roomRepo.EnsureGeneral(ctx); err != nil {
		log.Fatalf("failed to ensure general room: %v", err)
	}

	streamService := service.NewStreamService(messageRepo, redisClient, cfg.StreamChannelBase, natsConn, cfg.HistoryCap, logger)
	streamService.Start(ctx)

	authService := service.NewAuthService(accountRepo, validate, cfg.JWTSecret, cfg.TokenTTL, logger)
	chatService := service.NewChatService(messageRepo, moderationRepo, streamService, validate, cfg.HistoryCap, logger)
	roomService := service.NewRoomService(roomRepo, validate, logger)
	moderationService := service.NewModerationService(accountRepo, roomRepo, messageRepo, moderationRepo, streamService, logger)
	retentionService := service.NewRetentionService(messageRepo, accountRepo, redisClient, cfg.StreamChannelBase, cfg.RetentionAge, cfg.RetentionCheckInterval, logger)
	retentionService.Start(ctx)
	uploadService := service.NewUploadService(uploader, cfg.UploadMaxMB, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	chatHandler := handler.NewChatHandler(chatService, validate, logger)
	roomHandler := handler.NewRoomHandler(roomService, logger)
	moderationHandler := handler.NewModerationHandler(moderationService, retentionService, logger)
	uploadHandler := handler.NewUploadHandler(uploadService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       authHandler,
		ChatHandler:       chatHandler,
		RoomHandler:       roomHandler,
		ModerationHandler: moderationHandler,
		UploadHandler:     uploadHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, cancel)
}

func waitForShutdown(app *fiber.App, cancel context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	cancel()

	ctx, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
