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
	natsio "github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/activity-stream-api/internal/config"
	"github.com/noah-isme/activity-stream-api/internal/database"
	"github.com/noah-isme/activity-stream-api/internal/entity"
	"github.com/noah-isme/activity-stream-api/internal/handler"
	"github.com/noah-isme/activity-stream-api/internal/middleware"
	"github.com/noah-isme/activity-stream-api/internal/models"
	"github.com/noah-isme/activity-stream-api/internal/repository"
	"github.com/noah-isme/activity-stream-api/internal/router"
	"github.com/noah-isme/activity-stream-api/internal/service"
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

	if err := db.AutoMigrate(&models.User{}, &models.AllowedModel{}, &models.Activity{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *natsio.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	activityRepo := repository.NewActivityRepository(db)
	allowedModelRepo := repository.NewAllowedModelRepository(db)
	userRepo := repository.NewUserRepository(db)

	registry := entity.NewRegistry()
	registry.Register(models.EntityTypeUser, entity.StoreFunc(func(ctx context.Context, id uint) (entity.Entity, error) {
		user, err := userRepo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return &user, nil
	}))

	streamService := service.NewStreamService(activityRepo, registry, redisClient, cfg.StreamCacheTTL, logger)
	activityService := service.NewActivityService(activityRepo, userRepo, allowedModelRepo, validate, natsConn, cfg.NATSSubject, logger)
	allowedModelService := service.NewAllowedModelService(allowedModelRepo, validate, logger)

	streamHandler := handler.NewStreamHandler(streamService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)
	allowedModelHandler := handler.NewAllowedModelHandler(allowedModelService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		StreamHandler:       streamHandler,
		ActivityHandler:     activityHandler,
		AllowedModelHandler: allowedModelHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
