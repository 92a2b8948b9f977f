package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"feedline/config"
	database "feedline/db"
	"feedline/handler"
	"feedline/middleware"
	"feedline/nats"
	"feedline/pkg/jwt"
	"feedline/publisher"
	"feedline/repository"
	"feedline/routes"
	"feedline/service"
	"feedline/storage"
	"feedline/subscriber"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	conn, err := database.NewConnection(database.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		DBName:       cfg.Database.DBName,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxLifetime:  cfg.Database.MaxLifetime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	natsClient, err := nats.NewClient(nats.Config{
		URL:           cfg.NATS.URL,
		ClientID:      cfg.NATS.ClientID,
		MaxReconnects: cfg.NATS.MaxReconnects,
		ReconnectWait: cfg.NATS.ReconnectWait,
	})
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsClient.Close()

	imageStore, err := storage.NewDiskStore(cfg.Server.UploadDir)
	if err != nil {
		log.Fatalf("Failed to set up image storage: %v", err)
	}

	userRepo := repository.NewUserRepository(conn.DB)
	postRepo := repository.NewPostRepository(conn.DB)
	commentRepo := repository.NewCommentRepository(conn.DB)
	likeRepo := repository.NewLikeRepository(conn.DB)
	shareRepo := repository.NewShareRepository(conn.DB)
	followRepo := repository.NewFollowRepository(conn.DB)
	notificationRepo := repository.NewNotificationRepository(conn.DB)
	feedRepo := repository.NewFeedRepository(conn.DB, redisClient)

	feedService := service.NewFeedService(feedRepo, followRepo)
	eventPublisher := publisher.NewEventPublisher(natsClient)
	jwtManager := jwt.NewManager(cfg.Server.JWTSecret)

	notificationSubscriber := subscriber.NewNotificationSubscriber(natsClient, notificationRepo, followRepo, userRepo)
	if err := notificationSubscriber.Start(); err != nil {
		log.Fatalf("Failed to start notification subscriber: %v", err)
	}

	router := routes.New(routes.Handlers{
		Auth:         handler.NewAuthHandler(userRepo, jwtManager, cfg.Server.TokenExpiry),
		Feed:         handler.NewFeedHandler(feedService),
		Post:         handler.NewPostHandler(postRepo, imageStore, eventPublisher, feedService),
		Comment:      handler.NewCommentHandler(commentRepo, postRepo, eventPublisher),
		Like:         handler.NewLikeHandler(likeRepo, postRepo, eventPublisher),
		Share:        handler.NewShareHandler(shareRepo, feedService),
		Follow:       handler.NewFollowHandler(followRepo, eventPublisher, feedService),
		User:         handler.NewUserHandler(userRepo),
		Notification: handler.NewNotificationHandler(notificationRepo),
	}, middleware.NewAuthMiddleware(jwtManager), cfg.Server.UploadDir, conn.HealthCheck)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
