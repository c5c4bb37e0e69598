package main

import (
	"context"
	"time"

	"github.com/contacthub/backend/internal/cache"
	"github.com/contacthub/backend/internal/client"
	"github.com/contacthub/backend/internal/config"
	"github.com/contacthub/backend/internal/db"
	"github.com/contacthub/backend/internal/handler"
	"github.com/contacthub/backend/internal/ratelimit"
	"github.com/contacthub/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	database, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure schema", zap.Error(err))
	}

	// Redis backs the session cache and the rate limiter. Without it the
	// cache degrades to in-process memory and rate limiting is disabled.
	var (
		sessions cache.SessionCache
		limiter  ratelimit.Limiter
	)
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory session cache", zap.Error(err))
		sessions = cache.NewMemoryCache()
	} else {
		defer redisClient.Close()
		sessions = cache.NewRedisCache(redisClient)
		limiter = ratelimit.NewRedisLimiter(redisClient)
	}

	codec, err := service.NewTokenCodec(cfg.Auth)
	if err != nil {
		logger.Fatal("invalid auth config", zap.Error(err))
	}
	hasher, err := service.NewPasswordHasher(cfg.Auth)
	if err != nil {
		logger.Fatal("invalid auth config", zap.Error(err))
	}

	mailer := client.NewSMTPMailer(cfg.Mail, cfg.Server.BaseURL, codec, logger)
	defer mailer.Close()
	if !mailer.IsConfigured() {
		logger.Warn("mail server not configured, outbound mail will be dropped")
	}

	authService, err := service.NewAuthService(database, sessions, mailer, hasher, codec, cfg.Auth, logger)
	if err != nil {
		logger.Fatal("invalid auth config", zap.Error(err))
	}
	contactService := service.NewContactService(database)
	userService := service.NewUserService(database, cfg.Upload.AvatarDir, cfg.Server.BaseURL)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	contactHandler := handler.NewContactHandler(contactService)
	healthHandler := handler.NewHealthHandler(database)

	router := gin.Default()
	router.Use(handler.CORSMiddleware(cfg.Server.AllowedOrigins, true))

	router.GET("/", handler.Root)
	router.GET("/ping", handler.Ping)
	router.Static("/avatars", cfg.Upload.AvatarDir)

	api := router.Group("/api")
	api.GET("/healthchecker", healthHandler.Healthchecker)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/confirmed_email/:token", authHandler.ConfirmEmail)
	auth.POST("/request_email", authHandler.RequestEmail)
	auth.POST("/password_reset_request", authHandler.PasswordResetRequest)
	auth.POST("/password_reset", authHandler.PasswordReset)

	users := api.Group("/users")
	users.Use(handler.AuthMiddleware(authService))
	users.GET("/me",
		handler.RateLimitMiddleware(limiter, "me", 5, time.Minute, logger),
		userHandler.Me)
	users.PATCH("/avatar", userHandler.UpdateAvatar)

	contacts := api.Group("/contacts")
	contacts.Use(handler.AuthMiddleware(authService))
	contacts.GET("", contactHandler.List)
	contacts.POST("", contactHandler.Create)
	contacts.GET("/search", contactHandler.Search)
	contacts.GET("/birthdays", contactHandler.Birthdays)
	contacts.GET("/:id", contactHandler.Get)
	contacts.PUT("/:id", contactHandler.Update)
	contacts.DELETE("/:id", contactHandler.Delete)

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
