package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autocaption/config"
	"autocaption/internal/handler"
	"autocaption/internal/service"
	"autocaption/internal/storage"
	"autocaption/internal/telegram"
	"autocaption/pkg/logger"
	"autocaption/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	if err := logger.Init(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Bot.Token == "" {
		logger.Logger.Fatal("BOT_TOKEN is not set")
	}

	logger.Logger.Info("Starting Auto Caption Bot",
		zap.String("mode", cfg.Bot.Mode),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	// Initialize configuration store
	store := storage.NewManager(&cfg.Store)
	if err := store.Load(); err != nil {
		logger.Logger.Fatal("Failed to load store snapshot", zap.Error(err))
	}
	store.Start()
	defer store.Stop()

	// Initialize services
	extractService := service.NewExtractService()
	templateService := service.NewTemplateService()
	rulesService := service.NewTextRulesService(store)
	buttonService := service.NewButtonService(store)
	captionService := service.NewCaptionService(store, extractService, templateService, rulesService, buttonService)

	// Initialize rate limit service
	rateLimitService := service.NewRateLimitService(&cfg.RateLimit)
	defer rateLimitService.Stop()

	// Telegram client and bot handler
	client := telegram.NewClient(cfg.Bot.Token, cfg.Bot.APITimeout)
	botHandler := handler.NewBotHandler(client, store, captionService, rulesService, buttonService, cfg)

	if cfg.Bot.Mode == "polling" {
		go botHandler.Run()
		logger.Logger.Info("Long polling started", zap.Int("poll_timeout", cfg.Bot.PollTimeout))
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Add middleware
	router.Use(logger.GinLogger())

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimitMiddleware(rateLimitService))
		logger.Logger.Info("Rate limiting enabled", zap.Int("requests_per_minute", cfg.RateLimit.RequestsPerMinute))
	}

	// API handlers
	adminHandler := handler.NewAdminHandler(captionService, extractService, templateService, rulesService, buttonService, store, botHandler, cfg)

	// Routes
	api := router.Group("/api")
	{
		api.GET("/health", adminHandler.HealthCheck)
		api.GET("/stats", adminHandler.Stats)
		api.POST("/caption/preview", adminHandler.PreviewCaption)
	}

	if cfg.Bot.Mode == "webhook" {
		router.POST("/webhook", adminHandler.Webhook)
		logger.Logger.Info("Webhook update intake enabled")
	}

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.Timeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.Timeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Logger.Info("Admin API listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Logger.Info("Shutting down...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Stopped")
}
