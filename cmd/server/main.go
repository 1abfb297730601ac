package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stagehq/upload-validator/internal/api/handlers"
	"github.com/stagehq/upload-validator/internal/api/middleware"
	"github.com/stagehq/upload-validator/internal/config"
	"github.com/stagehq/upload-validator/internal/notify"
	"github.com/stagehq/upload-validator/internal/repository/postgres"
	"github.com/stagehq/upload-validator/internal/storage"
	"github.com/stagehq/upload-validator/internal/workflow"
	"github.com/stagehq/upload-validator/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	if cfg.Server.Mode == "debug" {
		logger.SetLevel("debug")
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Shared, long-lived collaborator handles reused across events
	store, err := storage.NewMinioTagStore(storage.MinioConfig{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Region:    cfg.Storage.Region,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create tag store")
	}

	queue, err := notify.NewRedisQueue(cfg.Queue)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to notification channel")
	}
	defer queue.Close()

	var recorder workflow.Recorder
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		recorder = postgres.NewValidationRunRepository(db)
	}

	wf := workflow.New(store, queue, recorder, workflow.Config{
		SuccessQueue: cfg.Queue.SuccessQueue,
		FailureQueue: cfg.Queue.FailureQueue,
	})

	// Initialize HTTP server
	router := setupRouter(wf, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func setupRouter(wf *workflow.Workflow, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "X-Request-ID")

	// Middleware
	router.Use(
		middleware.Logger(),
		middleware.Recovery(),
		cors.New(corsConfig),
	)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1
	v1 := router.Group("/api/v1")
	{
		eventHandler := handlers.NewEventHandler(wf)
		v1.POST("/events", eventHandler.HandleEvent)
	}

	return router
}
