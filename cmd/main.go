package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ctfboard/ctfboard/client"
	"github.com/ctfboard/ctfboard/config"
	"github.com/ctfboard/ctfboard/db"
	"github.com/ctfboard/ctfboard/handlers"
	"github.com/ctfboard/ctfboard/repositories"
	api "github.com/ctfboard/ctfboard/routes"
	"github.com/ctfboard/ctfboard/scoring"
	"github.com/ctfboard/ctfboard/services"
	"github.com/ctfboard/ctfboard/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("upstream", cfg.UpstreamURL))

	// Session store and contest server gateway.
	sessionStore, err := storage.NewFileSessionStore(cfg.SessionDir)
	if err != nil {
		logger.Error("failed to open session store", slog.Any("error", err))
		os.Exit(1)
	}
	gateway, err := client.NewServer(cfg.UpstreamURL, sessionStore)
	if err != nil {
		logger.Error("failed to build upstream gateway", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("upstream gateway initialized", slog.Bool("logged_in", gateway.LoggedIn()))

	// Optional award archive.
	var archiveService *services.ArchiveService
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			}
		}()
		awardRepo := repositories.NewPostgresAwardRepository(dbConn)
		archiveService = services.NewArchiveService(dbConn, awardRepo)
		logger.Info("award archive enabled")
	}

	// Optional award feed.
	var feedService *services.FeedService
	if len(cfg.KafkaBrokers) > 0 {
		feedService = services.NewFeedService(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() {
			if err := feedService.Close(); err != nil {
				logger.Error("failed to close feed writer", slog.Any("error", err))
			}
		}()
		logger.Info("award feed enabled", slog.String("topic", cfg.KafkaTopic))
	}

	// Optional content mirror (Cloudflare R2).
	var mirrorService *services.MirrorService
	if cfg.R2AccountID != "" {
		uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		mirrorService = services.NewMirrorService(gateway, uploader, logger)
		logger.Info("content mirror enabled", slog.String("bucket", cfg.R2BucketName))
	}

	// Websocket hub.
	wsHub := scoring.NewHub(logger)
	go wsHub.Run()
	logger.Info("websocket hub started")

	scoreboardService := services.NewScoreboardService(services.ScoreboardServiceConfig{
		Gateway:        gateway,
		Hub:            wsHub,
		Logger:         logger,
		Archive:        archiveService,
		Feed:           feedService,
		ReplayDuration: cfg.ReplayDuration,
		ReplayMaxFPS:   cfg.ReplayMaxFPS,
	})
	authService := services.NewAdminAuthService(cfg.AdminPasswordHash, cfg.JWTSecretKey)
	logger.Info("services initialized")

	// Background poller.
	pollCtx, cancelPoll := context.WithCancel(context.Background())
	defer cancelPoll()
	go scoreboardService.Run(pollCtx, cfg.PollInterval)
	logger.Info("upstream poller started", slog.Duration("interval", cfg.PollInterval))

	authHandler := handlers.NewAuthHandler(authService, logger)
	scoreboardHandler := handlers.NewScoreboardHandler(scoreboardService, archiveService, mirrorService, logger)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(router, authService, authHandler, scoreboardHandler, webSocketHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancelPoll()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
