package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hackdayhq/hackathon-system/config"
	"github.com/hackdayhq/hackathon-system/db"
	"github.com/hackdayhq/hackathon-system/handlers"
	"github.com/hackdayhq/hackathon-system/live"
	"github.com/hackdayhq/hackathon-system/repositories"
	api "github.com/hackdayhq/hackathon-system/routes"
	"github.com/hackdayhq/hackathon-system/services"
	"github.com/hackdayhq/hackathon-system/storage"
	"github.com/hackdayhq/hackathon-system/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Roster store: Postgres when configured, in-memory otherwise.
	var docStore store.DocumentStore
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

		pgStore := store.NewPostgresStore(dbConn, logger)
		if err := pgStore.EnsureSchema(context.Background()); err != nil {
			logger.Error("failed to ensure store schema", slog.Any("error", err))
			os.Exit(1)
		}
		docStore = pgStore
		logger.Info("postgres roster store initialized")
	} else {
		docStore = store.NewMemoryStore()
		logger.Warn("DATABASE_URL not set, using in-memory roster store (data is not durable)")
	}

	// Badge storage (optional).
	var uploader storage.FileUploader
	if cfg.BadgeStorageConfigured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
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
		logger.Info("Cloudflare R2 badge storage initialized")
	}

	wsHub := live.NewHub(logger)
	go wsHub.Run()

	counterRepo := repositories.NewCounterRepository(docStore)
	teamRepo := repositories.NewTeamRepository(docStore)
	participantRepo := repositories.NewParticipantRepository(docStore)

	allocator := services.NewSequenceAllocator(counterRepo)
	balancer := services.NewBalancer(rand.New(rand.NewSource(time.Now().UnixNano())))
	registrationService := services.NewRegistrationService(participantRepo, teamRepo, allocator, balancer, wsHub, logger)
	relocationService := services.NewRelocationService(participantRepo, teamRepo, balancer, wsHub, logger)
	teamService := services.NewTeamService(teamRepo, uploader, wsHub, logger)
	rosterService := services.NewRosterService(teamRepo, participantRepo)
	authService := services.NewAuthService(cfg.AdminPasswordHash, cfg.JWTSecretKey)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	teamHandler := handlers.NewTeamHandler(teamService)
	relocationHandler := handlers.NewRelocationHandler(relocationService)
	rosterHandler := handlers.NewRosterHandler(rosterService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Config{IdentityHeader: cfg.IdentityHeader, JWTSecret: []byte(cfg.JWTSecretKey)},
		authHandler,
		registrationHandler,
		teamHandler,
		relocationHandler,
		rosterHandler,
		webSocketHandler,
	)
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
