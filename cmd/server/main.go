package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"docvault/internal/auth"
	"docvault/internal/config"
	"docvault/internal/handler"
	"docvault/internal/logger"
	"docvault/internal/middleware"
	"docvault/internal/repository/postgres"
	postgresDrive "docvault/internal/repository/postgres/drive"
	serviceAuth "docvault/internal/service/auth"
	serviceDrive "docvault/internal/service/drive"
	"docvault/internal/storage"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLogger, closeLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLogger()
	slog.SetDefault(appLogger)

	appLogger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"blob_backend", cfg.BlobBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		appLogger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	blobs, err := storage.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to initialize blob storage", "error", err)
		os.Exit(1)
	}

	signer, err := auth.NewHMACTokenSigner(cfg.SessionSecret, cfg.SessionIssuer, appLogger)
	if err != nil {
		appLogger.Error("failed to create session signer", "error", err)
		os.Exit(1)
	}

	// Repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: appLogger,
	}
	userRepo := postgres.NewUserRepository(repoConfig)
	sessionRepo := postgres.NewSessionRepository(repoConfig)
	folderRepo := postgresDrive.NewFolderRepository(repoConfig)
	fileRepo := postgresDrive.NewFileRepository(repoConfig)
	grantRepo := postgresDrive.NewGrantRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, appLogger)

	// Services
	authenticator := serviceAuth.NewSessionAuthenticator(sessionRepo, userRepo, signer, serviceAuth.SessionConfig{
		TTL:         cfg.SessionTTL,
		RenewWindow: cfg.SessionRenewWindow,
	}, appLogger)
	authorizer := serviceAuth.NewGrantAuthorizer(folderRepo, fileRepo, grantRepo)

	folderService := serviceDrive.NewFolderService(folderRepo, fileRepo, grantRepo, blobs, txManager, authorizer, appLogger)
	sharingService := serviceDrive.NewSharingService(folderRepo, fileRepo, grantRepo, userRepo, txManager, authorizer, appLogger)
	fileService := serviceDrive.NewFileService(folderRepo, fileRepo, grantRepo, blobs, txManager, authorizer, appLogger)
	archiveService := serviceDrive.NewArchiveService(folderRepo, fileRepo, blobs, authorizer, serviceDrive.ArchiveConfig{
		Dir: cfg.ArchiveDir,
		TTL: cfg.ArchiveTTL,
	}, appLogger)

	sweeper := serviceDrive.NewArchiveSweeper(cfg.ArchiveDir, cfg.ArchiveTTL, cfg.ArchiveSweepInterval, appLogger)
	go sweeper.Run(ctx)

	// Routes
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, &handler.Handlers{
		Health:  handler.NewHealthHandler(pool),
		Folder:  handler.NewFolderHandler(folderService, archiveService, appLogger),
		File:    handler.NewFileHandler(fileService, cfg.MaxUploadBytes, appLogger),
		Sharing: handler.NewSharingHandler(sharingService, appLogger),
	})

	// CORS must run before auth to answer OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.SessionHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})

	// Order: CORS → Logging → Recovery → Auth → Routes
	root := middleware.Chain(mux,
		corsHandler.Handler,
		middleware.RequestLogging(appLogger),
		middleware.Recovery(appLogger),
		middleware.Auth(authenticator, appLogger, "/health"),
	)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     root,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appLogger.Warn("graceful shutdown failed", "error", err)
		}
	}()

	appLogger.Info("listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLogger.Error("server failed", "error", err)
		os.Exit(1)
	}
	appLogger.Info("server stopped")
}
