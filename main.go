package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/camden-git/portfoliobackend/auth"
	"github.com/camden-git/portfoliobackend/config"
	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/handlers"
	"github.com/camden-git/portfoliobackend/logging"
	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/metrics"
	"github.com/camden-git/portfoliobackend/repository"
	"github.com/camden-git/portfoliobackend/services"
	"github.com/camden-git/portfoliobackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	logger := logging.New(logging.Options{
		ServiceName: "portfolio-api",
		Level:       logging.ParseLevel(cfg.LogLevel),
		Console:     cfg.ConsoleLogs(),
	})
	ctx := context.Background()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "server exited with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *logging.Logger) error {
	if cfg.DatabasePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := database.InitDB(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	gormDB, err := database.InitGormDB(db, !cfg.IsProduction() && cfg.LogLevel == "debug", nil)
	if err != nil {
		return err
	}

	m := metrics.New(nil)

	authenticator, err := auth.New(auth.Options{Token: cfg.APIToken, TokenHash: cfg.APITokenHash, JWTSecret: cfg.JWTSecret})
	if err != nil {
		return fmt.Errorf("failed to configure write authentication: %w", err)
	}
	var issuer handlers.TokenIssuer
	if cfg.JWTSecret != "" {
		issuer = auth.NewJWTAuthenticator(cfg.JWTSecret)
	}
	if cfg.APIToken == "" && cfg.APITokenHash == "" && cfg.JWTSecret == "" {
		logger.Warn(ctx, "no write credentials configured; every write request will be rejected", nil)
	}

	var (
		library   *services.MediaLibrary
		generator *workers.ThumbnailGenerator
	)
	if cfg.MediaEnabled {
		store, err := media.NewLocalStorage(cfg.MediaStoragePath, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize media store: %w", err)
		}
		processor := media.NewProcessor(store, cfg.ThumbnailMaxSize, logger)
		library = services.NewMediaLibrary(store, repository.NewMediaObjectRepository(gormDB), processor, cfg.PublicBaseURL, logger)

		generator = workers.NewThumbnailGenerator(library, logger, m, cfg.ThumbnailQueueSize, cfg.NumThumbnailWorkers)
		library.Queue = generator

		logger.Info(logger.WithFields(ctx, map[string]any{
			"path":     cfg.MediaStoragePath,
			"workers":  cfg.NumThumbnailWorkers,
			"queue":    cfg.ThumbnailQueueSize,
			"max_size": cfg.ThumbnailMaxSize,
		}), "media storage enabled")
	} else {
		logger.Warn(ctx, "media storage disabled; media endpoints will answer 503", nil)
	}

	translator, closeCache := buildTranslator(ctx, cfg, logger, m)
	defer closeCache()

	router := handlers.NewRouter(handlers.Deps{
		DB:                 db,
		ContentBlocks:      repository.NewContentBlockRepository(gormDB),
		Newsletter:         repository.NewNewsletterRepository(gormDB),
		Media:              library,
		Translator:         translator,
		Auth:               authenticator,
		TokenIssuer:        issuer,
		Metrics:            m,
		Log:                logger,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		ExposeErrorDetails: cfg.ExposeErrorDetails,
		TokenTTL:           cfg.TokenTTL,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info(logger.WithField(ctx, "addr", server.Addr), "server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if generator != nil {
			generator.Stop()
		}
		return err
	case <-sigCtx.Done():
	}

	logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "graceful shutdown failed", err)
	}
	if generator != nil {
		generator.Stop()
	}
	return nil
}

// buildTranslator wires every engine that has credentials, in preference
// order, plus the Redis cache when configured. The returned func releases
// the cache connection.
func buildTranslator(ctx context.Context, cfg config.Config, logger *logging.Logger, m *metrics.Metrics) (*services.Translator, func()) {
	var engines []services.TranslationEngine

	if cfg.OpenAIAPIKey != "" {
		opts := []services.Option{services.WithModel(cfg.OpenAIModel)}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, services.WithBaseURL(cfg.OpenAIBaseURL))
		}
		engine, err := services.NewOpenAIEngine(cfg.OpenAIAPIKey, opts...)
		if err != nil {
			logger.Warn(ctx, "openai translation engine unavailable", err)
		} else {
			engines = append(engines, engine)
		}
	}
	if cfg.WorkersAIAccountID != "" && cfg.WorkersAIAPIToken != "" {
		engine, err := services.NewWorkersAIEngine(cfg.WorkersAIAccountID, cfg.WorkersAIAPIToken)
		if err != nil {
			logger.Warn(ctx, "workers-ai translation engine unavailable", err)
		} else {
			engines = append(engines, engine)
		}
	}
	if len(engines) == 0 {
		logger.Warn(ctx, "no translation engine configured; /api/translate will answer 503", nil)
	}

	closeCache := func() {}
	var cache services.TranslationCache
	if cfg.RedisURL != "" {
		redisCache, err := services.NewRedisTranslationCache(ctx, cfg.RedisURL, cfg.TranslationCacheTTL)
		if err != nil {
			logger.Warn(ctx, "translation cache disabled", err)
		} else {
			cache = redisCache
			closeCache = func() { _ = redisCache.Close() }
		}
	}

	return services.NewTranslator(logger, m, cache, engines...), closeCache
}
