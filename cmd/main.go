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

	_ "github.com/lib/pq"

	"github.com/cardnight/tournament-system/cache"
	"github.com/cardnight/tournament-system/config"
	"github.com/cardnight/tournament-system/handlers"
	"github.com/cardnight/tournament-system/live"
	"github.com/cardnight/tournament-system/middleware"
	"github.com/cardnight/tournament-system/repositories"
	api "github.com/cardnight/tournament-system/routes"
	"github.com/cardnight/tournament-system/services"
	"github.com/cardnight/tournament-system/sheets"
	"github.com/cardnight/tournament-system/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к хранилищу
	dbConn, err := sheets.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	storeClient := sheets.NewPostgresClient(dbConn)
	resolver := sheets.NewSchemaResolver(storeClient)

	// Листы создаются при первом старте, схемы проверяются на каждом:
	// падение здесь лучше, чем порча данных из-за съехавших колонок.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()
	if err := repositories.EnsureSheets(startupCtx, storeClient); err != nil {
		logger.Error("failed to ensure sheets", slog.Any("error", err))
		os.Exit(1)
	}
	if err := repositories.ValidateSchemas(startupCtx, resolver); err != nil {
		logger.Error("sheet schema validation failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("sheet schemas validated")

	store := sheets.NewRowStore(storeClient, resolver)
	readCache := cache.New(cfg.CacheTTL)

	// Инициализация загрузчика файлов (Cloudflare R2), опционально
	var exporter services.ArchiveExporter
	if cfg.R2Configured() {
		uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
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
		exporter = services.NewExportService(uploader, logger)
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 export disabled: credentials not configured")
	}

	// Инициализация WebSocket Hub
	wsHub := live.NewHub(logger)
	go wsHub.Run()

	// Инициализация репозиториев
	playerRepo := repositories.NewSheetPlayerRepository(store)
	tournamentRepo := repositories.NewSheetTournamentRepository(store)
	matchRepo := repositories.NewSheetMatchRepository(store)
	resultRepo := repositories.NewSheetResultRepository(store)
	archiveRepo := repositories.NewSheetArchiveRepository(store)

	// Инициализация сервисов
	badgeService := services.NewBadgeService(playerRepo)
	authService := services.NewAuthService(playerRepo, readCache, logger, cfg.JWTSecretKey, cfg.TokenTTL)
	rankingService := services.NewRankingService(playerRepo, readCache)
	matchService := services.NewMatchService(
		matchRepo,
		resultRepo,
		playerRepo,
		tournamentRepo,
		badgeService,
		readCache,
		wsHub,
		logger,
		cfg.RatingK,
	)
	tournamentService := services.NewTournamentService(
		tournamentRepo,
		playerRepo,
		archiveRepo,
		badgeService,
		readCache,
		wsHub,
		exporter,
		logger,
	)
	logger.Info("services initialized")

	// Планировщик регламентных работ
	scheduler := services.NewScheduler(tournamentService, logger, cfg.DailyResetHour)
	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer scheduler.Stop()

	// Инициализация обработчиков HTTP
	authMiddleware := middleware.NewAuth(authService)
	router := api.InitRoutes(api.Handlers{
		Auth:       handlers.NewAuthHandler(authService, logger),
		Player:     handlers.NewPlayerHandler(rankingService, authService, logger),
		Match:      handlers.NewMatchHandler(matchService, logger),
		Tournament: handlers.NewTournamentHandler(tournamentService, logger),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, logger),
	}, authMiddleware)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
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
		} else {
			logger.Info("server shut down gracefully")
		}
	}
}
