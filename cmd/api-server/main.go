package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"mediahub/database"
	"mediahub/internal/config"
	"mediahub/internal/http-api/handler"
	"mediahub/internal/http-api/middleware"
	"mediahub/internal/http-api/repository"
	"mediahub/internal/http-api/service"
	"mediahub/internal/providers"
	"mediahub/internal/shared"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Error("could not connect to database", "error", err)
		os.Exit(1)
	}

	hot, err := repository.NewEssentialRedisRepo(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Warn("redis unavailable, hot cache disabled", "error", err)
	}

	registry := providers.NewRegistry()
	registry.Register(shared.ProviderTMDB, providers.NewTMDBClient(cfg.TMDBAPIURL, cfg.TMDBAPIKey, cfg.ProviderTimeout))
	registry.Register(shared.ProviderJikan, providers.NewJikanClient(cfg.JikanAPIURL, cfg.ProviderTimeout))
	registry.Register(shared.ProviderRAWG, providers.NewRAWGClient(cfg.RAWGAPIURL, cfg.RAWGAPIKey, cfg.ProviderTimeout))
	registry.Register(shared.ProviderGoogleBooks, providers.NewGoogleBooksClient(cfg.GoogleBooksURL, cfg.GoogleBooksKey, cfg.ProviderTimeout))

	cacheRepo := repository.NewCacheRepository(db)
	libraryRepo := repository.NewLibraryRepository(db)
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	authService := service.NewAuthService(userRepo, refreshTokenRepo, cfg)
	cacheService := service.NewCacheService(cacheRepo, hot, registry, cfg.PurgeDefaultDays, logger)
	libraryService := service.NewLibraryService(libraryRepo, cacheRepo, hot, logger)

	if cfg.GoEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/check-conn", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	handler.NewAuthHandler(authService).RegisterRoutes(api.Group("/auth"))

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(authService))
	handler.NewCacheHandler(cacheService).RegisterRoutes(authed.Group("/cache"))
	handler.NewLibraryHandler(libraryService).RegisterRoutes(authed.Group("/library"))
	handler.NewSearchHandler(registry).RegisterRoutes(authed.Group("/search"))

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("http server listening", "addr", addr, "env", cfg.GoEnv)
	if err := r.Run(addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
