package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// Service Port
	HTTPPort int `env:"HTTP_PORT" default:"8080"`

	// Database
	DatabaseURL string `env:"DATABASE_URL" required:"true"`

	// Authentication
	JWTSecret       string        `env:"JWT_SECRET" required:"true"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" default:"168h"`

	// Redis Cache
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// External provider APIs
	TMDBAPIKey      string `env:"TMDB_API_KEY"`
	TMDBAPIURL      string `env:"TMDB_API_URL" default:"https://api.themoviedb.org/3"`
	JikanAPIURL     string `env:"JIKAN_API_URL" default:"https://api.jikan.moe/v4"`
	RAWGAPIKey      string `env:"RAWG_API_KEY"`
	RAWGAPIURL      string `env:"RAWG_API_URL" default:"https://api.rawg.io/api"`
	GoogleBooksURL  string `env:"GOOGLE_BOOKS_API_URL" default:"https://www.googleapis.com/books/v1"`
	GoogleBooksKey  string `env:"GOOGLE_BOOKS_API_KEY"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" default:"30s"`

	// Cache policy
	PurgeDefaultDays int `env:"PURGE_DEFAULT_DAYS" default:"30"`

	// Development
	LogLevel string `env:"LOG_LEVEL" default:"debug"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Try to load .env file from project root
	if err := godotenv.Load(".env"); err != nil {
		// If .env file doesn't exist, that's OK - we can still use system env vars
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	config := &Config{}

	if err := loadEnvString(&config.GoEnv, "GO_ENV", "development"); err != nil {
		return nil, err
	}

	if err := loadEnvInt(&config.HTTPPort, "HTTP_PORT", 8080); err != nil {
		return nil, err
	}

	// Database
	if err := loadEnvStringRequired(&config.DatabaseURL, "DATABASE_URL"); err != nil {
		return nil, err
	}

	// Authentication
	if err := loadEnvStringRequired(&config.JWTSecret, "JWT_SECRET"); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.AccessTokenTTL, "ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.RefreshTokenTTL, "REFRESH_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}

	// Redis (optional; empty addr disables the hot cache)
	if err := loadEnvString(&config.RedisAddr, "REDIS_ADDR", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RedisPassword, "REDIS_PASSWORD", ""); err != nil {
		return nil, err
	}

	// Providers
	if err := loadEnvString(&config.TMDBAPIKey, "TMDB_API_KEY", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.TMDBAPIURL, "TMDB_API_URL", "https://api.themoviedb.org/3"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.JikanAPIURL, "JIKAN_API_URL", "https://api.jikan.moe/v4"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RAWGAPIKey, "RAWG_API_KEY", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RAWGAPIURL, "RAWG_API_URL", "https://api.rawg.io/api"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.GoogleBooksURL, "GOOGLE_BOOKS_API_URL", "https://www.googleapis.com/books/v1"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.GoogleBooksKey, "GOOGLE_BOOKS_API_KEY", ""); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.ProviderTimeout, "PROVIDER_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	// Cache policy
	if err := loadEnvInt(&config.PurgeDefaultDays, "PURGE_DEFAULT_DAYS", 30); err != nil {
		return nil, err
	}

	// Development
	if err := loadEnvString(&config.LogLevel, "LOG_LEVEL", "debug"); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvString(target *string, key, defaultValue string) error {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	*target = value
	return nil
}

func loadEnvStringRequired(target *string, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return fmt.Errorf("required environment variable %s is not set", key)
	}
	*target = value
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	value := os.Getenv(key)
	if value == "" {
		*target = defaultValue
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer value for %s: %w", key, err)
	}
	*target = parsed
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		*target = defaultValue
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration value for %s: %w", key, err)
	}
	*target = parsed
	return nil
}
