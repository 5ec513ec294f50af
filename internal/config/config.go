package config

import (
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"course-portal/internal/storage"

	"github.com/joho/godotenv"
)

// DefaultAPIBaseURL is the backend the portal talks to when API_BASE_URL is
// unset
const DefaultAPIBaseURL = "http://localhost:5129/api/v1"

// Config holds application configuration
type Config struct {
	Port string

	APIBaseURL            string
	APITimeout            time.Duration
	APIContractValidation bool
	APIContractFile       string

	SessionBackend string
	SessionFile    string
	DatabaseURL    string
	RedisURL       string
	RedisKeyPrefix string

	AuthRateLimit float64
	AuthRateBurst int

	LogLevel    string
	LogFormat   string
	Environment string // development, staging, production
}

// Load reads .env and the environment, exiting on invalid configuration
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	return cfg
}

// FromEnv builds and validates a Config from environment variables
func FromEnv() (*Config, error) {
	timeout, err := time.ParseDuration(getEnv("API_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("API_TIMEOUT: %w", err)
	}
	validate, err := strconv.ParseBool(getEnv("API_CONTRACT_VALIDATION", "false"))
	if err != nil {
		return nil, fmt.Errorf("API_CONTRACT_VALIDATION: %w", err)
	}
	rateLimit, err := strconv.ParseFloat(getEnv("AUTH_RATE_LIMIT", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("AUTH_RATE_LIMIT: %w", err)
	}
	rateBurst, err := strconv.Atoi(getEnv("AUTH_RATE_BURST", "10"))
	if err != nil {
		return nil, fmt.Errorf("AUTH_RATE_BURST: %w", err)
	}

	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		APIBaseURL:            getEnv("API_BASE_URL", DefaultAPIBaseURL),
		APITimeout:            timeout,
		APIContractValidation: validate,
		APIContractFile:       getEnv("API_CONTRACT_FILE", ""),
		SessionBackend:        strings.ToLower(getEnv("SESSION_BACKEND", storage.BackendMemory)),
		SessionFile:           getEnv("SESSION_FILE", ""),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisKeyPrefix:        getEnv("REDIS_KEY_PREFIX", "course-portal:session:"),
		AuthRateLimit:         rateLimit,
		AuthRateBurst:         rateBurst,
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "json"),
		Environment:           getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration for security and correctness
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}

	if err := storage.ValidateBackend(c.SessionBackend); err != nil {
		return fmt.Errorf("SESSION_BACKEND: %w", err)
	}

	switch c.SessionBackend {
	case storage.BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_BACKEND is postgres")
		}
	case storage.BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_BACKEND is redis")
		}
	case storage.BackendFile:
		if c.SessionFile == "" {
			path, err := DefaultSessionFile()
			if err != nil {
				return fmt.Errorf("SESSION_FILE is unset and no default location exists: %w", err)
			}
			c.SessionFile = path
		}
	}

	if c.AuthRateLimit <= 0 || c.AuthRateBurst <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}

	if c.IsProduction() {
		// Tokens travel in the Authorization header
		if u.Scheme != "https" {
			return fmt.Errorf("API_BASE_URL must use https in production")
		}
		if c.SessionBackend == storage.BackendMemory {
			slog.Warn("memory session backend loses every session on restart")
		}
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev" || c.Environment == ""
}

// DefaultSessionFile is where coursectl keeps its session
func DefaultSessionFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "coursectl", "session.json"), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
