package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServerPort int

	// DatabaseURL is optional: when empty the service runs on the in-memory
	// roster store (local development, demos).
	DatabaseURL string

	JWTSecretKey string
	// AdminPasswordHash is the bcrypt hash of the admin password. When unset
	// admin login is effectively disabled.
	AdminPasswordHash string

	// IdentityHeader is the trusted header the fronting auth proxy injects
	// the attendee identity into.
	IdentityHeader string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load reads configuration from environment variables, optionally seeded
// from a .env file for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	identityHeader := os.Getenv("IDENTITY_HEADER")
	if identityHeader == "" {
		identityHeader = "X-Auth-Identity"
	}

	cfg := &Config{
		ServerPort:        port,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecretKey:      jwtKey,
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		IdentityHeader:    identityHeader,
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	// Badge storage is all-or-nothing: a partially configured R2 block is a
	// deployment mistake, not a request-time surprise.
	if cfg.BadgeStorageConfigured() {
		if cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" || cfg.R2PublicBaseURL == "" {
			return nil, fmt.Errorf("incomplete Cloudflare R2 configuration: R2_ACCOUNT_ID is set but other R2_* variables are missing")
		}
	}

	return cfg, nil
}

// BadgeStorageConfigured reports whether the R2 block is present.
func (c *Config) BadgeStorageConfigured() bool {
	return c.R2AccountID != ""
}
