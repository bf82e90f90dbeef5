package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DatabaseDSN string
	Env         string

	// Token signing
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Login rate limiting
	LoginRateWindow time.Duration
	LoginRateLimit  int

	// Media storage
	MediaBackend   string // "fs" or "s3"
	MediaDir       string
	S3Bucket       string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3BaseEndpoint string
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by caller) > default.
// The result is passed by value into the components that need it; nothing
// reads the environment after startup.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", "file:recipebox.db")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "devjwtsecret")
	cfg.AccessTTL = getDuration("ACCESS_TOKEN_TTL", 30*time.Minute)
	cfg.RefreshTTL = getDuration("REFRESH_TOKEN_TTL", 24*time.Hour)
	cfg.LoginRateWindow = getDuration("LOGIN_RATE_WINDOW", time.Minute)
	cfg.LoginRateLimit = getInt("LOGIN_RATE_LIMIT", 10)
	cfg.MediaBackend = getEnv("MEDIA_BACKEND", "fs")
	cfg.MediaDir = getEnv("MEDIA_DIR", "media")
	cfg.S3Bucket = getEnv("S3_BUCKET", "recipebox-media")
	cfg.S3Region = getEnv("S3_REGION", "us-east-1")
	cfg.S3AccessKey = getEnv("S3_ACCESS_KEY", "")
	cfg.S3SecretKey = getEnv("S3_SECRET_KEY", "")
	cfg.S3BaseEndpoint = getEnv("S3_BASE_ENDPOINT", "")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid integer for %s: %s", key, v)
			return def
		}
		return n
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid duration for %s: %s", key, v)
			return def
		}
		return d
	}
	return def
}
