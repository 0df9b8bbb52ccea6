package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string // sqlite, postgres, mysql
	DatabasePath    string // SQLite file path
	DatabaseURL     string // PostgreSQL/MySQL connection string
	SessionDuration time.Duration
	SessionSecret   string // empty means a random per-process key
	TrustedProxies  string // comma separated IPs or CIDRs allowed to set X-Forwarded-For
	AppPassword     string // shared login password; empty disables the gate
	AdminPassword   string // required by the word-list reset endpoint
	UploadDir       string
	UploadMaxSize   int64
	SeedDefaults    bool

	LogLevel  string
	LogFormat string

	// Font file storage: local, minio or s3
	FontStore      string
	FontDir        string
	ObjectEndpoint string
	ObjectBucket   string
	ObjectRegion   string
	ObjectAccess   string
	ObjectSecret   string
	ObjectUseSSL   bool

	// External record mirrors
	GoogleServiceAccountJSON  string
	GoogleServiceAccountEmail string
	GooglePrivateKey          string
	GoogleSheetID             string
	GoogleSheetName           string
	FirebaseProjectID         string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		ServerPort:      getEnv("PORT", "3001"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./reading_data.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SessionDuration: getEnvDuration("SESSION_DURATION", 24*time.Hour),
		SessionSecret:   getEnv("SESSION_SECRET", ""),
		TrustedProxies:  getEnv("TRUSTED_PROXIES", ""),
		AppPassword:     getEnv("APP_PASSWORD", ""),
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		UploadMaxSize:   getEnvInt64("UPLOAD_MAX_SIZE", 20*1024*1024), // 20MB
		SeedDefaults:    getEnvBool("SEED_DEFAULTS", true),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		FontStore:      getEnv("FONT_STORE", "local"),
		FontDir:        getEnv("FONT_DIR", "./public/fonts"),
		ObjectEndpoint: getEnv("OBJECT_ENDPOINT", ""),
		ObjectBucket:   getEnv("OBJECT_BUCKET", "fonts"),
		ObjectRegion:   getEnv("OBJECT_REGION", "ap-northeast-1"),
		ObjectAccess:   getEnv("OBJECT_ACCESS_KEY", ""),
		ObjectSecret:   getEnv("OBJECT_SECRET_KEY", ""),
		ObjectUseSSL:   getEnvBool("OBJECT_USE_SSL", true),

		GoogleServiceAccountJSON:  getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountEmail: getEnv("GOOGLE_SERVICE_ACCOUNT_EMAIL", ""),
		GooglePrivateKey:          getEnv("GOOGLE_PRIVATE_KEY", ""),
		GoogleSheetID:             getEnv("GOOGLE_SHEET_ID", ""),
		GoogleSheetName:           getEnv("GOOGLE_SHEET_NAME", "テスト記録"),
		FirebaseProjectID:         getEnv("FIREBASE_PROJECT_ID", ""),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("invalid boolean in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return b
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}
