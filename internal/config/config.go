// Package config provides configuration management for the homeport qualifier.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"homeport-qualifier/internal/models"
)

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port        string
	MaxUploadMB int

	// AWS
	AWSRegion string
	S3Bucket  string

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Notifications
	SESSenderEmail   string
	ReportWebhookURL string

	// Qualifier
	SheetName     string
	BaseThreshold float64
	RandomSeed    uint64
	LayoutFile    string

	// Application
	Stage    string
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		// Server
		Port:        getEnv("PORT", "8080"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 10),

		// AWS
		AWSRegion: getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:  getEnv("S3_BUCKET", "homeport-submissions-dev"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBName:     getEnv("DB_NAME", "homeport"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),

		// Notifications
		SESSenderEmail:   getEnv("SES_SENDER_EMAIL", ""),
		ReportWebhookURL: getEnv("REPORT_WEBHOOK_URL", ""),

		// Qualifier
		SheetName:     getEnv("QUALIFIER_SHEET_NAME", models.DefaultSheetName),
		BaseThreshold: getEnvFloat("QUALIFIER_BASE_THRESHOLD", models.DefaultBaseThreshold),
		RandomSeed:    getEnvUint("QUALIFIER_RANDOM_SEED", 0),
		LayoutFile:    getEnv("QUALIFIER_LAYOUT_FILE", ""),

		// Application
		Stage:    getEnv("STAGE", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// DatabaseURL returns the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	sslMode := "require" // Use SSL for RDS
	if c.DBHost == "localhost" || c.DBHost == "127.0.0.1" {
		sslMode = "disable"
	}
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + strconv.Itoa(c.DBPort) + "/" + c.DBName + "?sslmode=" + sslMode
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Seeded reports whether a fixed random seed is configured.
func (c *Config) Seeded() bool {
	return c.RandomSeed != 0
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as int or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat retrieves an environment variable as float64 or returns a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvUint retrieves an environment variable as uint64 or returns a default value.
func getEnvUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if u, err := strconv.ParseUint(value, 10, 64); err == nil {
			return u
		}
	}
	return defaultValue
}
