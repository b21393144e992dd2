package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Gemini        GeminiConfig
	OCR           OCRConfig
	Queue         QueueConfig
	Storage       StorageConfig
	Email         EmailConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	BaseURL            string
	RateLimitPerSecond int
	RateLimitBurst     int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret     string
	SessionSecret string
	SessionName   string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OCRConfig controls the external rasterizer/OCR tooling.
type OCRConfig struct {
	PdftoppmPath  string
	TesseractPath string
	DPI           int
	Language      string
}

// QueueConfig controls the ingestion worker pool.
type QueueConfig struct {
	Workers      int
	PollInterval time.Duration
	StaleAfter   time.Duration
	// TrimMarkers is the ordered list of boilerplate markers cut from OCR
	// output before prompting. Pipe-separated in the environment.
	TrimMarkers []string
}

type StorageConfig struct {
	LocalPath string
}

type EmailConfig struct {
	ResendAPIKey string
	FromAddress  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 100),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 200),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "ledgerlens-dev"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", "changeme"),
			SessionSecret: getEnv("SESSION_SECRET", "changeme"),
			SessionName:   getEnv("SESSION_NAME", "ledgerlens_session"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
		Gemini: GeminiConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", ""),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 2*time.Minute),
		},
		OCR: OCRConfig{
			PdftoppmPath:  getEnv("OCR_PDFTOPPM_PATH", "pdftoppm"),
			TesseractPath: getEnv("OCR_TESSERACT_PATH", "tesseract"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			Language:      getEnv("OCR_LANGUAGE", "eng"),
		},
		Queue: QueueConfig{
			Workers:      getEnvAsInt("QUEUE_WORKERS", 4),
			PollInterval: getEnvAsDuration("QUEUE_POLL_INTERVAL", 2*time.Second),
			StaleAfter:   getEnvAsDuration("QUEUE_STALE_AFTER", 30*time.Minute),
			TrimMarkers:  getEnvAsList("QUEUE_TRIM_MARKERS", defaultTrimMarkers),
		},
		Storage: StorageConfig{
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./uploads"),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromAddress:  getEnv("EMAIL_FROM", "ledgerlens <noreply@ledgerlens.app>"),
		},
	}

	if cfg.Gemini.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	if cfg.Gemini.Model == "" {
		return nil, errors.New("GEMINI_MODEL is required")
	}

	return cfg, nil
}

// defaultTrimMarkers are footer/boilerplate section headers commonly seen in
// statement OCR output. Everything after the first occurrence is cut.
var defaultTrimMarkers = []string{
	"Important Information",
	"Terms and Conditions",
	"Please note that",
	"Co. Reg. No",
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
