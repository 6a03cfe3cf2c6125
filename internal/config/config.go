package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Dashboard server
	Port          string
	LedgerBaseURL string
	DefaultUnitID int64
	LogLevel      string

	// Ledger service
	LedgerPort   string
	SQLiteDBPath string
	CORSOrigins  []string

	// Cache
	RedisURL string
	CacheTTL time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Assistant
	GeminiModel  string
	GoogleAPIKey string

	// Google Sheets mirror
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Apply worker
	ApplyBatchSize int
	ApplyInterval  time.Duration

	// Import
	ImportConcurrency int

	ShutdownTimeout time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		LedgerBaseURL: getEnv("LEDGER_BASE_URL", "http://localhost:8000"),
		DefaultUnitID: getEnvInt64("DEFAULT_UNIT_ID", 1),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		LedgerPort:   getEnv("LEDGER_PORT", "8000"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ledger.db"),
		CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		RedisURL: getEnv("REDIS_URL", ""),
		CacheTTL: getEnvDuration("CACHE_TTL", 30*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "apply_transactions"),

		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GoogleAPIKey: getEnv("GOOGLE_API_KEY", ""),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),

		ApplyBatchSize: getEnvInt("APPLY_BATCH_SIZE", 50),
		ApplyInterval:  getEnvDuration("APPLY_INTERVAL", 5*time.Minute),

		ImportConcurrency: getEnvInt("IMPORT_CONCURRENCY", 4),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	errors = append(errors, validatePort("port", c.Port)...)
	errors = append(errors, validatePort("ledger port", c.LedgerPort)...)

	if c.LedgerBaseURL == "" {
		errors = append(errors, "ledger base URL cannot be empty")
	} else if u, err := url.Parse(c.LedgerBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid ledger base URL '%s': %v", c.LedgerBaseURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid ledger base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	}

	if c.DefaultUnitID < 1 {
		errors = append(errors, fmt.Sprintf("invalid default unit id %d: must be positive", c.DefaultUnitID))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		// Check if directory exists or can be created
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.RedisURL != "" {
		if u, err := url.Parse(c.RedisURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Redis URL '%s': %v", c.RedisURL, err))
		} else if u.Scheme != "redis" && u.Scheme != "rediss" {
			errors = append(errors, fmt.Sprintf("invalid Redis URL scheme '%s': must be 'redis' or 'rediss'", u.Scheme))
		}
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
	}

	if c.ApplyBatchSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid apply batch size %d: must not be negative", c.ApplyBatchSize))
	}
	if c.ApplyInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid apply interval %v: must not be negative", c.ApplyInterval))
	}

	if c.ImportConcurrency < 1 || c.ImportConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid import concurrency %d: must be between 1 and 64", c.ImportConcurrency))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AssistantEnabled reports whether a remote model is configured.
func (c *Config) AssistantEnabled() bool { return c.GoogleAPIKey != "" }

// SheetsEnabled reports whether transactions are mirrored to a spreadsheet.
func (c *Config) SheetsEnabled() bool { return c.GoogleSpreadsheetID != "" }

func validatePort(name, value string) []string {
	port, err := strconv.Atoi(value)
	if err != nil {
		return []string{fmt.Sprintf("invalid %s '%s': must be a number", name, value)}
	}
	if port < 1 || port > 65535 {
		return []string{fmt.Sprintf("invalid %s %d: must be between 1 and 65535", name, port)}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
