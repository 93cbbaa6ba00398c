package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all application configuration.
// Values come from environment variables with sensible defaults.
//
// Environment Variables:
// LLM Configuration:
// - LLM_API_KEY: API key for the LLM provider (required)
// - LLM_API_URL: API endpoint URL (default: https://openrouter.ai/api/v1)
// - LLM_MODEL: Model name to use (default: openai/gpt-3.5-turbo)
// - LLM_MAX_TOKENS: Maximum tokens for responses (default: 8000)
// - LLM_TEMPERATURE: Temperature for responses (default: 0.7)
// - LLM_TIMEOUT: Request timeout in seconds (default: 30)
// - LLM_SITE_URL: Site URL for HTTP referer header (optional)
// - LLM_APP_NAME: Application name for X-Title header (optional)
//
// HTTP Configuration:
// - HTTP_ADDR: Listen address (default: :8080)
// - UI_STATIC_DIR: Directory with the built web UI (default: /app/web)
// - UI_ENABLED: Serve the web UI (default: true)
// - MAX_UPLOAD_MB: Upload size cap per request in MiB (default: 20)
// - CORS_ORIGINS: Comma-separated allowed origins (default: all)
//
// System Configuration:
// - DATA_DIR: Directory for the database and spooled documents (default: /app/data)
// - LOG_LEVEL: debug, info, warn or error (default: info)
//
// Translation Configuration:
// - BATCH_SIZE: Cues per translation request (default: 100)
// - CONCURRENT_LIMIT: Batches in flight at once (default: 5)
//
// Retention Configuration:
// - RETENTION_CRON: Sweep schedule, seconds-mandatory cron or descriptor (default: @hourly)
// - RETENTION_MAX_AGE_HOURS: Age after which spooled documents are removed (default: 24)
// - HISTORY_LIMIT: Translation history records kept (default: 20)

type Config struct {
	LLM       LLMConfig       `json:"llm"`
	HTTP      HTTPConfig      `json:"http"`
	System    SystemConfig    `json:"system"`
	Translate TranslateConfig `json:"translate"`
	Retention RetentionConfig `json:"retention"`
}

// LLMConfig holds the configuration for the LLM client.
// Supports any OpenAI-compatible provider (OpenRouter, OpenAI, etc.)
type LLMConfig struct {
	APIKey      string  `json:"api_key"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
	SiteURL     string  `json:"site_url"`
	AppName     string  `json:"app_name"`
}

type HTTPConfig struct {
	Addr        string   `json:"addr"`
	UIStaticDir string   `json:"ui_static_dir"`
	UIEnabled   bool     `json:"ui_enabled"`
	MaxUploadMB int      `json:"max_upload_mb"`
	CORSOrigins []string `json:"cors_origins"`
}

func (c HTTPConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

type SystemConfig struct {
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
}

type TranslateConfig struct {
	BatchSize       int `json:"batch_size"`
	ConcurrentLimit int `json:"concurrent_limit"`
}

type RetentionConfig struct {
	CronExpr     string `json:"cron_expr"`
	MaxAgeHours  int    `json:"max_age_hours"`
	HistoryLimit int    `json:"history_limit"`
}

// DBPath is where the SQLite database lives inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.System.DataDir, "subloc.db")
}

// SpoolDir is where uploaded and translated documents live inside the
// data directory.
func (c *Config) SpoolDir() string {
	return filepath.Join(c.System.DataDir, "runs")
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment
// variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		LLM: LLMConfig{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnvString("LLM_MODEL", "openai/gpt-3.5-turbo"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 8000),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			Timeout:     getEnvInt("LLM_TIMEOUT", 30),
			SiteURL:     getEnvString("LLM_SITE_URL", ""),
			AppName:     getEnvString("LLM_APP_NAME", ""),
		},
		HTTP: HTTPConfig{
			Addr:        getEnvString("HTTP_ADDR", ":8080"),
			UIStaticDir: getEnvString("UI_STATIC_DIR", "/app/web"),
			UIEnabled:   getEnvBool("UI_ENABLED", true),
			MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 20),
			CORSOrigins: getEnvList("CORS_ORIGINS", nil),
		},
		System: SystemConfig{
			DataDir:  getEnvString("DATA_DIR", "/app/data"),
			LogLevel: getEnvString("LOG_LEVEL", "info"),
		},
		Translate: TranslateConfig{
			BatchSize:       getEnvInt("BATCH_SIZE", 100),
			ConcurrentLimit: getEnvInt("CONCURRENT_LIMIT", 5),
		},
		Retention: RetentionConfig{
			CronExpr:     getEnvString("RETENTION_CRON", "@hourly"),
			MaxAgeHours:  getEnvInt("RETENTION_MAX_AGE_HOURS", 24),
			HistoryLimit: getEnvInt("HISTORY_LIMIT", 20),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.System.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.Translate.BatchSize < 1 {
		return fmt.Errorf("BATCH_SIZE must be greater than 0")
	}
	if c.Translate.ConcurrentLimit < 1 {
		return fmt.Errorf("CONCURRENT_LIMIT must be greater than 0")
	}
	if c.HTTP.MaxUploadMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_MB must be greater than 0")
	}
	if c.Retention.MaxAgeHours < 1 {
		return fmt.Errorf("RETENTION_MAX_AGE_HOURS must be greater than 0")
	}
	if c.Retention.HistoryLimit < 0 {
		return fmt.Errorf("HISTORY_LIMIT must not be negative")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList gets a comma-separated list from environment variables
// with default, dropping empty elements.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	ret := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ret = append(ret, trimmed)
		}
	}
	if len(ret) == 0 {
		return defaultValue
	}
	return ret
}
