// Package config provides application configuration management.
// It loads settings from environment variables (optionally from a .env file)
// and provides defaults for the dataset, stopword cache, server and
// optional integrations.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/garyellow/ders-bilgi-bot/internal/course"
)

// DefaultStopwordsURL is the NLTK data package containing per-language stopword lists.
const DefaultStopwordsURL = "https://raw.githubusercontent.com/nltk/nltk_data/gh-pages/packages/corpora/stopwords.zip"

// DefaultPort is the HTTP listen port when DERS_PORT is unset.
const DefaultPort = "10000"

// ValidationMode selects which settings are required.
type ValidationMode int

const (
	// ServerMode validates everything the HTTP server needs.
	ServerMode ValidationMode = iota
	// ChatMode validates only what the terminal chat needs.
	ChatMode
)

// Config holds all application configuration
type Config struct {
	// Dataset Configuration
	DatasetPath       string
	DatasetHeaderRows int
	DatasetTable      string // SQLite sources only
	DatasetWatch      bool

	// R2 Dataset Source (optional, mirrors an object to DatasetPath)
	R2Endpoint     string
	R2AccessKeyID  string
	R2SecretKey    string
	R2Bucket       string
	R2DatasetKey   string
	R2PollInterval time.Duration // 0 = download at startup only

	// Stopword Configuration
	DataDir           string // Cache root in NLTK layout (corpora/stopwords/<language>)
	StopwordsLanguage string
	StopwordsURL      string
	FetchTimeout      time.Duration
	FetchMaxRetries   int

	// Extractor Configuration
	Timezone string // "Local" or an IANA name such as Europe/Istanbul

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	SessionCapacity int

	// Rate Limiting (per LINE user and per chat API client, 0 = disabled)
	RateLimitPerMinute float64
	RateLimitBurst     float64

	// LINE Configuration (optional, both required to enable the webhook)
	LineChannelSecret string
	LineChannelToken  string

	// Metrics Authentication (empty password = no auth)
	MetricsUsername string
	MetricsPassword string

	// Better Stack Logs (optional)
	BetterStackToken string

	// Sentry / Better Stack Errors (optional)
	SentryToken       string
	SentryHost        string
	SentryEnvironment string
}

// Load reads configuration for server mode.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration from environment variables.
// It attempts to load .env file first, then reads from env vars.
func LoadForMode(mode ValidationMode) (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		DatasetPath:       getEnv(EnvDatasetPath, "ders_bilgi.xlsx"),
		DatasetHeaderRows: getIntEnv(EnvDatasetHeaderRows, course.DefaultHeaderRows),
		DatasetTable:      getEnv(EnvDatasetTable, "courses"),
		DatasetWatch:      getBoolEnv(EnvDatasetWatch, false),

		R2Endpoint:     getEnv(EnvR2Endpoint, ""),
		R2AccessKeyID:  getEnv(EnvR2AccessKeyID, ""),
		R2SecretKey:    getEnv(EnvR2SecretKey, ""),
		R2Bucket:       getEnv(EnvR2Bucket, ""),
		R2DatasetKey:   getEnv(EnvR2DatasetKey, ""),
		R2PollInterval: getDurationEnv(EnvR2PollInterval, 15*time.Minute),

		DataDir:           getEnv(EnvDataDir, "./nltk_data"),
		StopwordsLanguage: getEnv(EnvStopwordsLanguage, "turkish"),
		StopwordsURL:      getEnv(EnvStopwordsURL, DefaultStopwordsURL),
		FetchTimeout:      getDurationEnv(EnvFetchTimeout, FetchRequest),
		FetchMaxRetries:   getIntEnv(EnvFetchMaxRetries, 3),

		Timezone: getEnv(EnvTimezone, "Local"),

		Port:            getEnv(EnvPort, DefaultPort),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, 30*time.Second),
		SessionCapacity: getIntEnv(EnvSessionCapacity, 1000),

		RateLimitPerMinute: getFloatEnv(EnvRateLimitPerMinute, 30),
		RateLimitBurst:     getFloatEnv(EnvRateLimitBurst, 10),

		LineChannelSecret: getEnv(EnvLineChannelSecret, ""),
		LineChannelToken:  getEnv(EnvLineChannelAccessToken, ""),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		BetterStackToken: getEnv(EnvBetterStackToken, ""),

		SentryToken:       getEnv(EnvSentryToken, ""),
		SentryHost:        getEnv(EnvSentryHost, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
	}

	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ValidateForMode checks required values for the given mode.
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var errs []error

	if c.DatasetPath == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvDatasetPath))
	}
	if c.DatasetHeaderRows < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvDatasetHeaderRows, c.DatasetHeaderRows))
	}
	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvDataDir))
	}
	if c.StopwordsLanguage == "" || strings.ContainsAny(c.StopwordsLanguage, `/\`) {
		errs = append(errs, fmt.Errorf("%s must be a plain language name, got %q", EnvStopwordsLanguage, c.StopwordsLanguage))
	}
	if c.StopwordsURL == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvStopwordsURL))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvFetchTimeout, c.FetchTimeout))
	}
	if c.FetchMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvFetchMaxRetries, c.FetchMaxRetries))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", EnvTimezone, err))
	}
	if c.R2DatasetKey != "" && !c.R2Enabled() {
		errs = append(errs, fmt.Errorf("%s needs %s, %s, %s and %s", EnvR2DatasetKey, EnvR2Endpoint, EnvR2AccessKeyID, EnvR2SecretKey, EnvR2Bucket))
	}
	if c.R2PollInterval < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %v", EnvR2PollInterval, c.R2PollInterval))
	}

	if mode == ServerMode {
		if c.Port == "" {
			errs = append(errs, fmt.Errorf("%s is required", EnvPort))
		}
		if c.ShutdownTimeout <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvShutdownTimeout, c.ShutdownTimeout))
		}
		if c.SessionCapacity <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvSessionCapacity, c.SessionCapacity))
		}
		if c.RateLimitPerMinute < 0 {
			errs = append(errs, fmt.Errorf("%s cannot be negative, got %v", EnvRateLimitPerMinute, c.RateLimitPerMinute))
		}
		if c.RateLimitEnabled() && c.RateLimitBurst < 1 {
			errs = append(errs, fmt.Errorf("%s must be at least 1, got %v", EnvRateLimitBurst, c.RateLimitBurst))
		}
		if (c.LineChannelSecret == "") != (c.LineChannelToken == "") {
			errs = append(errs, errors.New("LINE webhook needs both "+EnvLineChannelSecret+" and "+EnvLineChannelAccessToken))
		}
		if c.SentryToken != "" && c.SentryHost == "" {
			errs = append(errs, fmt.Errorf("%s is required when %s is set", EnvSentryHost, EnvSentryToken))
		}
	}

	return errors.Join(errs...)
}

// Location resolves the configured time zone for the "today" rule.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// StopwordsCacheDir returns the directory holding per-language stopword files.
func (c *Config) StopwordsCacheDir() string {
	return filepath.Join(c.DataDir, "corpora", "stopwords")
}

// R2Enabled returns true when the dataset is mirrored from R2.
func (c *Config) R2Enabled() bool {
	return c.R2DatasetKey != "" && c.R2Endpoint != "" && c.R2AccessKeyID != "" && c.R2SecretKey != "" && c.R2Bucket != ""
}

// LineEnabled returns true when the LINE webhook should be registered.
func (c *Config) LineEnabled() bool {
	return c.LineChannelSecret != "" && c.LineChannelToken != ""
}

// RateLimitEnabled returns true when webhook and chat API requests are throttled.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitPerMinute > 0
}

// MetricsAuthEnabled returns true when /metrics requires basic auth.
func (c *Config) MetricsAuthEnabled() bool {
	return c.MetricsPassword != ""
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
