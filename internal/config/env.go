// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Dataset
	EnvDatasetPath       = "DERS_DATASET_PATH"
	EnvDatasetHeaderRows = "DERS_DATASET_HEADER_ROWS"
	EnvDatasetTable      = "DERS_DATASET_TABLE"
	EnvDatasetWatch      = "DERS_DATASET_WATCH"

	// R2 Dataset Source
	EnvR2Endpoint     = "DERS_R2_ENDPOINT"
	EnvR2AccessKeyID  = "DERS_R2_ACCESS_KEY_ID"
	EnvR2SecretKey    = "DERS_R2_SECRET_ACCESS_KEY"
	EnvR2Bucket       = "DERS_R2_BUCKET"
	EnvR2DatasetKey   = "DERS_R2_DATASET_KEY"
	EnvR2PollInterval = "DERS_R2_POLL_INTERVAL"

	// Stopwords
	EnvDataDir           = "DERS_DATA_DIR"
	EnvStopwordsLanguage = "DERS_STOPWORDS_LANGUAGE"
	EnvStopwordsURL      = "DERS_STOPWORDS_URL"
	EnvFetchTimeout      = "DERS_FETCH_TIMEOUT"
	EnvFetchMaxRetries   = "DERS_FETCH_MAX_RETRIES"

	// Extractor
	EnvTimezone = "DERS_TIMEZONE"

	// Server
	EnvPort            = "DERS_PORT"
	EnvLogLevel        = "DERS_LOG_LEVEL"
	EnvShutdownTimeout = "DERS_SHUTDOWN_TIMEOUT"
	EnvSessionCapacity = "DERS_SESSION_CAPACITY"

	// Rate Limiting
	EnvRateLimitPerMinute = "DERS_RATE_LIMIT_PER_MINUTE"
	EnvRateLimitBurst     = "DERS_RATE_LIMIT_BURST"

	// LINE Feature
	EnvLineChannelSecret      = "DERS_LINE_CHANNEL_SECRET"
	EnvLineChannelAccessToken = "DERS_LINE_CHANNEL_ACCESS_TOKEN"

	// Metrics Auth Feature
	EnvMetricsUsername = "DERS_METRICS_USERNAME"
	EnvMetricsPassword = "DERS_METRICS_PASSWORD"

	// Better Stack Feature
	EnvBetterStackToken = "DERS_BETTERSTACK_TOKEN"

	// Sentry Feature
	EnvSentryToken       = "DERS_SENTRY_TOKEN"
	EnvSentryHost        = "DERS_SENTRY_HOST"
	EnvSentryEnvironment = "DERS_SENTRY_ENVIRONMENT"
)
