package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported AI providers
const (
	AIProviderGemini    = "gemini"
	AIProviderAnthropic = "anthropic"
	AIProviderMock      = "mock"
)

// Supported hazard log sinks
const (
	LogSinkSheets   = "sheets"
	LogSinkPostgres = "postgres"
	LogSinkR2       = "r2"
	LogSinkCSV      = "csv"
	LogSinkMemory   = "memory"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// AI Provider Configuration
	AIProvider       string // "gemini", "anthropic" or "mock"
	GeminiAPIKey     string
	GeminiModel      string
	AnthropicAPIKey  string
	AnthropicModel   string
	AIMaxRetries     int
	AIRetryBaseDelay time.Duration
	AIRequestTimeout time.Duration

	// Optional path to a prompt artifact; the embedded prompt is used when empty
	PromptFile string

	// Hazard log sink
	LogSink     string
	LogTimezone *time.Location

	// Google Sheets
	SheetsSpreadsheetID   string
	SheetsCredentialsFile string
	SheetsRange           string

	// Postgres
	DatabaseUrl string

	// R2 Storage
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2Prefix          string
	R2Endpoint        string

	// CSV file
	CSVLogPath string

	// Kafka hazard events (disabled when no brokers are set)
	KafkaBrokers []string
	KafkaTopic   string

	CORSAllowedOrigins []string

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string

	ShutdownTimeout time.Duration
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 3001),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// AI provider defaults
		AIProvider:       strings.ToLower(getEnv("AI_PROVIDER", AIProviderGemini)),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", ""),
		AIMaxRetries:     getEnvInt("AI_MAX_RETRIES", 1),
		AIRetryBaseDelay: getEnvDuration("AI_RETRY_BASE_DELAY", 1*time.Second),
		AIRequestTimeout: getEnvDuration("AI_REQUEST_TIMEOUT", 60*time.Second),

		PromptFile: getEnv("PROMPT_FILE", ""),

		LogSink: strings.ToLower(getEnv("LOG_SINK", LogSinkSheets)),

		SheetsSpreadsheetID:   getEnv("GOOGLE_SHEETS_SPREADSHEET_ID", ""),
		SheetsCredentialsFile: getEnv("GOOGLE_SHEETS_CREDENTIALS_FILE", "./service-account-key.json"),
		SheetsRange:           getEnv("GOOGLE_SHEETS_RANGE", "Sheet1!A:H"),

		DatabaseUrl: getEnv("DATABASE_URL", ""),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2Prefix:          getEnv("R2_PREFIX", ""),
		R2Endpoint:        getEnv("R2_ENDPOINT", ""),

		CSVLogPath: getEnv("CSV_LOG_PATH", "./hazard-log.csv"),

		KafkaBrokers: getEnvList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "atlas.hazards"),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS")
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	tz := getEnv("LOG_TIMEZONE", "America/New_York")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("LOG_TIMEZONE %q is not a valid IANA timezone: %w", tz, err)
	}
	cfg.LogTimezone = loc

	if cfg.AIMaxRetries < 1 {
		return nil, fmt.Errorf("AI_MAX_RETRIES must be at least 1, got: %d", cfg.AIMaxRetries)
	}

	// Validate AI provider configuration
	switch cfg.AIProvider {
	case AIProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER is 'gemini'")
		}
	case AIProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is 'anthropic'")
		}
	case AIProviderMock:
	default:
		return nil, fmt.Errorf("AI_PROVIDER must be one of 'gemini', 'anthropic' or 'mock', got: %s", cfg.AIProvider)
	}

	// Validate sink configuration
	switch cfg.LogSink {
	case LogSinkSheets:
		if cfg.SheetsSpreadsheetID == "" {
			return nil, fmt.Errorf("GOOGLE_SHEETS_SPREADSHEET_ID is required when LOG_SINK is 'sheets'")
		}
	case LogSinkPostgres:
		if cfg.DatabaseUrl == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when LOG_SINK is 'postgres'")
		}
	case LogSinkR2:
		if cfg.R2AccountID == "" && cfg.R2Endpoint == "" {
			return nil, fmt.Errorf("R2_ACCOUNT_ID is required when LOG_SINK is 'r2'")
		}
		if cfg.R2AccessKeyID == "" {
			return nil, fmt.Errorf("R2_ACCESS_KEY_ID is required when LOG_SINK is 'r2'")
		}
		if cfg.R2SecretAccessKey == "" {
			return nil, fmt.Errorf("R2_SECRET_ACCESS_KEY is required when LOG_SINK is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return nil, fmt.Errorf("R2_BUCKET_NAME is required when LOG_SINK is 'r2'")
		}
	case LogSinkCSV:
		if cfg.CSVLogPath == "" {
			return nil, fmt.Errorf("CSV_LOG_PATH is required when LOG_SINK is 'csv'")
		}
	case LogSinkMemory:
	default:
		return nil, fmt.Errorf("LOG_SINK must be one of 'sheets', 'postgres', 'r2', 'csv' or 'memory', got: %s", cfg.LogSink)
	}

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
