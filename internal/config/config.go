package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the ingestion pipeline and the
// dashboard backend.
type Config struct {
	Channel       ChannelConfig
	Telegram      TelegramConfig
	Rates         RatesConfig
	Redis         RedisConfig
	Postgres      PostgresConfig
	Elasticsearch ESConfig
	Output        OutputConfig
	Dashboard     DashboardConfig
}

type ChannelConfig struct {
	// Channel username without the leading @
	Name string
	// Source selects how history is read: "preview" scrapes the public
	// t.me/s page, "mtproto" uses the Telegram API.
	Source string
	// Base URL of the web preview (overridable for tests)
	PreviewBaseURL string
	UserAgent      string
}

type TelegramConfig struct {
	APIID       int
	APIHash     string
	SessionFile string
}

type RatesConfig struct {
	// CBR daily rates endpoint
	BaseURL string
	// Redis key prefix for the same-day cache
	CachePrefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	// Connection string; empty disables the Postgres sink
	ConnectionString string
	TableName        string
}

type ESConfig struct {
	// Address; empty disables the Elasticsearch sink
	Address string
	Index   string
}

type OutputConfig struct {
	// Path of the TSV dataset
	Path string
	// Cron expression for periodic full re-scans; empty runs once
	Schedule string
}

type DashboardConfig struct {
	Addr        string
	DatasetPath string
}

// Load creates a Config from environment variables with defaults.
func Load() *Config {
	dataset := getEnv("DATASET_PATH", "salary_reports.tsv")
	return &Config{
		Channel: ChannelConfig{
			Name:           getEnv("CHANNEL_NAME", "salary_pm"),
			Source:         getEnv("CHANNEL_SOURCE", "preview"),
			PreviewBaseURL: getEnv("PREVIEW_BASE_URL", "https://t.me/s"),
			UserAgent:      getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
		},
		Telegram: TelegramConfig{
			APIID:       getEnvInt("TELEGRAM_API_ID", 0),
			APIHash:     getEnv("TELEGRAM_API_HASH", ""),
			SessionFile: getEnv("TELEGRAM_SESSION_FILE", "session.json"),
		},
		Rates: RatesConfig{
			BaseURL:     getEnv("CBR_RATES_URL", "https://www.cbr.ru/scripts/XML_daily.asp"),
			CachePrefix: getEnv("RATES_CACHE_PREFIX", "rates"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			ConnectionString: getEnv("POSTGRES_URL", ""),
			TableName:        getEnv("POSTGRES_TABLE", "salary_reports"),
		},
		Elasticsearch: ESConfig{
			Address: getEnv("ELASTICSEARCH_URL", ""),
			Index:   getEnv("ELASTICSEARCH_INDEX", "salary-reports"),
		},
		Output: OutputConfig{
			Path:     dataset,
			Schedule: getEnv("SCAN_SCHEDULE", ""),
		},
		Dashboard: DashboardConfig{
			Addr:        getEnv("DASHBOARD_ADDR", ":8080"),
			DatasetPath: dataset,
		},
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
