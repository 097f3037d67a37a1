// Package config provides configuration loading, validation, and defaults
// for the TgAnalyzer application. Values come from a YAML file overridden by
// BOT_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines all application settings.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	MLService MLServiceConfig `mapstructure:"ml_service"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token.
type TelegramConfig struct {
	Token string `mapstructure:"token" validate:"required"`
}

// DatabaseConfig holds the message archive location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// GeminiConfig configures the Gemini client used for the narrative summary
// and for text embeddings. An empty API key disables the narrative stage
// (the pipeline writes a sentinel instead of failing).
type GeminiConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	ModelName         string  `mapstructure:"model_name"`
	EmbeddingModel    string  `mapstructure:"embedding_model"`
	Temperature       float32 `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"min=1,max=60"`
}

// MLServiceConfig points at the numerical sidecar that provides clustering,
// 2D projection, and topic decomposition.
type MLServiceConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"min=1s,max=30m"`
}

// PipelineConfig controls analysis runs.
type PipelineConfig struct {
	DataDir          string `mapstructure:"data_dir" validate:"required"`
	FetchLimit       int    `mapstructure:"fetch_limit" validate:"min=1,max=10000"`
	NarrativeEnabled bool   `mapstructure:"narrative_enabled"`
	RetentionDays    int    `mapstructure:"retention_days" validate:"min=1,max=365"`
}

// SchedulerConfig holds cron expressions for background tasks.
type SchedulerConfig struct {
	SQLMaintenanceCron string `mapstructure:"sql_maintenance_cron" validate:"required"`
	ResultsCleanupCron string `mapstructure:"results_cleanup_cron" validate:"required"`
}

// MessagesConfig holds user-facing reply texts.
type MessagesConfig struct {
	Welcome      string `mapstructure:"welcome"`
	Help         string `mapstructure:"help"`
	AskForLink   string `mapstructure:"ask_for_link"`
	Processing   string `mapstructure:"processing"`
	GeneralError string `mapstructure:"general_error"`
	ChooseOption string `mapstructure:"choose_option"`
	RestartDone  string `mapstructure:"restart_done"`
	ChartMissing string `mapstructure:"chart_missing"`
	InvalidLink  string `mapstructure:"invalid_link"`
}

// LoadConfig reads configuration from the given YAML file, applies defaults
// and BOT_* environment overrides, and validates the result. A missing file
// is not an error; defaults plus environment variables are used.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", true)

	// Registering the key lets the BOT_TELEGRAM_TOKEN environment override
	// apply even when the config file omits the telegram section.
	v.SetDefault("telegram.token", "")

	v.SetDefault("database.path", "storage.db")

	v.SetDefault("gemini.model_name", "gemini-2.0-flash")
	v.SetDefault("gemini.embedding_model", "text-embedding-004")
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.max_retries", 3)
	v.SetDefault("gemini.retry_delay_seconds", 5)

	v.SetDefault("ml_service.base_url", "http://localhost:8700")
	v.SetDefault("ml_service.timeout", 10*time.Minute)

	v.SetDefault("pipeline.data_dir", "./data")
	v.SetDefault("pipeline.fetch_limit", 500)
	v.SetDefault("pipeline.narrative_enabled", false)
	v.SetDefault("pipeline.retention_days", 14)

	v.SetDefault("scheduler.sql_maintenance_cron", "0 4 * * *")
	v.SetDefault("scheduler.results_cleanup_cron", "30 4 * * *")

	v.SetDefault("messages.welcome", "👋 Hi! Send me a Telegram group link (e.g., https://t.me/yourgroup) and I will analyze its recent messages.")
	v.SetDefault("messages.help", "Send a Telegram group link (https://t.me/yourgroup or @yourgroup) to run an analysis. After the report arrives, use the menu buttons to view charts or restart.")
	v.SetDefault("messages.ask_for_link", "Please send me a Telegram chat/group link to analyze first.")
	v.SetDefault("messages.processing", "⏳ Processing your request... Please wait a moment.")
	v.SetDefault("messages.general_error", "❌ An unexpected error occurred during analysis.")
	v.SetDefault("messages.choose_option", "Choose an option:")
	v.SetDefault("messages.restart_done", "Send me a new Telegram chat/group link to analyze:")
	v.SetDefault("messages.chart_missing", "⚠️ Chart not found.")
	v.SetDefault("messages.invalid_link", "Hello, please send a valid Telegram group link (e.g., https://t.me/yourgroup).")
}
