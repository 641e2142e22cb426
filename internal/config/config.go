package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Airtable AirtableConfig `yaml:"airtable" mapstructure:"airtable"`
	Apollo   ApolloConfig   `yaml:"apollo" mapstructure:"apollo"`
	HubSpot  HubSpotConfig  `yaml:"hubspot" mapstructure:"hubspot"`
	Slack    SlackConfig    `yaml:"slack" mapstructure:"slack"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// AirtableConfig holds records-store credentials and table names.
type AirtableConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	BaseID      string `yaml:"base_id" mapstructure:"base_id"`
	LeadsTable  string `yaml:"leads_table" mapstructure:"leads_table"`
	EventsTable string `yaml:"events_table" mapstructure:"events_table"`
	MappingPath string `yaml:"mapping_path" mapstructure:"mapping_path"`
}

// ApolloConfig holds people-search API settings.
type ApolloConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// HubSpotConfig holds the CRM intake webhook settings.
type HubSpotConfig struct {
	WebhookURL string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	RateRPS    float64 `yaml:"rate_rps" mapstructure:"rate_rps"`
}

// SlackConfig holds the team chat webhook settings.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// StoreConfig configures the local run-history database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// PipelineConfig configures per-lead processing behavior.
type PipelineConfig struct {
	ItemIntervalMS int `yaml:"item_interval_ms" mapstructure:"item_interval_ms"`
	MaxRetries     int `yaml:"max_retries" mapstructure:"max_retries"`
}

// ItemInterval returns the inter-item batch delay as a duration.
func (c PipelineConfig) ItemInterval() time.Duration {
	return time.Duration(c.ItemIntervalMS) * time.Millisecond
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Limit int `yaml:"limit" mapstructure:"limit"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("airtable.base_url", "https://api.airtable.com/v0")
	v.SetDefault("airtable.leads_table", "Scraped Leads (Universal)")
	v.SetDefault("airtable.events_table", "Integration Test Log")
	v.SetDefault("apollo.base_url", "https://api.apollo.io")
	v.SetDefault("apollo.timeout_secs", 10)
	v.SetDefault("hubspot.rate_rps", 5)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "leadflow.db")
	v.SetDefault("pipeline.item_interval_ms", 1000)
	v.SetDefault("pipeline.max_retries", 3)
	v.SetDefault("batch.limit", 100)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings required for pipeline execution are
// present. The Apollo key and Slack webhook stay optional: enrichment and
// chat notification degrade to skips when unconfigured.
func (c *Config) Validate() error {
	var missing []string
	if c.Airtable.Key == "" {
		missing = append(missing, "airtable.key")
	}
	if c.Airtable.BaseID == "" {
		missing = append(missing, "airtable.base_id")
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
