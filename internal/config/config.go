package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"BOT_TOKEN"`
		APIURL   string `yaml:"api_url" envconfig:"API_URL" validate:"omitempty,url"`
	} `yaml:"telegram" envconfig:"TELEGRAM"`
	DataSource struct {
		Provider          string        `yaml:"provider" envconfig:"PROVIDER" validate:"oneof=yahoo rest"`
		BaseURL           string        `yaml:"base_url" envconfig:"BASE_URL" validate:"required_if=Provider rest"`
		APIKey            string        `yaml:"api_key" envconfig:"API_KEY"`
		FetchTimeout      time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" validate:"gt=0"`
		RetryTimeout      time.Duration `yaml:"retry_timeout" envconfig:"RETRY_TIMEOUT" validate:"gtefield=FetchTimeout"`
		Concurrency       int           `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"min=1,max=64"`
		RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND" validate:"gt=0"`
		Burst             int           `yaml:"burst" envconfig:"BURST" validate:"min=1"`
		LocalReference    string        `yaml:"local_reference" envconfig:"LOCAL_REFERENCE" validate:"required"`
		ForeignReference  string        `yaml:"foreign_reference" envconfig:"FOREIGN_REFERENCE" validate:"required"`
	} `yaml:"data_source" envconfig:"DATA_SOURCE"`
	Storage struct {
		StateFile   string `yaml:"state_file" envconfig:"STATE_FILE" validate:"required"`
		LockBackend string `yaml:"lock_backend" envconfig:"LOCK_BACKEND" validate:"oneof=auto flock region"`
	} `yaml:"storage" envconfig:"STORAGE"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	} `yaml:"database" envconfig:"DATABASE"`
	Schedule struct {
		CachePurgeCron       string `yaml:"cache_purge_cron" envconfig:"CACHE_PURGE_CRON" validate:"required"`
		HistoryPruneCron     string `yaml:"history_prune_cron" envconfig:"HISTORY_PRUNE_CRON" validate:"required"`
		HistoryRetentionDays int    `yaml:"history_retention_days" envconfig:"HISTORY_RETENTION_DAYS" validate:"min=1"`
	} `yaml:"schedule" envconfig:"SCHEDULE"`
	Metrics struct {
		ListenAddr string `yaml:"listen_addr" envconfig:"LISTEN_ADDR"`
	} `yaml:"metrics" envconfig:"METRICS"`
	Proxy string `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then .env and environment overrides,
// then fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the environment.
	_ = godotenv.Load()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	ds := &cfg.DataSource
	if ds.Provider == "" {
		ds.Provider = "yahoo"
	}
	if ds.FetchTimeout == 0 {
		ds.FetchTimeout = 10 * time.Second
	}
	if ds.RetryTimeout == 0 {
		ds.RetryTimeout = 30 * time.Second
	}
	if ds.Concurrency == 0 {
		ds.Concurrency = 8
	}
	if ds.RequestsPerSecond == 0 {
		ds.RequestsPerSecond = 5
	}
	if ds.Burst == 0 {
		ds.Burst = 5
	}
	if ds.LocalReference == "" {
		ds.LocalReference = "YPFD.BA"
	}
	if ds.ForeignReference == "" {
		ds.ForeignReference = "YPF"
	}
	if cfg.Storage.StateFile == "" {
		cfg.Storage.StateFile = "data/sessions.json"
	}
	if cfg.Storage.LockBackend == "" {
		cfg.Storage.LockBackend = "auto"
	}
	if cfg.Schedule.CachePurgeCron == "" {
		cfg.Schedule.CachePurgeCron = "0 0 * * * *"
	}
	if cfg.Schedule.HistoryPruneCron == "" {
		cfg.Schedule.HistoryPruneCron = "0 30 3 * * *"
	}
	if cfg.Schedule.HistoryRetentionDays == 0 {
		cfg.Schedule.HistoryRetentionDays = 90
	}
}

// Validate checks field constraints shared by every entry point.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ValidateBot additionally requires the bot credentials.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	return nil
}

// HistoryRetention is the age after which recorded history is pruned.
func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.Schedule.HistoryRetentionDays) * 24 * time.Hour
}
