package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig
	Search SearchConfig
	Scrape ScrapeConfig
	Store  StoreConfig
	OCR    OCRConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SearchConfig holds web-search configuration
type SearchConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	MaxResults      int           `mapstructure:"max_results"`
	Timeout         time.Duration `mapstructure:"timeout"`
	BrowserEnabled  bool          `mapstructure:"browser_enabled"`
	BrowserHeadless bool          `mapstructure:"browser_headless"`
	RatePerSec      float64       `mapstructure:"rate_per_sec"`
	Burst           int           `mapstructure:"burst"`
}

// ScrapeConfig holds candidate-page fetching configuration
type ScrapeConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
}

// StoreConfig holds product store configuration
type StoreConfig struct {
	Type string `mapstructure:"type"` // "memory" or "sqlite"
	Path string `mapstructure:"path"`
}

// OCRConfig holds OCR pipeline configuration
type OCRConfig struct {
	Language     string  `mapstructure:"language"`
	MaxWidth     int     `mapstructure:"max_width"`
	PaddingRatio float64 `mapstructure:"padding_ratio"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/sdslens/")

	// Environment variable settings
	v.SetEnvPrefix("SDSLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Search defaults
	v.SetDefault("search.base_url", "https://www.google.com/search")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.timeout", "30s")
	v.SetDefault("search.browser_enabled", true)
	v.SetDefault("search.browser_headless", true)
	v.SetDefault("search.rate_per_sec", 1.0)
	v.SetDefault("search.burst", 3)

	// Scrape defaults
	v.SetDefault("scrape.timeout", "30s")
	v.SetDefault("scrape.max_concurrent", 5)

	// Store defaults
	v.SetDefault("store.type", "sqlite")
	v.SetDefault("store.path", "sdslens.db")

	// OCR defaults
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.max_width", 1200)
	v.SetDefault("ocr.padding_ratio", 0.1)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Store.Type != "memory" && config.Store.Type != "sqlite" {
		return fmt.Errorf("store type must be 'memory' or 'sqlite', got: %s", config.Store.Type)
	}

	if config.Store.Type == "sqlite" && config.Store.Path == "" {
		return fmt.Errorf("store path is required when store type is 'sqlite'")
	}

	if config.Search.MaxResults < 1 || config.Search.MaxResults > 10 {
		return fmt.Errorf("search max_results must be between 1 and 10, got: %d", config.Search.MaxResults)
	}

	if config.OCR.PaddingRatio < 0 || config.OCR.PaddingRatio > 1 {
		return fmt.Errorf("ocr padding_ratio must be between 0 and 1, got: %g", config.OCR.PaddingRatio)
	}

	return nil
}
