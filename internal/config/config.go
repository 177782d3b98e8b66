// Package config provides Viper-based configuration loading for the
// worldforge generation pipeline.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProviderConfig holds model-provider settings. The API credential is never
// part of the configuration; the caller supplies it at construction time.
type ProviderConfig struct {
	// Name selects the provider implementation: "anthropic" or "openai".
	Name string `mapstructure:"name"`
	// Model is the provider-specific model identifier.
	Model string `mapstructure:"model"`
	// BaseURL overrides the API endpoint for OpenAI-compatible gateways.
	// Empty means the provider's default endpoint.
	BaseURL string `mapstructure:"base_url"`
	// Temperature is the sampling temperature passed to the provider.
	Temperature float64 `mapstructure:"temperature"`
	// MaxTokens is the completion token ceiling per request.
	MaxTokens int `mapstructure:"max_tokens"`
	// RequestDelay is the minimum wall-clock gap between the return of one
	// request and the dispatch of the next.
	RequestDelay time.Duration `mapstructure:"request_delay"`
	// RetryDelay is the fixed pause between retry attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// MaxRetries is the total number of attempts per request.
	MaxRetries int `mapstructure:"max_retries"`
}

// StoreConfig holds content-store settings.
type StoreConfig struct {
	// Root is the directory that receives one subdirectory per generated world.
	Root string `mapstructure:"root"`
}

// MetricsConfig holds the optional Prometheus listener settings.
type MetricsConfig struct {
	// Addr is the "host:port" bind address for /metrics. Empty disables the listener.
	Addr string `mapstructure:"addr"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	Store    StoreConfig    `mapstructure:"store"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateProvider(c.Provider); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStore(c.Store); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateProvider(p ProviderConfig) error {
	var errs []string
	validNames := map[string]bool{"anthropic": true, "openai": true}
	if !validNames[p.Name] {
		errs = append(errs, fmt.Sprintf("provider.name must be one of [anthropic, openai], got %q", p.Name))
	}
	if p.Model == "" {
		errs = append(errs, "provider.model must not be empty")
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		errs = append(errs, fmt.Sprintf("provider.temperature must be in [0,2], got %g", p.Temperature))
	}
	if p.MaxTokens < 1 {
		errs = append(errs, fmt.Sprintf("provider.max_tokens must be >= 1, got %d", p.MaxTokens))
	}
	if p.RequestDelay < 0 {
		errs = append(errs, "provider.request_delay must not be negative")
	}
	if p.RetryDelay < 0 {
		errs = append(errs, "provider.retry_delay must not be negative")
	}
	if p.MaxRetries < 1 {
		errs = append(errs, fmt.Sprintf("provider.max_retries must be >= 1, got %d", p.MaxRetries))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStore(s StoreConfig) error {
	if s.Root == "" {
		return fmt.Errorf("store.root must not be empty")
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with WORLDFORGE_ prefix
	v.SetEnvPrefix("WORLDFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.name", "anthropic")
	v.SetDefault("provider.model", "claude-sonnet-4-5")
	v.SetDefault("provider.temperature", 0.8)
	v.SetDefault("provider.max_tokens", 4096)
	v.SetDefault("provider.request_delay", "1s")
	v.SetDefault("provider.retry_delay", "2s")
	v.SetDefault("provider.max_retries", 3)

	v.SetDefault("store.root", "content/worlds")

	v.SetDefault("metrics.addr", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
