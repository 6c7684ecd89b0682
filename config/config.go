// Package config loads wct's runtime configuration from environment
// variables and CLI flags via viper, following the layered
// env-then-flags-override convention used throughout the example CLIs.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// StoreConfig selects and configures the ArtifactStore backend.
type StoreConfig struct {
	// Type is one of "memory", "filesystem", "redis", "mongo", "sqlite".
	Type string
	// Path is the filesystem root (filesystem/sqlite) or connection string
	// (redis/mongo), depending on Type.
	Path string
}

// LLMConfig selects and configures the LLM provider.
type LLMConfig struct {
	// Provider is one of "anthropic", "openai", "google", "bedrock".
	Provider string
	// Model is the provider-specific model identifier.
	Model string
	// Region is the AWS region used by the bedrock provider. Ignored by
	// every other provider.
	Region string
	// APIKey authenticates against the provider. Empty means read from the
	// provider's own standard environment variable (e.g. ANTHROPIC_API_KEY).
	APIKey string
	// BatchMode is one of "count_based", "extended_context".
	BatchMode string
	// MaxTokensPerBatch bounds EXTENDED_CONTEXT bin packing.
	MaxTokensPerBatch int
	// MaxItemsPerBatch bounds COUNT_BASED chunking.
	MaxItemsPerBatch int
	// PollInterval is the configured interval between batch-job polls.
	// `wct poll` checks pending batch jobs once per invocation and does not
	// read it.
	PollInterval time.Duration
}

// Config is the fully resolved runtime configuration for a wct process.
type Config struct {
	Store        StoreConfig
	LLM          LLMConfig
	MaxConcurrency int
	LogLevel     string
	LogFormat    string
}

// Load resolves configuration from environment variables (prefixed
// WAIVERN_ / LLM_) and CLI flags already bound to fs. Flags take
// precedence over environment variables, which take precedence over
// defaults.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.type", "filesystem")
	v.SetDefault("store.path", "./.wct-runs")
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.batch_mode", "count_based")
	v.SetDefault("llm.max_tokens_per_batch", 100_000)
	v.SetDefault("llm.max_items_per_batch", 20)
	v.SetDefault("llm.poll_interval", 30*time.Second)
	v.SetDefault("max_concurrency", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	_ = v.BindEnv("store.type", "WAIVERN_STORE_TYPE")
	_ = v.BindEnv("store.path", "WAIVERN_STORE_PATH")
	_ = v.BindEnv("llm.provider", "LLM_PROVIDER")
	_ = v.BindEnv("llm.model", "LLM_MODEL")
	_ = v.BindEnv("llm.api_key", "LLM_API_KEY")
	_ = v.BindEnv("llm.region", "LLM_REGION")
	_ = v.BindEnv("max_concurrency", "WAIVERN_MAX_CONCURRENCY")

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	cfg := &Config{
		Store: StoreConfig{
			Type: v.GetString("store.type"),
			Path: v.GetString("store.path"),
		},
		LLM: LLMConfig{
			Provider:          v.GetString("llm.provider"),
			Model:             v.GetString("llm.model"),
			APIKey:            v.GetString("llm.api_key"),
			Region:            v.GetString("llm.region"),
			BatchMode:         v.GetString("llm.batch_mode"),
			MaxTokensPerBatch: v.GetInt("llm.max_tokens_per_batch"),
			MaxItemsPerBatch:  v.GetInt("llm.max_items_per_batch"),
			PollInterval:      v.GetDuration("llm.poll_interval"),
		},
		MaxConcurrency: v.GetInt("max_concurrency"),
		LogLevel:       v.GetString("log.level"),
		LogFormat:      v.GetString("log.format"),
	}
	if cfg.MaxConcurrency < 1 {
		return nil, fmt.Errorf("max_concurrency must be >= 1, got %d", cfg.MaxConcurrency)
	}
	return cfg, nil
}
