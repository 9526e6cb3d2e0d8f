// Package chimera wires the tool registry, key pool and LLM provider into a
// conversational engine.
package chimera

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/harunnryd/chimera/pkg/errorsx"
	"github.com/harunnryd/chimera/pkg/keypool"
)

// Config is the root configuration tree, loaded from a config file plus
// environment overrides.
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`

	LLM     LLMConfig     `mapstructure:"llm"`
	Keys    KeysConfig    `mapstructure:"keys"`
	Tools   ToolsConfig   `mapstructure:"tools"`
	Context ContextConfig `mapstructure:"context"`
	Privacy PrivacyConfig `mapstructure:"privacy"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type LLMConfig struct {
	Provider    string   `mapstructure:"provider"`
	Model       string   `mapstructure:"model"`
	BaseURL     string   `mapstructure:"base_url"`
	APIKeys     []string `mapstructure:"api_keys"`
	MaxAttempts int      `mapstructure:"max_attempts"`
	Temperature float64  `mapstructure:"temperature"`
}

// KeysConfig drives the rotation controller. Durations are milliseconds to
// keep the config file free of unit strings.
type KeysConfig struct {
	WindowMS           int `mapstructure:"window_ms"`
	FailureThreshold   int `mapstructure:"failure_threshold"`
	RecoveryMS         int `mapstructure:"recovery_ms"`
	MaxWaitMS          int `mapstructure:"max_wait_ms"`
	RateLimitBackoffMS int `mapstructure:"rate_limit_backoff_ms"`
}

type ToolsConfig struct {
	Directory     string `mapstructure:"directory"`
	ExecTimeoutMS int    `mapstructure:"exec_timeout_ms"`
}

type ContextConfig struct {
	MaxHistory int    `mapstructure:"max_history"`
	BasePrompt string `mapstructure:"base_prompt"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

type MetricsConfig struct {
	Path string `mapstructure:"path"`
}

// LoadConfig reads the config file at path (optional), applies defaults,
// expands ${ENV} references in string values and validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "openai")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.max_attempts", 3)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("keys.window_ms", 15000)
	v.SetDefault("keys.failure_threshold", 3)
	v.SetDefault("keys.recovery_ms", 120000)
	v.SetDefault("keys.max_wait_ms", 60000)
	v.SetDefault("keys.rate_limit_backoff_ms", 30000)
	v.SetDefault("tools.directory", "tools")
	v.SetDefault("tools.exec_timeout_ms", 30000)
	v.SetDefault("context.max_history", 20)
	v.SetDefault("context.base_prompt", "")
	v.SetDefault("privacy.redact_pii", false)
	v.SetDefault("metrics.path", "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errorsx.Wrap(err, errorsx.ReasonConfigInvalid)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonConfigInvalid)
	}

	cfg.LLM.BaseURL = os.ExpandEnv(cfg.LLM.BaseURL)
	for i, key := range cfg.LLM.APIKeys {
		cfg.LLM.APIKeys[i] = os.ExpandEnv(key)
	}
	if env := os.Getenv("CHIMERA_API_KEYS"); env != "" {
		cfg.LLM.APIKeys = SplitKeys(env)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SplitKeys parses a credential list separated by commas or newlines,
// dropping empty entries.
func SplitKeys(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			keys = append(keys, f)
		}
	}
	return keys
}

// Validate reports the first structural problem with the configuration.
func (c *Config) Validate() error {
	if c.LLM.Provider == "" {
		return errorsx.Wrap(fmt.Errorf("llm.provider must be set"), errorsx.ReasonConfigInvalid)
	}
	if c.LLM.MaxAttempts < 1 {
		return errorsx.Wrap(fmt.Errorf("llm.max_attempts must be at least 1, got %d", c.LLM.MaxAttempts), errorsx.ReasonConfigInvalid)
	}
	if c.Keys.WindowMS < 0 || c.Keys.RecoveryMS < 0 || c.Keys.MaxWaitMS < 0 || c.Keys.RateLimitBackoffMS < 0 {
		return errorsx.Wrap(fmt.Errorf("keys durations must not be negative"), errorsx.ReasonConfigInvalid)
	}
	if c.Keys.FailureThreshold < 1 {
		return errorsx.Wrap(fmt.Errorf("keys.failure_threshold must be at least 1, got %d", c.Keys.FailureThreshold), errorsx.ReasonConfigInvalid)
	}
	if c.Context.MaxHistory < 2 {
		return errorsx.Wrap(fmt.Errorf("context.max_history must be at least 2, got %d", c.Context.MaxHistory), errorsx.ReasonConfigInvalid)
	}
	return nil
}

// PoolConfig converts the key settings into the rotation controller's form.
func (c *Config) PoolConfig() keypool.Config {
	return keypool.Config{
		Window:           time.Duration(c.Keys.WindowMS) * time.Millisecond,
		FailureThreshold: c.Keys.FailureThreshold,
		RecoveryPeriod:   time.Duration(c.Keys.RecoveryMS) * time.Millisecond,
		MaxWait:          time.Duration(c.Keys.MaxWaitMS) * time.Millisecond,
		RateLimitBackoff: time.Duration(c.Keys.RateLimitBackoffMS) * time.Millisecond,
	}
}

// ExecTimeout returns the command tool timeout as a duration.
func (t ToolsConfig) ExecTimeout() time.Duration {
	return time.Duration(t.ExecTimeoutMS) * time.Millisecond
}
