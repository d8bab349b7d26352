// Package config loads saakshi configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (SAAKSHI_* and provider key variables)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. .saakshi.yaml in current directory
//  2. ~/.config/saakshi/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderConfig holds one provider family's settings.
type ProviderConfig struct {
	// Enabled gates the family. Disabled families are skipped in the
	// fallback chain even when keys are present.
	Enabled bool `yaml:"enabled"`
	// Model is the model name used for calls.
	Model string `yaml:"model"`
	// APIKeys is the ordered credential list for rotation.
	APIKeys []string `yaml:"api_keys"`
	// BaseURL overrides the API endpoint (OpenAI-compatible endpoints,
	// e.g. https://api.sambanova.ai/v1).
	BaseURL string `yaml:"base_url"`
	// MaxTokens is the maximum number of output tokens per call.
	MaxTokens int64 `yaml:"max_tokens"`
}

// PIIPattern is one configurable PII detection rule.
type PIIPattern struct {
	// Category labels flags produced by this pattern.
	Category string `yaml:"category"`
	// Pattern is a Go regular expression.
	Pattern string `yaml:"pattern"`
}

// Config holds all saakshi configuration.
type Config struct {
	Gemini    ProviderConfig `yaml:"gemini"`
	Anthropic ProviderConfig `yaml:"anthropic"`
	OpenAI    ProviderConfig `yaml:"openai"`

	// Priority is the provider family fallback order. A family is only
	// tried after every credential of the families before it is spent.
	Priority []string `yaml:"priority"`

	// RequestTimeout bounds each provider call. Go duration string.
	RequestTimeout string `yaml:"request_timeout"`
	// MaxAttempts bounds total provider invocations per analysis,
	// across credentials and families.
	MaxAttempts int `yaml:"max_attempts"`

	// PIIPatterns extends the built-in PII rules.
	PIIPatterns []PIIPattern `yaml:"pii_patterns"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"`

	// LogLevel is a zap level string: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Parsed values (not from YAML, set after loading)
	RequestTimeoutDuration time.Duration `yaml:"-"`

	// ConfigFile is the path of the loaded config file (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values. Models mirror the
// original deployment; retry bounds are deliberately configuration.
func Defaults() *Config {
	return &Config{
		Gemini:         ProviderConfig{Enabled: true, Model: "gemini-2.0-flash", MaxTokens: 4096},
		Anthropic:      ProviderConfig{Enabled: false, Model: "claude-3-5-haiku-latest", MaxTokens: 4096},
		OpenAI:         ProviderConfig{Enabled: false, Model: "Llama-4-Maverick-17B-128E-Instruct", MaxTokens: 4096},
		Priority:       []string{"gemini", "anthropic", "openai"},
		RequestTimeout: "60s",
		MaxAttempts:    6,
		LogLevel:       "info",
	}
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := applyFile(cfg, path, data); err != nil {
			return nil, err
		}
	} else if found, data, err := findConfigFile(); err == nil {
		if err := applyFile(cfg, found, data); err != nil {
			return nil, err
		}
	}

	mergeEnv(cfg)

	var err error
	cfg.RequestTimeoutDuration, err = time.ParseDuration(cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid request_timeout %q: %w", cfg.RequestTimeout, err)
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("max_attempts must be at least 1, got %d", cfg.MaxAttempts)
	}
	for _, p := range cfg.Priority {
		switch p {
		case "gemini", "anthropic", "openai":
		default:
			return nil, fmt.Errorf("unknown provider family %q in priority", p)
		}
	}

	return cfg, nil
}

// fileProvider mirrors ProviderConfig for unmarshaling. Enabled is a
// pointer so an explicit "enabled: false" in the file is distinguishable
// from the field being absent.
type fileProvider struct {
	Enabled   *bool    `yaml:"enabled"`
	Model     string   `yaml:"model"`
	APIKeys   []string `yaml:"api_keys"`
	BaseURL   string   `yaml:"base_url"`
	MaxTokens int64    `yaml:"max_tokens"`
}

// fileConfig mirrors Config for unmarshaling.
type fileConfig struct {
	Gemini    fileProvider `yaml:"gemini"`
	Anthropic fileProvider `yaml:"anthropic"`
	OpenAI    fileProvider `yaml:"openai"`

	Priority       []string     `yaml:"priority"`
	RequestTimeout string       `yaml:"request_timeout"`
	MaxAttempts    int          `yaml:"max_attempts"`
	PIIPatterns    []PIIPattern `yaml:"pii_patterns"`
	OTELEndpoint   string       `yaml:"otel_endpoint"`
	OTELHeaders    string       `yaml:"otel_headers"`
	LogLevel       string       `yaml:"log_level"`
}

func applyFile(cfg *Config, path string, data []byte) error {
	var fileCfg fileConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	cfg.ConfigFile = path
	mergeFile(cfg, &fileCfg)
	return nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	if data, err := os.ReadFile(".saakshi.yaml"); err == nil {
		return ".saakshi.yaml", data, nil
	}
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "saakshi", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}
	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *fileConfig) {
	mergeProvider(&cfg.Gemini, &file.Gemini)
	mergeProvider(&cfg.Anthropic, &file.Anthropic)
	mergeProvider(&cfg.OpenAI, &file.OpenAI)
	if len(file.Priority) > 0 {
		cfg.Priority = file.Priority
	}
	if file.RequestTimeout != "" {
		cfg.RequestTimeout = file.RequestTimeout
	}
	if file.MaxAttempts > 0 {
		cfg.MaxAttempts = file.MaxAttempts
	}
	if len(file.PIIPatterns) > 0 {
		cfg.PIIPatterns = file.PIIPatterns
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
}

func mergeProvider(dst *ProviderConfig, src *fileProvider) {
	if src.Model != "" {
		dst.Model = src.Model
	}
	if len(src.APIKeys) > 0 {
		dst.APIKeys = src.APIKeys
		// Listing keys enables the family unless the file says otherwise.
		dst.Enabled = true
	}
	if src.Enabled != nil {
		dst.Enabled = *src.Enabled
	}
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.MaxTokens > 0 {
		dst.MaxTokens = src.MaxTokens
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
// Key lists are comma-separated, matching the original GEMINI_API_KEYS
// convention.
func mergeEnv(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEYS"); v != "" {
		cfg.Gemini.APIKeys = splitKeys(v)
		cfg.Gemini.Enabled = true
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Anthropic.APIKeys = splitKeys(v)
		cfg.Anthropic.Enabled = true
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKeys = splitKeys(v)
		cfg.OpenAI.Enabled = true
	}
	if v := os.Getenv("SAAKSHI_OPENAI_BASE_URL"); v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if v := os.Getenv("SAAKSHI_PRIORITY"); v != "" {
		cfg.Priority = splitKeys(v)
	}
	if v := os.Getenv("SAAKSHI_REQUEST_TIMEOUT"); v != "" {
		cfg.RequestTimeout = v
	}
	if v := os.Getenv("SAAKSHI_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxAttempts = n
		}
	}
	if v := os.Getenv("SAAKSHI_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
}

func splitKeys(s string) []string {
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

// Provider returns the named family's config, or nil for unknown names.
func (c *Config) Provider(family string) *ProviderConfig {
	switch family {
	case "gemini":
		return &c.Gemini
	case "anthropic":
		return &c.Anthropic
	case "openai":
		return &c.OpenAI
	default:
		return nil
	}
}

// EnabledPriority returns the fallback order restricted to families that
// are enabled and have at least one credential.
func (c *Config) EnabledPriority() []string {
	var out []string
	for _, family := range c.Priority {
		p := c.Provider(family)
		if p != nil && p.Enabled && len(p.APIKeys) > 0 {
			out = append(out, family)
		}
	}
	return out
}
