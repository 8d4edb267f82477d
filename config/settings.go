// Package config provides application settings loaded from flags, environment
// variables and an optional config file.
//
// Settings are created via Load() which handles:
// - Default value application
// - Provider-specific model lookup
// - Validation of every field, with all problems reported together

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read through viper.
const EnvPrefix = "SENTINEL"

// Configuration keys.
const (
	KeyProvider      = "provider"
	KeyModel         = "model"
	KeyMaxTokens     = "max_tokens"
	KeyTemperature   = "temperature"
	KeySuppliersFile = "suppliers_file"
	KeyHistoryFile   = "history_file"
	KeyDBPath        = "db_path"
	KeyLogFile       = "log_file"
	KeyPacing        = "pacing"
	KeyInterval      = "interval"
	KeyWebhookURL    = "webhook_url"
	KeyMetricsAddr   = "metrics_addr"
	KeyVerbose       = "verbose"
)

// Settings holds all application configuration.
type Settings struct {
	LLM     LLMConfig     `yaml:"llm"`
	Files   FilesConfig   `yaml:"files"`
	Monitor MonitorConfig `yaml:"monitor"`
	Verbose bool          `yaml:"verbose"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	MaxTokens   uint32  `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// FilesConfig holds the on-disk locations.
type FilesConfig struct {
	Suppliers string `yaml:"suppliers"`
	History   string `yaml:"history"`
	Database  string `yaml:"database"`
	Log       string `yaml:"log"`
}

// MonitorConfig holds monitoring loop configuration.
type MonitorConfig struct {
	Pacing      time.Duration `yaml:"pacing"`
	Interval    time.Duration `yaml:"interval"`
	WebhookURL  string        `yaml:"webhook_url"`
	MetricsAddr string        `yaml:"metrics_addr"`
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_MODEL", "gpt-4o", "OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY"},
	"deepseek":  {"DEEPSEEK_MODEL", "deepseek-chat", "DEEPSEEK_API_KEY"},
	"gemini":    {"GEMINI_MODEL", "gemini-2.5-flash", "GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

// SetDefaults registers default values on v and binds environment variables.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyProvider, "gemini")
	v.SetDefault(KeyModel, "")
	v.SetDefault(KeyMaxTokens, 4096)
	v.SetDefault(KeyTemperature, 0.7)
	v.SetDefault(KeySuppliersFile, "suppliers.json")
	v.SetDefault(KeyHistoryFile, "alert_history.json")
	v.SetDefault(KeyDBPath, ".sentinel/sentinel.db")
	v.SetDefault(KeyLogFile, "logs/supplysentinel.log")
	v.SetDefault(KeyPacing, 2*time.Second)
	v.SetDefault(KeyInterval, 24*time.Hour)
	v.SetDefault(KeyWebhookURL, "")
	v.SetDefault(KeyMetricsAddr, "")
	v.SetDefault(KeyVerbose, false)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
}

// Load builds settings from v. An empty model falls back to the provider's
// model environment variable, then to its default model.
func Load(v *viper.Viper) (Settings, error) {
	provider := normalizeProvider(v.GetString(KeyProvider))

	model := v.GetString(KeyModel)
	if model == "" {
		if m, err := ModelFor(provider); err == nil {
			model = m
		}
	}

	s := Settings{
		LLM: LLMConfig{
			Provider:    provider,
			Model:       model,
			MaxTokens:   v.GetUint32(KeyMaxTokens),
			Temperature: v.GetFloat64(KeyTemperature),
		},
		Files: FilesConfig{
			Suppliers: v.GetString(KeySuppliersFile),
			History:   v.GetString(KeyHistoryFile),
			Database:  v.GetString(KeyDBPath),
			Log:       v.GetString(KeyLogFile),
		},
		Monitor: MonitorConfig{
			Pacing:      v.GetDuration(KeyPacing),
			Interval:    v.GetDuration(KeyInterval),
			WebhookURL:  v.GetString(KeyWebhookURL),
			MetricsAddr: v.GetString(KeyMetricsAddr),
		},
		Verbose: v.GetBool(KeyVerbose),
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// New creates settings for the specified provider from defaults and
// environment variables only.
func New(provider string) (Settings, error) {
	v := viper.New()
	SetDefaults(v)
	if provider != "" {
		v.Set(KeyProvider, provider)
	}
	return Load(v)
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// Validate reports every invalid field at once.
func (s Settings) Validate() error {
	var errs []error

	if _, err := getProviderInfo(s.LLM.Provider); err != nil {
		errs = append(errs, err)
	}
	if s.LLM.MaxTokens == 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyMaxTokens))
	}
	if s.LLM.Temperature < 0 || s.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("%s must be between 0 and 2, got %v", KeyTemperature, s.LLM.Temperature))
	}
	if s.Files.Suppliers == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeySuppliersFile))
	}
	if s.Files.History == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyHistoryFile))
	}
	if s.Monitor.Pacing < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyPacing))
	}
	if s.Monitor.Interval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyInterval))
	}
	if s.Monitor.WebhookURL != "" {
		u, err := url.Parse(s.Monitor.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an http(s) URL", KeyWebhookURL))
		}
	}

	return errors.Join(errs...)
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyEnvFor returns the environment variable holding a provider's API key.
func APIKeyEnvFor(provider string) (string, error) {
	info, err := getProviderInfo(normalizeProvider(provider))
	if err != nil {
		return "", err
	}
	return info.apiKeyEnv, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking environment first.
func ModelFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	if val := os.Getenv(info.modelEnv); val != "" {
		return val, nil
	}
	return info.defaultModel, nil
}

// SupportedProviders returns the sorted list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}
