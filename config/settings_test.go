package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestNewValidProvider(t *testing.T) {
	settings, err := New("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", settings.LLM.Provider)
	}
}

func TestNewWithAlias(t *testing.T) {
	settings, err := New("claude")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "anthropic" {
		t.Errorf("expected provider 'anthropic' (normalized from 'claude'), got %q", settings.LLM.Provider)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("unknown_provider")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewDefaults(t *testing.T) {
	t.Setenv("GEMINI_MODEL", "")

	s, err := New("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.LLM.Provider != "gemini" || s.LLM.Model != "gemini-2.5-flash" {
		t.Errorf("unexpected provider/model: %s/%s", s.LLM.Provider, s.LLM.Model)
	}
	if s.LLM.MaxTokens != 4096 || s.LLM.Temperature != 0.7 {
		t.Errorf("unexpected LLM defaults: %+v", s.LLM)
	}
	if s.Files.Suppliers != "suppliers.json" || s.Files.History != "alert_history.json" {
		t.Errorf("unexpected file defaults: %+v", s.Files)
	}
	if s.Monitor.Pacing != 2*time.Second || s.Monitor.Interval != 24*time.Hour {
		t.Errorf("unexpected monitor defaults: %+v", s.Monitor)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SENTINEL_PROVIDER", "deepseek")
	t.Setenv("SENTINEL_PACING", "500ms")
	t.Setenv("SENTINEL_HISTORY_FILE", "/tmp/h.json")
	t.Setenv("DEEPSEEK_MODEL", "deepseek-reasoner")

	v := viper.New()
	SetDefaults(v)
	s, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.LLM.Provider != "deepseek" || s.LLM.Model != "deepseek-reasoner" {
		t.Errorf("unexpected provider/model: %s/%s", s.LLM.Provider, s.LLM.Model)
	}
	if s.Monitor.Pacing != 500*time.Millisecond {
		t.Errorf("expected pacing 500ms, got %v", s.Monitor.Pacing)
	}
	if s.Files.History != "/tmp/h.json" {
		t.Errorf("expected history override, got %q", s.Files.History)
	}
}

func TestLoadFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "provider: google\nmodel: gemini-2.5-pro\ninterval: 1h\nwebhook_url: https://hooks.example.com/T000\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	s, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.LLM.Provider != "gemini" || s.LLM.Model != "gemini-2.5-pro" {
		t.Errorf("unexpected provider/model: %s/%s", s.LLM.Provider, s.LLM.Model)
	}
	if s.Monitor.Interval != time.Hour {
		t.Errorf("expected interval 1h, got %v", s.Monitor.Interval)
	}
	if s.Monitor.WebhookURL != "https://hooks.example.com/T000" {
		t.Errorf("unexpected webhook: %q", s.Monitor.WebhookURL)
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	s := Settings{
		LLM:     LLMConfig{Provider: "nope", MaxTokens: 0, Temperature: 3},
		Monitor: MonitorConfig{Pacing: -time.Second, WebhookURL: "ftp://x"},
	}
	err := s.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"unknown provider", KeyMaxTokens, KeyTemperature, KeySuppliersFile, KeyHistoryFile, KeyPacing, KeyInterval, KeyWebhookURL} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q, got: %v", want, err)
		}
	}
}

func TestAPIKeyForValidProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	key, err := APIKeyFor("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "test-key" {
		t.Errorf("expected 'test-key', got %q", key)
	}
}

func TestAPIKeyForMissing(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := APIKeyFor("openai")
	if err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestAPIKeyForUnknownProvider(t *testing.T) {
	_, err := APIKeyFor("unknown")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestAPIKeyEnvFor(t *testing.T) {
	env, err := APIKeyEnvFor("google")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env != "GEMINI_API_KEY" {
		t.Errorf("expected GEMINI_API_KEY, got %q", env)
	}
}

func TestModelFor(t *testing.T) {
	model, err := ModelFor("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model == "" {
		t.Error("expected non-empty model")
	}
}

func TestNewWithInvalidEnvVar(t *testing.T) {
	t.Setenv("SENTINEL_MAX_TOKENS", "not-a-number")

	_, err := New("openai")
	if err == nil {
		t.Error("expected error for invalid SENTINEL_MAX_TOKENS")
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for unknown provider")
		}
	}()
	MustNew("unknown_provider")
}

func TestSupportedProviders(t *testing.T) {
	providers := SupportedProviders()
	want := []string{"anthropic", "deepseek", "gemini", "openai"}
	if strings.Join(providers, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, providers)
	}
}
