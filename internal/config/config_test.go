package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if !cfg.Gemini.Enabled {
		t.Error("Gemini should be enabled by default")
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("Gemini.Model: got %q, want %q", cfg.Gemini.Model, "gemini-2.0-flash")
	}
	if cfg.Anthropic.Enabled || cfg.OpenAI.Enabled {
		t.Error("fallback families should be disabled by default")
	}
	if cfg.MaxAttempts != 6 {
		t.Errorf("MaxAttempts: got %d, want 6", cfg.MaxAttempts)
	}
	if got := []string{"gemini", "anthropic", "openai"}; !reflect.DeepEqual(cfg.Priority, got) {
		t.Errorf("Priority: got %v", cfg.Priority)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
gemini:
  model: gemini-2.5-flash
  api_keys: [k1, k2, k3]
openai:
  api_keys: [llama-key]
  base_url: https://api.sambanova.ai/v1
priority: [gemini, openai]
request_timeout: 45s
max_attempts: 4
pii_patterns:
  - category: aadhaar
    pattern: '\b\d{4}\s?\d{4}\s?\d{4}\b'
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("Gemini.Model = %q", cfg.Gemini.Model)
	}
	if len(cfg.Gemini.APIKeys) != 3 {
		t.Errorf("Gemini.APIKeys = %v", cfg.Gemini.APIKeys)
	}
	if !cfg.OpenAI.Enabled {
		t.Error("providing api_keys should enable the family")
	}
	if cfg.OpenAI.BaseURL != "https://api.sambanova.ai/v1" {
		t.Errorf("OpenAI.BaseURL = %q", cfg.OpenAI.BaseURL)
	}
	if cfg.RequestTimeoutDuration != 45*time.Second {
		t.Errorf("RequestTimeoutDuration = %v", cfg.RequestTimeoutDuration)
	}
	if cfg.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d", cfg.MaxAttempts)
	}
	if len(cfg.PIIPatterns) != 1 || cfg.PIIPatterns[0].Category != "aadhaar" {
		t.Errorf("PIIPatterns = %v", cfg.PIIPatterns)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q", cfg.ConfigFile)
	}
}

func TestLoad_ExplicitDisableWinsOverKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
gemini:
  enabled: false
  api_keys: [k1]
anthropic:
  enabled: true
openai:
  api_keys: [k2]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Gemini.Enabled {
		t.Error("explicit enabled: false must win over api_keys presence")
	}
	if !cfg.Anthropic.Enabled {
		t.Error("explicit enabled: true without keys should stick")
	}
	if !cfg.OpenAI.Enabled {
		t.Error("api_keys without an enabled field should still enable")
	}
	for _, family := range cfg.EnabledPriority() {
		if family == "gemini" {
			t.Errorf("EnabledPriority = %v, must not contain a disabled family", cfg.EnabledPriority())
		}
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("gemini:\n  api_keys: [from-file]\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GEMINI_API_KEYS", "env-a, env-b")
	t.Setenv("SAAKSHI_MAX_ATTEMPTS", "9")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := []string{"env-a", "env-b"}; !reflect.DeepEqual(cfg.Gemini.APIKeys, want) {
		t.Errorf("Gemini.APIKeys = %v, want %v", cfg.Gemini.APIKeys, want)
	}
	if cfg.MaxAttempts != 9 {
		t.Errorf("MaxAttempts = %d, want 9", cfg.MaxAttempts)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad_timeout.yaml")
	os.WriteFile(bad, []byte("request_timeout: soon\n"), 0o600)
	if _, err := Load(bad); err == nil {
		t.Error("expected error for invalid timeout")
	}

	badPrio := filepath.Join(dir, "bad_prio.yaml")
	os.WriteFile(badPrio, []byte("priority: [gemini, mistral]\n"), 0o600)
	if _, err := Load(badPrio); err == nil {
		t.Error("expected error for unknown family in priority")
	}
}

func TestEnabledPriority(t *testing.T) {
	cfg := Defaults()
	cfg.Gemini.APIKeys = []string{"a"}
	cfg.OpenAI.Enabled = true // enabled but keyless: skipped

	got := cfg.EnabledPriority()
	if want := []string{"gemini"}; !reflect.DeepEqual(got, want) {
		t.Errorf("EnabledPriority = %v, want %v", got, want)
	}

	cfg.OpenAI.APIKeys = []string{"k"}
	got = cfg.EnabledPriority()
	if want := []string{"gemini", "openai"}; !reflect.DeepEqual(got, want) {
		t.Errorf("EnabledPriority = %v, want %v", got, want)
	}
}
