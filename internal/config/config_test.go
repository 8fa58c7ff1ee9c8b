package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apierrors "github.com/diogo/geminitutor/internal/errors"
)

// isolateEnv points HOME at a temp dir and clears every variable ApplyEnv reads
func isolateEnv(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	for _, key := range []string{EnvAPIKey, EnvGeminiAPIKey, EnvArkAPIKey, EnvArkModel, EnvProvider, EnvModel, EnvGlamourStyle} {
		t.Setenv(key, "")
	}
	return tmpDir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Provider != "gemini" {
		t.Errorf("Expected default provider to be 'gemini', got '%s'", cfg.Provider)
	}
	if cfg.Model != "gemini-2.5-flash" {
		t.Errorf("Expected default model to be 'gemini-2.5-flash', got '%s'", cfg.Model)
	}
	if cfg.RevealIntervalMs != 30 {
		t.Errorf("Expected RevealIntervalMs to be 30, got %d", cfg.RevealIntervalMs)
	}
	if cfg.StreamTimeoutSeconds != 60 {
		t.Errorf("Expected StreamTimeoutSeconds to be 60, got %d", cfg.StreamTimeoutSeconds)
	}
	if cfg.TUITheme != "tokyonight" {
		t.Errorf("Expected TUITheme to be 'tokyonight', got '%s'", cfg.TUITheme)
	}
}

func TestGetConfigDir(t *testing.T) {
	tmpDir := isolateEnv(t)

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() returned error: %v", err)
	}
	if dir != filepath.Join(tmpDir, ".geminitutor") {
		t.Errorf("GetConfigDir() = %s", dir)
	}
}

func TestGetConfigPath(t *testing.T) {
	isolateEnv(t)

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() returned error: %v", err)
	}
	if filepath.Base(path) != "config.json" {
		t.Errorf("GetConfigPath() = %s, want config.json", path)
	}

	logPath, err := GetLogPath()
	if err != nil {
		t.Fatalf("GetLogPath() returned error: %v", err)
	}
	if filepath.Base(logPath) != "debug.log" {
		t.Errorf("GetLogPath() = %s, want debug.log", logPath)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	isolateEnv(t)

	dir, err := EnsureConfigDir()
	if err != nil {
		t.Fatalf("EnsureConfigDir() returned error: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("config dir not created: %v", err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Errorf("config dir permissions = %o, want 700", info.Mode().Perm())
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	isolateEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.Model != DefaultConfig().Model {
		t.Errorf("Expected default model, got %s", cfg.Model)
	}
}

func TestSaveConfig(t *testing.T) {
	tmpDir := isolateEnv(t)

	cfg := DefaultConfig()
	cfg.Model = "gemini-2.5-pro"
	cfg.RevealIntervalMs = 10
	cfg.APIKey = "secret-should-not-persist"

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() returned error: %v", err)
	}

	configPath := filepath.Join(tmpDir, ".geminitutor", "config.json")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read saved config: %v", err)
	}
	if strings.Contains(string(data), "secret-should-not-persist") {
		t.Error("API key must not be written to disk")
	}

	var saved Config
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("Failed to parse saved config: %v", err)
	}
	if saved.Model != "gemini-2.5-pro" {
		t.Errorf("Saved model = %s, want gemini-2.5-pro", saved.Model)
	}

	info, _ := os.Stat(configPath)
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config file permissions = %o, want 600", info.Mode().Perm())
	}
}

func TestLoadConfig_WithExistingFile(t *testing.T) {
	isolateEnv(t)

	cfg := DefaultConfig()
	cfg.StreamTimeoutSeconds = 0
	cfg.TUITheme = "nord"
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() returned error: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if loaded.TUITheme != "nord" {
		t.Errorf("TUITheme = %s, want nord", loaded.TUITheme)
	}
	if loaded.StreamTimeout() != 0 {
		t.Errorf("StreamTimeout() = %v, want 0", loaded.StreamTimeout())
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpDir := isolateEnv(t)

	configDir := filepath.Join(tmpDir, ".geminitutor")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
	if cfg.Model != DefaultConfig().Model {
		t.Error("Expected defaults after parse failure")
	}
}

func TestApplyEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvGeminiAPIKey, "fallback-key")
	t.Setenv(EnvModel, "gemini-2.5-pro")
	t.Setenv(EnvGlamourStyle, "light")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.APIKey != "fallback-key" {
		t.Errorf("APIKey = %s, want fallback-key", cfg.APIKey)
	}
	if cfg.Model != "gemini-2.5-pro" {
		t.Errorf("Model = %s, want gemini-2.5-pro", cfg.Model)
	}
	if cfg.Markdown.Style != "light" {
		t.Errorf("Markdown.Style = %s, want light", cfg.Markdown.Style)
	}

	t.Setenv(EnvAPIKey, "primary-key")
	cfg.ApplyEnv()
	if cfg.APIKey != "primary-key" {
		t.Errorf("API_KEY should win over GEMINI_API_KEY, got %s", cfg.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		missing bool
	}{
		{"gemini without key", func(c *Config) {}, true, true},
		{"gemini with key", func(c *Config) { c.APIKey = "k" }, false, false},
		{"ark without key", func(c *Config) { c.Provider = "ark"; c.Ark.Model = "ep-1" }, true, true},
		{"ark without model", func(c *Config) { c.Provider = "ark"; c.ArkAPIKey = "k" }, true, false},
		{"ark complete", func(c *Config) { c.Provider = "ark"; c.ArkAPIKey = "k"; c.Ark.Model = "ep-1" }, false, false},
		{"unknown provider", func(c *Config) { c.Provider = "other"; c.APIKey = "k" }, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !apierrors.IsConfigError(err) {
				t.Errorf("expected ConfigError, got %T", err)
			}
			if errors.Is(err, apierrors.ErrMissingAPIKey) != tt.missing {
				t.Errorf("errors.Is(ErrMissingAPIKey) = %v, want %v", !tt.missing, tt.missing)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.RevealInterval() != 30*time.Millisecond {
		t.Errorf("RevealInterval() = %v", cfg.RevealInterval())
	}
	if cfg.StreamTimeout() != time.Minute {
		t.Errorf("StreamTimeout() = %v", cfg.StreamTimeout())
	}

	cfg.RevealIntervalMs = 0
	cfg.RequestTimeoutSeconds = -1
	if cfg.RevealInterval() != 30*time.Millisecond {
		t.Errorf("RevealInterval() should fall back to default, got %v", cfg.RevealInterval())
	}
	if cfg.RequestTimeout() != 300*time.Second {
		t.Errorf("RequestTimeout() should fall back to default, got %v", cfg.RequestTimeout())
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "(not set)"},
		{"abc", "***"},
		{"AIzaSyExample1234", "********1234"},
	}
	for _, tt := range tests {
		if got := MaskSecret(tt.in); got != tt.want {
			t.Errorf("MaskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	cfg := DefaultConfig()
	cfg.Provider = "ark"
	cfg.ArkAPIKey = "ark-secret-9876"
	if cfg.MaskedAPIKey() != "********9876" {
		t.Errorf("MaskedAPIKey() = %s", cfg.MaskedAPIKey())
	}
	if cfg.CredentialEnv() != EnvArkAPIKey {
		t.Errorf("CredentialEnv() = %s", cfg.CredentialEnv())
	}
}

func TestAvailableModels(t *testing.T) {
	names := AvailableModels()
	if len(names) != 3 {
		t.Fatalf("AvailableModels() returned %d names", len(names))
	}
	if names[0] != "gemini-2.5-flash" {
		t.Errorf("first model = %s", names[0])
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("GEMINITUTOR_DOTENV_TEST=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GEMINITUTOR_DOTENV_TEST", "")
	os.Unsetenv("GEMINITUTOR_DOTENV_TEST")

	if !LoadDotEnv(path) {
		t.Fatal("LoadDotEnv() should report the file was loaded")
	}
	if os.Getenv("GEMINITUTOR_DOTENV_TEST") != "from-file" {
		t.Errorf("variable not loaded from .env")
	}

	if LoadDotEnv(filepath.Join(dir, "missing.env")) {
		t.Error("LoadDotEnv() should report a missing file")
	}
}
