// Package config handles configuration and the course catalog for geminitutor.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apierrors "github.com/diogo/geminitutor/internal/errors"
	"github.com/diogo/geminitutor/internal/models"
)

// Environment variables read on top of the config file
const (
	EnvAPIKey       = "API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvArkAPIKey    = "ARK_API_KEY"
	EnvArkModel     = "ARK_MODEL"
	EnvProvider     = "GEMINITUTOR_PROVIDER"
	EnvModel        = "GEMINITUTOR_MODEL"
	EnvGlamourStyle = "GLAMOUR_STYLE"
)

const (
	appDirName = ".geminitutor"

	defaultRevealIntervalMs      = 30
	defaultStreamTimeoutSeconds  = 60
	defaultRequestTimeoutSeconds = 300
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "dark", "light", "auto", or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// ArkConfig configures the Volcengine Ark provider
type ArkConfig struct {
	Model   string `json:"model,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	Region  string `json:"region,omitempty"`
}

// Config represents the user configuration
type Config struct {
	// Provider selects the chat backend: "gemini" or "ark".
	Provider string `json:"provider"`
	Model    string `json:"model"`
	// BaseURL overrides the Gemini API endpoint, mostly useful for proxies.
	BaseURL string `json:"base_url,omitempty"`
	// RevealIntervalMs is the delay between revealed characters.
	RevealIntervalMs int `json:"reveal_interval_ms"`
	// StreamTimeoutSeconds bounds the silence between two fragments.
	// Zero disables the idle timeout.
	StreamTimeoutSeconds  int            `json:"stream_timeout_seconds"`
	RequestTimeoutSeconds int            `json:"request_timeout_seconds"`
	TUITheme              string         `json:"tui_theme,omitempty"`
	Markdown              MarkdownConfig `json:"markdown,omitempty"`
	Ark                   ArkConfig      `json:"ark,omitempty"`

	// Credentials only ever come from the environment.
	APIKey    string `json:"-"`
	ArkAPIKey string `json:"-"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Provider:              models.ProviderGemini,
		Model:                 models.DefaultModel.Name,
		RevealIntervalMs:      defaultRevealIntervalMs,
		StreamTimeoutSeconds:  defaultStreamTimeoutSeconds,
		RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		TUITheme:              "tokyonight",
		Markdown:              DefaultMarkdownConfig(),
		Ark: ArkConfig{
			BaseURL: models.EndpointArkBase,
			Region:  "cn-beijing",
		},
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, appDirName), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the path to the debug log file
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "debug.log"), nil
}

// LoadConfig loads the configuration from disk and applies the environment
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := json.Unmarshal(data, &cfg); err != nil {
		cfg = DefaultConfig()
		cfg.ApplyEnv()
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// SaveConfig saves the configuration to disk. Credentials are never written.
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays credentials and overrides from the environment
func (c *Config) ApplyEnv() {
	c.APIKey = firstNonEmpty(os.Getenv(EnvAPIKey), os.Getenv(EnvGeminiAPIKey))
	c.ArkAPIKey = os.Getenv(EnvArkAPIKey)

	if v := os.Getenv(EnvProvider); v != "" {
		c.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvArkModel); v != "" {
		c.Ark.Model = v
	}
	if v := os.Getenv(EnvGlamourStyle); v != "" {
		c.Markdown.Style = v
	}
}

// Validate checks that the selected provider can be used.
// A missing credential yields a ConfigError wrapping ErrMissingAPIKey.
func (c Config) Validate() error {
	switch c.Provider {
	case models.ProviderGemini, "":
		if c.APIKey == "" {
			return apierrors.NewConfigError(EnvAPIKey, apierrors.ErrMissingAPIKey)
		}
	case models.ProviderArk:
		if c.ArkAPIKey == "" {
			return apierrors.NewConfigError(EnvArkAPIKey, apierrors.ErrMissingAPIKey)
		}
		if c.Ark.Model == "" {
			return apierrors.NewConfigError(EnvArkModel, fmt.Errorf("ark provider requires a model endpoint ID"))
		}
	default:
		return apierrors.NewConfigError("provider", fmt.Errorf("unknown provider %q", c.Provider))
	}
	return nil
}

// CredentialEnv returns the environment variable that holds the active credential
func (c Config) CredentialEnv() string {
	if c.Provider == models.ProviderArk {
		return EnvArkAPIKey
	}
	return EnvAPIKey
}

// RevealInterval returns the delay between revealed characters
func (c Config) RevealInterval() time.Duration {
	if c.RevealIntervalMs <= 0 {
		return defaultRevealIntervalMs * time.Millisecond
	}
	return time.Duration(c.RevealIntervalMs) * time.Millisecond
}

// StreamTimeout returns the idle timeout between fragments, zero meaning none
func (c Config) StreamTimeout() time.Duration {
	if c.StreamTimeoutSeconds < 0 {
		return 0
	}
	return time.Duration(c.StreamTimeoutSeconds) * time.Second
}

// RequestTimeout returns the overall HTTP request timeout
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return defaultRequestTimeoutSeconds * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// MaskedAPIKey returns the active credential with all but the last four characters hidden
func (c Config) MaskedAPIKey() string {
	key := c.APIKey
	if c.Provider == models.ProviderArk {
		key = c.ArkAPIKey
	}
	return MaskSecret(key)
}

// MaskSecret hides a secret for display
func MaskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", 8) + s[len(s)-4:]
}

// AvailableModels returns a list of available model names
func AvailableModels() []string {
	all := models.AllModels()
	names := make([]string, len(all))
	for i, m := range all {
		names[i] = m.Name
	}
	return names
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
