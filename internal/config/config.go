package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ModelConfig is one entry in the config file's "models" list (spec.md §6):
// a named, addressable model slot the UI's tabs and /model commands select
// by Key. Key is the only field without a matching CLI flag, since it's how
// a tab or --model override refers back into this list.
type ModelConfig struct {
	Key       string `mapstructure:"key"`
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// HookConfig binds a lifecycle event (spec.md §4.9, e.g. "turn_complete",
// "session_save") to a shell command run with the event as an argument.
type HookConfig struct {
	Event string `mapstructure:"event"`
	Cmd   string `mapstructure:"cmd"`
}

// Config is the unmarshaled shape of ~/.config/deepchat/config.json,
// spec.md §6's authoritative config schema.
type Config struct {
	Theme        ThemeConfig     `mapstructure:"theme"`
	Models       []ModelConfig   `mapstructure:"models"`
	DefaultModel string          `mapstructure:"default_model"`
	DefaultPrompt string         `mapstructure:"default_prompt"`
	PromptsDir   string          `mapstructure:"prompts_dir"`
	TavilyAPIKey string          `mapstructure:"tavily_api_key"`
	Hooks        []HookConfig    `mapstructure:"hooks"`

	// Ambient, carried from the teacher regardless of spec.md §6's explicit
	// schema (logging/session/diagnostics plumbing every tab shares).
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics"`
	DebugLogs   DebugLogsConfig   `mapstructure:"debug_logs"`
	Sessions    SessionsConfig    `mapstructure:"sessions"`
	AutoCompact bool              `mapstructure:"auto_compact"`
}

// DiagnosticsConfig configures diagnostic data collection.
type DiagnosticsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// DebugLogsConfig configures JSONL debug logging of LLM requests/events.
type DebugLogsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// SessionsConfig configures session storage.
type SessionsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxCount   int    `mapstructure:"max_count"`
	Path       string `mapstructure:"path"`
}

// ThemeConfig allows customization of UI colors. Colors can be ANSI color
// numbers (0-255) or hex codes (#RRGGBB).
type ThemeConfig struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Success   string `mapstructure:"success"`
	Error     string `mapstructure:"error"`
	Warning   string `mapstructure:"warning"`
	Muted     string `mapstructure:"muted"`
	Text      string `mapstructure:"text"`
	Spinner   string `mapstructure:"spinner"`
}

// Load reads ~/.config/deepchat/config.json (or ./config.json), applying
// GetDefaults() for anything unset. Missing config files are not an error.
func Load() (*Config, error) {
	configPath, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath(".")

	for key, value := range GetDefaults() {
		viper.SetDefault(key, value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for i := range cfg.Models {
		cfg.Models[i].APIKey = expandEnv(cfg.Models[i].APIKey)
		cfg.Models[i].BaseURL = expandEnv(cfg.Models[i].BaseURL)
		if cfg.Models[i].APIKey == "" {
			cfg.Models[i].APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if cfg.Models[i].BaseURL == "" {
			cfg.Models[i].BaseURL = os.Getenv("ANTHROPIC_BASE_URL")
		}
	}

	cfg.TavilyAPIKey = expandEnv(cfg.TavilyAPIKey)
	if cfg.TavilyAPIKey == "" {
		cfg.TavilyAPIKey = os.Getenv("TAVILY_API_KEY")
	}

	return &cfg, nil
}

// ModelByKey returns the model config with the given key, or nil if none
// matches.
func (c *Config) ModelByKey(key string) *ModelConfig {
	for i := range c.Models {
		if c.Models[i].Key == key {
			return &c.Models[i]
		}
	}
	return nil
}

// ApplyOverrides applies a --model flag override on top of the config's
// default_model, and (when the override names a key not already present)
// seeds a bare model entry for it so a one-off model still resolves.
func (c *Config) ApplyOverrides(modelKey string) {
	if modelKey == "" {
		return
	}
	c.DefaultModel = modelKey
	if c.ModelByKey(modelKey) == nil {
		c.Models = append(c.Models, ModelConfig{Key: modelKey, Model: modelKey})
	}
}

// expandEnv expands ${VAR} or $VAR in a string.
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

// GetConfigDir returns the XDG config directory for deepchat.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config.
func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, "deepchat"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "deepchat"), nil
}

// GetConfigPath returns the path where the config file should be located.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetDiagnosticsDir returns the XDG data directory for deepchat diagnostics.
func GetDiagnosticsDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "deepchat", "diagnostics")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "deepchat-diagnostics")
	}
	return filepath.Join(homeDir, ".local", "share", "deepchat", "diagnostics")
}

// GetDebugLogsDir returns the XDG data directory for deepchat debug logs.
func GetDebugLogsDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "deepchat", "debug")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "deepchat-debug")
	}
	return filepath.Join(homeDir, ".local", "share", "deepchat", "debug")
}

// GetDefaults returns a map of all default configuration values.
func GetDefaults() map[string]any {
	return map[string]any{
		"default_model":          "default",
		"default_prompt":         "",
		"prompts_dir":            "",
		"models":                 []map[string]any{{"key": "default", "model": "claude-sonnet-4-6"}},
		"sessions.enabled":       true,
		"sessions.max_age_days":  0,
		"sessions.max_count":     0,
		"sessions.path":          "",
		"auto_compact":           false,
		"tavily_api_key":         "",
	}
}
