package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/zhake2025/streamchat/internal/store"
)

type Config struct {
	Chat     ChatConfig   `mapstructure:"chat"`
	Stream   StreamConfig `mapstructure:"stream"`
	Render   RenderConfig `mapstructure:"render"`
	Theme    ThemeConfig  `mapstructure:"theme"`
	Sessions store.Config `mapstructure:"sessions"`
	Debug    DebugConfig  `mapstructure:"debug"`
}

// ChatConfig controls the message feed and scroll behaviour
type ChatConfig struct {
	AutoScroll        bool `mapstructure:"auto_scroll"`         // Follow streaming output at the bottom
	RestoreScroll     bool `mapstructure:"restore_scroll"`      // Restore last scroll offset on resume
	DisplayCount      int  `mapstructure:"display_count"`       // Messages shown initially (default 20)
	LoadMoreIncrement int  `mapstructure:"load_more_increment"` // Window growth per load-more (default 20)
}

// StreamConfig controls delta throttling and render pacing
type StreamConfig struct {
	ThrottleMs          int `mapstructure:"throttle_ms"`            // Text commit cadence; 0 derives from tier
	RenderMinIntervalMs int `mapstructure:"render_min_interval_ms"` // Min ms between viewport rebuilds
}

// RenderConfig controls render strategy selection
type RenderConfig struct {
	Tier string `mapstructure:"tier"` // "auto", "low", "medium", or "high"
}

// DebugConfig configures raw-event logging
type DebugConfig struct {
	Raw bool   `mapstructure:"raw"` // Log stream events as JSONL
	Dir string `mapstructure:"dir"` // Override default log directory
}

// ThemeConfig allows customization of UI colors
// Colors can be ANSI color numbers (0-255) or hex codes (#RRGGBB)
type ThemeConfig struct {
	Primary   string `mapstructure:"primary"`   // main accent (commands, highlights)
	Secondary string `mapstructure:"secondary"` // secondary accent (headers, borders)
	Success   string `mapstructure:"success"`   // success states
	Error     string `mapstructure:"error"`     // error states
	Warning   string `mapstructure:"warning"`   // warnings
	Muted     string `mapstructure:"muted"`     // dimmed text
	Text      string `mapstructure:"text"`      // primary text
	Spinner   string `mapstructure:"spinner"`   // loading spinner
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chat.auto_scroll", true)
	v.SetDefault("chat.restore_scroll", true)
	v.SetDefault("chat.display_count", 20)
	v.SetDefault("chat.load_more_increment", 20)
	// throttle_ms 0 means "derive from the detected render tier"
	v.SetDefault("stream.throttle_ms", 0)
	v.SetDefault("stream.render_min_interval_ms", 33)
	v.SetDefault("render.tier", "auto")
	v.SetDefault("sessions.enabled", true)
	v.SetDefault("sessions.max_age_days", 0)
	v.SetDefault("debug.raw", false)
}

func Load() (*Config, error) {
	configPath, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("STREAMCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - won't error if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration without touching the filesystem.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// GetConfigDir returns the XDG config directory for streamchat.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config
func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, "streamchat"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "streamchat"), nil
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// GetDebugLogDir returns the directory for raw stream logs.
// Uses $XDG_DATA_HOME if set, otherwise ~/.local/share
func GetDebugLogDir(cfg DebugConfig) string {
	if cfg.Dir != "" {
		return cfg.Dir
	}
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "streamchat", "logs")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "streamchat-logs") // fallback
	}
	return filepath.Join(homeDir, ".local", "share", "streamchat", "logs")
}

// Exists returns true if a config file exists
func Exists() bool {
	path, err := GetConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Save writes the config to disk
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`chat:
  auto_scroll: %t
  restore_scroll: %t
  display_count: %d
  load_more_increment: %d

stream:
  # 0 picks a cadence from the detected render tier
  throttle_ms: %d
  render_min_interval_ms: %d

render:
  # auto, low, medium, or high
  tier: %s

sessions:
  enabled: %t
  # auto-delete sessions older than N days (0 = keep forever)
  max_age_days: %d
`, cfg.Chat.AutoScroll, cfg.Chat.RestoreScroll, cfg.Chat.DisplayCount,
		cfg.Chat.LoadMoreIncrement, cfg.Stream.ThrottleMs,
		cfg.Stream.RenderMinIntervalMs, cfg.Render.Tier,
		cfg.Sessions.Enabled, cfg.Sessions.MaxAgeDays)

	return os.WriteFile(path, []byte(content), 0600)
}
