package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Global settings
	Format  string `mapstructure:"format"`
	Quiet   bool   `mapstructure:"quiet"`
	Verbose bool   `mapstructure:"verbose"`

	// Record shaping
	Verbosity int    `mapstructure:"verbosity"` // 0..4
	Datetime  string `mapstructure:"datetime"`  // full, date, none
	PWD       bool   `mapstructure:"pwd"`       // append ["cwd"] to records

	Filter         FilterConfig         `mapstructure:"filter"`
	ActionOnly     ActionOnlyConfig     `mapstructure:"action_only"`
	FailureCapture FailureCaptureConfig `mapstructure:"failure_capture"`
	Rotation       RotationConfig       `mapstructure:"rotation"`
	Paths          PathsConfig          `mapstructure:"paths"`
}

// FilterConfig limits which tool categories get logged
type FilterConfig struct {
	Include []string `mapstructure:"include"` // empty means everything
}

// ActionOnlyConfig reduces records to the bare tool name per category,
// with per-tool overrides ("true", "false", or "use_category")
type ActionOnlyConfig struct {
	Categories map[string]bool   `mapstructure:"categories"`
	Overrides  map[string]string `mapstructure:"overrides"`
}

// FailureCaptureConfig controls Bash failure records
type FailureCaptureConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	CaptureStderr bool `mapstructure:"capture_stderr"`
	MaxLines      int  `mapstructure:"max_stderr_lines"`
}

// RotationConfig bounds the active log file size per channel
type RotationConfig struct {
	ThresholdBytes int64 `mapstructure:"threshold_bytes"`
}

// PathsConfig overrides the on-disk roots
type PathsConfig struct {
	StateRoot string `mapstructure:"state_root"` // default ~/.sesslog/state
	LogRoot   string `mapstructure:"log_root"`   // default ~/.sesslog/logs
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format:    "ndjson",
		Verbosity: 2,
		Datetime:  "full",
		PWD:       false,
		ActionOnly: ActionOnlyConfig{
			Categories: map[string]bool{
				"io": false, "bash": false, "todo": true, "task": false,
				"system": false, "meta": false, "search": false,
			},
			Overrides: map[string]string{"TodoWrite": "use_category"},
		},
		FailureCapture: FailureCaptureConfig{
			Enabled:       false,
			CaptureStderr: true,
			MaxLines:      50,
		},
		Rotation: RotationConfig{ThresholdBytes: 1 << 20},
	}
}

// StateRoot resolves the session-state directory, honoring the override.
func (c *Config) StateRoot() (string, error) {
	if c.Paths.StateRoot != "" {
		return c.Paths.StateRoot, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sesslog", "state"), nil
}

// LogRoot resolves the per-session log directory root, honoring the override.
func (c *Config) LogRoot() (string, error) {
	if c.Paths.LogRoot != "" {
		return c.Paths.LogRoot, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sesslog", "logs"), nil
}

// Load loads configuration from files and environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("sesslog")
	v.SetConfigType("yaml")

	// Config paths in order of precedence, lowest first
	v.AddConfigPath("/etc/sesslog/")
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "sesslog"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".sesslog")
	}
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("SESSLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Bind the hot settings explicitly so the variable names stay stable
	v.BindEnv("verbosity", "SESSLOG_VERBOSITY")
	v.BindEnv("datetime", "SESSLOG_DATETIME")
	v.BindEnv("pwd", "SESSLOG_PWD")
	v.BindEnv("format", "SESSLOG_FORMAT")
	v.BindEnv("verbose", "SESSLOG_VERBOSE")
	v.BindEnv("failure_capture.enabled", "SESSLOG_FAILURE_ENABLED")
	v.BindEnv("failure_capture.capture_stderr", "SESSLOG_FAILURE_STDERR")
	v.BindEnv("failure_capture.max_stderr_lines", "SESSLOG_FAILURE_MAX_LINES")
	v.BindEnv("rotation.threshold_bytes", "SESSLOG_ROTATION_THRESHOLD")
	v.BindEnv("paths.state_root", "SESSLOG_STATE_ROOT")
	v.BindEnv("paths.log_root", "SESSLOG_LOG_ROOT")

	// Set defaults
	cfg := Default()
	v.SetDefault("format", cfg.Format)
	v.SetDefault("verbosity", cfg.Verbosity)
	v.SetDefault("datetime", cfg.Datetime)
	v.SetDefault("pwd", cfg.PWD)
	v.SetDefault("action_only.categories", cfg.ActionOnly.Categories)
	v.SetDefault("action_only.overrides", cfg.ActionOnly.Overrides)
	v.SetDefault("failure_capture.enabled", cfg.FailureCapture.Enabled)
	v.SetDefault("failure_capture.capture_stderr", cfg.FailureCapture.CaptureStderr)
	v.SetDefault("failure_capture.max_stderr_lines", cfg.FailureCapture.MaxLines)
	v.SetDefault("rotation.threshold_bytes", cfg.Rotation.ThresholdBytes)

	// Try to read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	cfg.clampRanges()
	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.clampRanges()
	return cfg, nil
}

// ConfigFile returns the path to the config file that was loaded
func ConfigFile() string {
	v := viper.New()

	v.SetConfigName(".sesslog")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}
	return ""
}

func (c *Config) clampRanges() {
	if c.Verbosity < 0 {
		c.Verbosity = 0
	}
	if c.Verbosity > 4 {
		c.Verbosity = 4
	}
	switch c.Datetime {
	case "full", "date", "none":
	default:
		c.Datetime = "full"
	}
	if c.FailureCapture.MaxLines < 1 {
		c.FailureCapture.MaxLines = 1
	}
	if c.FailureCapture.MaxLines > 1000 {
		c.FailureCapture.MaxLines = 1000
	}
	if c.Rotation.ThresholdBytes <= 0 {
		c.Rotation.ThresholdBytes = 1 << 20
	}
}

// ShouldLog reports whether a tool category passes the include filter.
func (c *Config) ShouldLog(category string) bool {
	if len(c.Filter.Include) == 0 {
		return true
	}
	for _, inc := range c.Filter.Include {
		if inc == category {
			return true
		}
	}
	return false
}

// ActionOnlyFor reports whether records for the tool collapse to the bare
// tool name. Per-tool overrides win over the category default.
func (c *Config) ActionOnlyFor(toolName, category string) bool {
	if ov, ok := c.ActionOnly.Overrides[toolName]; ok && ov != "use_category" {
		return ov == "true" || ov == "1" || ov == "yes"
	}
	return c.ActionOnly.Categories[category]
}
