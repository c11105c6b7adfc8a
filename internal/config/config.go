// Package config loads quill's settings from YAML (or TOML) with
// environment overrides and derives the on-disk layout from them.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultAnthropicModel  = "claude-sonnet-4-20250514"
	DefaultMaxContentBytes = 1 << 20
)

// Config holds runtime settings.
type Config struct {
	DataDir            string   `yaml:"data_dir" toml:"data_dir"`
	LogLevel           string   `yaml:"log_level" toml:"log_level"`
	LogFormat          string   `yaml:"log_format" toml:"log_format"`
	ContentDir         string   `yaml:"content_dir" toml:"content_dir"`
	AllowedContentDirs []string `yaml:"allowed_content_dirs" toml:"allowed_content_dirs"`
	AnthropicAPIKey    string   `yaml:"anthropic_api_key" toml:"anthropic_api_key"`
	AnthropicModel     string   `yaml:"anthropic_model" toml:"anthropic_model"`
	MaxContentBytes    int64    `yaml:"max_content_bytes" toml:"max_content_bytes"`

	// HTTPAddr, when set, makes "quill serve" listen for streamable HTTP
	// instead of stdio.
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
	// ProfileSchedule is a 5-field cron expression for rebuilding the
	// voice profile while serving. Empty disables it.
	ProfileSchedule string `yaml:"profile_schedule" toml:"profile_schedule"`
}

// DefaultPath is ~/.quill/config.yaml.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".quill")
}

// Load reads the YAML file at $QUILL_CONFIG (or DefaultPath), applies
// environment overrides and fills defaults. A missing file is fine;
// malformed YAML or a bad numeric override is an error.
func Load() (*Config, error) {
	path := DefaultPath()
	if envPath := os.Getenv("QUILL_CONFIG"); envPath != "" {
		path = envPath
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit path. Files ending in .toml are
// parsed as TOML, anything else as YAML.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		unmarshal := yaml.Unmarshal
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			unmarshal = toml.Unmarshal
		}
		if err := unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	envOverride(&cfg.DataDir, "QUILL_DATA_DIR")
	envOverride(&cfg.LogLevel, "QUILL_LOG_LEVEL")
	envOverride(&cfg.LogFormat, "QUILL_LOG_FORMAT")
	envOverride(&cfg.ContentDir, "QUILL_CONTENT_DIR")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.AnthropicModel, "QUILL_ANTHROPIC_MODEL")
	envOverride(&cfg.HTTPAddr, "QUILL_HTTP_ADDR")
	envOverride(&cfg.ProfileSchedule, "QUILL_PROFILE_SCHEDULE")
	if err := envOverrideInt64(&cfg.MaxContentBytes, "QUILL_MAX_CONTENT_BYTES"); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = defaultDataDir()
	}
	c.DataDir = expandHome(c.DataDir)
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.ContentDir == "" {
		c.ContentDir = filepath.Join(c.DataDir, "content")
	}
	c.ContentDir = expandHome(c.ContentDir)
	if len(c.AllowedContentDirs) == 0 {
		c.AllowedContentDirs = []string{
			c.ContentDir,
			filepath.Join(c.DataDir, "drafts"),
		}
	}
	for i, d := range c.AllowedContentDirs {
		c.AllowedContentDirs[i] = expandHome(d)
	}
	if c.AnthropicModel == "" {
		c.AnthropicModel = DefaultAnthropicModel
	}
	if c.MaxContentBytes == 0 {
		c.MaxContentBytes = DefaultMaxContentBytes
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q: want text or json", c.LogFormat)
	}
	if c.MaxContentBytes <= 0 {
		return fmt.Errorf("max_content_bytes must be positive, got %d", c.MaxContentBytes)
	}
	if c.ProfileSchedule != "" {
		sched, err := cron.ParseStandard(c.ProfileSchedule)
		if err != nil {
			return fmt.Errorf("invalid profile_schedule %q: %w", c.ProfileSchedule, err)
		}
		if sched.Next(time.Now()).IsZero() {
			return fmt.Errorf("invalid profile_schedule %q: never fires", c.ProfileSchedule)
		}
	}
	return nil
}

// PatternsPath is the pattern store document.
func (c *Config) PatternsPath() string {
	return filepath.Join(c.DataDir, "learning", "patterns.json")
}

// HistoryPath is the append-only audit log.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "learning", "history.jsonl")
}

// HistoryDBPath is the searchable history index.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "learning", "history.db")
}

// ProfilePath is the voice profile document.
func (c *Config) ProfilePath() string {
	return filepath.Join(c.DataDir, "voice", "profile.json")
}

// NewLogger builds a slog.Logger writing to w in the configured format.
func NewLogger(c *Config, w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log_level %q: want debug, info, warn or error", s)
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt64(field *int64, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
