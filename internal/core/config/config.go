// Package config handles configuration loading and validation for the debugger.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/codebase"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/prompt"
)

// Default model names.
const (
	DefaultModel           = "gemini-2.5-pro"
	DefaultStructuredModel = "gemini-2.5-flash"
	DefaultAPIKeyEnv       = "GEMINI_API_KEY"
)

// Config holds the application configuration.
type Config struct {
	Model           string                          `yaml:"model"`
	StructuredModel string                          `yaml:"structured_model"`
	APIKeyEnv       string                          `yaml:"api_key_env"`
	Database        DatabaseConfig                  `yaml:"database"`
	Prompts         map[prompt.Kind]prompt.Template `yaml:"prompts"`
	Codebase        CodebaseConfig                  `yaml:"codebase"`
	Render          RenderConfig                    `yaml:"render"`
	Events          EventsConfig                    `yaml:"events"`
	DataDir         string                          `yaml:"-"` // set by caller, not from config file
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// CodebaseConfig controls which files are read from a directory.
type CodebaseConfig struct {
	Include      []string `yaml:"include"`
	Exclude      []string `yaml:"exclude"`
	MaxFileBytes int64    `yaml:"max_file_bytes"`
}

// Options converts the config to loader options.
func (c CodebaseConfig) Options() codebase.Options {
	return codebase.Options{
		Include:      c.Include,
		Exclude:      c.Exclude,
		MaxFileBytes: c.MaxFileBytes,
	}
}

// RenderConfig controls terminal output.
type RenderConfig struct {
	Theme string `yaml:"theme"`
	Width int    `yaml:"width"` // 0 uses the terminal width
}

// EventsConfig controls the event bus.
type EventsConfig struct {
	Buffer int `yaml:"buffer"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	opts := codebase.DefaultOptions()
	return Config{
		Model:     DefaultModel,
		APIKeyEnv: DefaultAPIKeyEnv,
		Database: DatabaseConfig{
			MaxOpenConns: 2,
			MaxIdleConns: 2,
			BusyTimeout:  5000,
		},
		Prompts: map[prompt.Kind]prompt.Template{},
		Codebase: CodebaseConfig{
			Include:      opts.Include,
			Exclude:      opts.Exclude,
			MaxFileBytes: opts.MaxFileBytes,
		},
		Render: RenderConfig{
			Theme: "dark",
		},
		Events: EventsConfig{
			Buffer: 256,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.StructuredModel == "" {
		// Follows a custom model; the stock model keeps the structured default.
		c.StructuredModel = c.Model
		if c.Model == DefaultModel {
			c.StructuredModel = DefaultStructuredModel
		}
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = defaults.APIKeyEnv
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Prompts == nil {
		c.Prompts = map[prompt.Kind]prompt.Template{}
	}
	if len(c.Codebase.Include) == 0 {
		c.Codebase.Include = defaults.Codebase.Include
	}
	if c.Codebase.Exclude == nil {
		c.Codebase.Exclude = defaults.Codebase.Exclude
	}
	if c.Codebase.MaxFileBytes == 0 {
		c.Codebase.MaxFileBytes = defaults.Codebase.MaxFileBytes
	}
	if c.Render.Theme == "" {
		c.Render.Theme = defaults.Render.Theme
	}
	if c.Events.Buffer == 0 {
		c.Events.Buffer = defaults.Events.Buffer
	}
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if c.APIKeyEnv == "" {
		return fmt.Errorf("api_key_env cannot be empty")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}

	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns must be between 0 and max_open_conns")
	}

	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout cannot be negative")
	}

	if c.Codebase.MaxFileBytes < 0 {
		return fmt.Errorf("codebase.max_file_bytes cannot be negative")
	}

	if c.Render.Width < 0 {
		return fmt.Errorf("render.width cannot be negative")
	}

	if c.Events.Buffer < 1 {
		return fmt.Errorf("events.buffer must be at least 1")
	}

	for kind := range c.Prompts {
		if !isKnownKind(kind) {
			return fmt.Errorf("prompts: unknown prompt kind %q", kind)
		}
	}

	return nil
}

// APIKey returns the credential read from the configured environment variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// DatabaseFile returns the path of the SQLite database.
func (c *Config) DatabaseFile() string {
	return filepath.Join(c.DataDir, "debugger.db")
}

// LogFile returns the default log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "debugger.log")
}

func isKnownKind(kind prompt.Kind) bool {
	for _, k := range prompt.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}
