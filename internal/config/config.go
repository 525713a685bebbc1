// Package config loads LifeDesk configuration from ~/.lifedesk/config.yaml
// with environment variable overrides (prefix LIFEDESK_).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Assistant AssistantConfig `mapstructure:"assistant" yaml:"assistant"`
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	Data      DataConfig      `mapstructure:"data" yaml:"data"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// AssistantConfig controls the turn orchestration core.
type AssistantConfig struct {
	// Provider selects the completion backend: "openai" or "ollama".
	Provider string `mapstructure:"provider" yaml:"provider"`

	// Model overrides the provider's default model when set.
	Model string `mapstructure:"model" yaml:"model"`

	// MaxSteps bounds the completion/tool loop per turn.
	MaxSteps int `mapstructure:"max_steps" yaml:"max_steps"`

	// CompletionTimeout bounds a single provider call.
	CompletionTimeout time.Duration `mapstructure:"completion_timeout" yaml:"completion_timeout"`

	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	// ContextBudget caps the rendered context snapshot, in characters.
	ContextBudget int `mapstructure:"context_budget" yaml:"context_budget"`

	// PendingActionTTL is how long a mutating-action proposal stays resolvable.
	PendingActionTTL time.Duration `mapstructure:"pending_action_ttl" yaml:"pending_action_ttl"`

	// HistoryLimit is the number of trailing history messages kept in the transcript.
	HistoryLimit int `mapstructure:"history_limit" yaml:"history_limit"`
}

// ProvidersConfig configures the completion backends.
type ProvidersConfig struct {
	OpenAI ProviderConfig `mapstructure:"openai" yaml:"openai"`
	Ollama ProviderConfig `mapstructure:"ollama" yaml:"ollama"`
}

// ProviderConfig is one completion backend.
type ProviderConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	Model    string `mapstructure:"model" yaml:"model"`
}

// DataConfig locates the local data directory.
type DataConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level   string `mapstructure:"level" yaml:"level"`
	File    string `mapstructure:"file" yaml:"file"`
	Console bool   `mapstructure:"console" yaml:"console"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         "127.0.0.1:8844",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		Assistant: AssistantConfig{
			Provider:          "openai",
			MaxSteps:          4,
			CompletionTimeout: 45 * time.Second,
			Temperature:       0.3,
			ContextBudget:     4000,
			PendingActionTTL:  10 * time.Minute,
			HistoryLimit:      20,
		},
		Providers: ProvidersConfig{
			OpenAI: ProviderConfig{
				Endpoint: "https://api.openai.com/v1",
				Model:    "gpt-4o-mini",
			},
			Ollama: ProviderConfig{
				Endpoint: "http://127.0.0.1:11434",
				Model:    "llama3.1",
			},
		},
		Data: DataConfig{
			Dir: "~/.lifedesk",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lifedesk", "config.yaml")
}

// Load reads configuration from the default location.
func Load() (*Config, error) {
	return LoadFromPath(DefaultPath())
}

// LoadFromPath reads configuration from path, creating a default file if
// none exists, and merges environment variable overrides.
func LoadFromPath(path string) (*Config, error) {
	path = expandPath(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeConfigFile(path, Default()); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Example: LIFEDESK_PROVIDERS_OPENAI_API_KEY
	v.SetEnvPrefix("LIFEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Data.Dir = expandPath(cfg.Data.Dir)
	cfg.Logging.File = expandPath(cfg.Logging.File)
	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills zero values so a sparse config file still works.
func (c *Config) applyDefaults() {
	d := Default()

	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if c.Assistant.Provider == "" {
		c.Assistant.Provider = d.Assistant.Provider
	}
	if c.Assistant.MaxSteps == 0 {
		c.Assistant.MaxSteps = d.Assistant.MaxSteps
	}
	if c.Assistant.CompletionTimeout == 0 {
		c.Assistant.CompletionTimeout = d.Assistant.CompletionTimeout
	}
	if c.Assistant.Temperature == 0 {
		c.Assistant.Temperature = d.Assistant.Temperature
	}
	if c.Assistant.ContextBudget == 0 {
		c.Assistant.ContextBudget = d.Assistant.ContextBudget
	}
	if c.Assistant.PendingActionTTL == 0 {
		c.Assistant.PendingActionTTL = d.Assistant.PendingActionTTL
	}
	if c.Assistant.HistoryLimit == 0 {
		c.Assistant.HistoryLimit = d.Assistant.HistoryLimit
	}
	if c.Providers.OpenAI.Endpoint == "" {
		c.Providers.OpenAI.Endpoint = d.Providers.OpenAI.Endpoint
	}
	if c.Providers.OpenAI.Model == "" {
		c.Providers.OpenAI.Model = d.Providers.OpenAI.Model
	}
	if c.Providers.Ollama.Endpoint == "" {
		c.Providers.Ollama.Endpoint = d.Providers.Ollama.Endpoint
	}
	if c.Providers.Ollama.Model == "" {
		c.Providers.Ollama.Model = d.Providers.Ollama.Model
	}
	if c.Data.Dir == "" {
		c.Data.Dir = expandPath(d.Data.Dir)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

// SaveToPath writes the configuration to a specific file path.
func (c *Config) SaveToPath(path string) error {
	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return writeConfigFile(path, c)
}

func writeConfigFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	header := "# LifeDesk configuration\n# Environment overrides use the LIFEDESK_ prefix, e.g. LIFEDESK_PROVIDERS_OPENAI_API_KEY.\n\n"
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}

// expandPath expands a leading tilde to the user's home directory.
func expandPath(path string) string {
	if path == "" || !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/"))
}
