package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "DOCINSIGHT_"

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment" yaml:"environment" env:"ENV"` // "development" or "production"
	Server      ServerConfig  `toml:"server" yaml:"server" envPrefix:"SERVER_"`
	Gemini      GeminiConfig  `toml:"gemini" yaml:"gemini" envPrefix:"GEMINI_"`
	Claude      ClaudeConfig  `toml:"claude" yaml:"claude" envPrefix:"CLAUDE_"`
	LLM         LLMConfig     `toml:"llm" yaml:"llm" envPrefix:"LLM_"`
	Storage     StorageConfig `toml:"storage" yaml:"storage" envPrefix:"STORAGE_"`
	Audit       AuditConfig   `toml:"audit" yaml:"audit" envPrefix:"AUDIT_"`
	Session     SessionConfig `toml:"session" yaml:"session" envPrefix:"SESSION_"`
	Upload      UploadConfig  `toml:"upload" yaml:"upload" envPrefix:"UPLOAD_"`
	Logging     LoggingConfig `toml:"logging" yaml:"logging" envPrefix:"LOGGING_"`
}

type ServerConfig struct {
	Port            int    `toml:"port" yaml:"port" env:"PORT" validate:"min=1,max=65535"`
	Host            string `toml:"host" yaml:"host" env:"HOST"`
	ReadTimeout     string `toml:"read_timeout" yaml:"read_timeout" env:"READ_TIMEOUT" validate:"duration"`
	WriteTimeout    string `toml:"write_timeout" yaml:"write_timeout" env:"WRITE_TIMEOUT" validate:"duration"` // Must outlast the slowest answer
	MaxRequestBytes int64  `toml:"max_request_bytes" yaml:"max_request_bytes" env:"MAX_REQUEST_BYTES" validate:"gte=0"` // 0 = no hard cap on uploads
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key" yaml:"api_key" env:"API_KEY"`
	Model       string  `toml:"model" yaml:"model" env:"MODEL" validate:"required"`
	Temperature float32 `toml:"temperature" yaml:"temperature" env:"TEMPERATURE" validate:"gte=0,lte=2"`
	TopP        float32 `toml:"top_p" yaml:"top_p" env:"TOP_P" validate:"gte=0,lte=1"`
	TopK        float32 `toml:"top_k" yaml:"top_k" env:"TOP_K" validate:"gte=0"`
	RateLimit   string  `toml:"rate_limit" yaml:"rate_limit" env:"RATE_LIMIT" validate:"duration"` // Minimum spacing between calls, empty = unlimited
	BaseURL     string  `toml:"base_url" yaml:"base_url" env:"BASE_URL" validate:"omitempty,url"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key" yaml:"api_key" env:"API_KEY"`
	Model       string  `toml:"model" yaml:"model" env:"MODEL" validate:"required"`
	MaxTokens   int     `toml:"max_tokens" yaml:"max_tokens" env:"MAX_TOKENS" validate:"min=1"`
	Temperature float32 `toml:"temperature" yaml:"temperature" env:"TEMPERATURE" validate:"gte=0,lte=1"`
	TopP        float32 `toml:"top_p" yaml:"top_p" env:"TOP_P" validate:"gte=0,lte=1"` // 0 = not sent
	TopK        int     `toml:"top_k" yaml:"top_k" env:"TOP_K" validate:"gte=0"`         // 0 = not sent
	RateLimit   string  `toml:"rate_limit" yaml:"rate_limit" env:"RATE_LIMIT" validate:"duration"`
	BaseURL     string  `toml:"base_url" yaml:"base_url" env:"BASE_URL" validate:"omitempty,url"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" yaml:"default_provider" env:"DEFAULT_PROVIDER" validate:"oneof=gemini claude"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger" yaml:"badger" envPrefix:"BADGER_"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" yaml:"path" env:"PATH" validate:"required_without=InMemory"`
	InMemory       bool   `toml:"in_memory" yaml:"in_memory" env:"IN_MEMORY"`
	ResetOnStartup bool   `toml:"reset_on_startup" yaml:"reset_on_startup" env:"RESET_ON_STARTUP"`
}

// AuditConfig controls the exchange audit log
type AuditConfig struct {
	Enabled      bool   `toml:"enabled" yaml:"enabled" env:"ENABLED"`
	LogQuestions bool   `toml:"log_questions" yaml:"log_questions" env:"LOG_QUESTIONS"` // Store question text, not just its length
	Retention    string `toml:"retention" yaml:"retention" env:"RETENTION" validate:"duration"` // Records older than this are purged by the sweeper, empty keeps everything
}

type SessionConfig struct {
	IdleTTL       string `toml:"idle_ttl" yaml:"idle_ttl" env:"IDLE_TTL" validate:"duration"` // Empty disables expiry
	SweepSchedule string `toml:"sweep_schedule" yaml:"sweep_schedule" env:"SWEEP_SCHEDULE" validate:"cron"`
}

type UploadConfig struct {
	AdvisoryLimitMB int `toml:"advisory_limit_mb" yaml:"advisory_limit_mb" env:"ADVISORY_LIMIT_MB" validate:"gte=0"` // Shown to users, never enforced
}

type LoggingConfig struct {
	Level      string   `toml:"level" yaml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
	Output     []string `toml:"output" yaml:"output" env:"OUTPUT" envSeparator:"," validate:"dive,oneof=stdout console file"`
	TimeFormat string   `toml:"time_format" yaml:"time_format" env:"TIME_FORMAT"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:         8080,
			Host:         "localhost",
			ReadTimeout:  "30s",
			WriteTimeout: "10m", // Answers over a large PDF can take minutes
		},
		Gemini: GeminiConfig{
			Model:       "gemini-3-pro-preview",
			Temperature: 0.2,
			TopP:        0.8,
			TopK:        40,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-5",
			MaxTokens:   4096,
			Temperature: 0.2, // top_p/top_k left unset, newer models reject them alongside temperature
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Audit: AuditConfig{
			Enabled:      true,
			LogQuestions: false,
			Retention:    "720h",
		},
		Session: SessionConfig{
			IdleTTL:       "2h",
			SweepSchedule: "@every 5m",
		},
		Upload: UploadConfig{
			AdvisoryLimitMB: 20,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> .env -> env.
// Files ending in .yaml or .yml are parsed as YAML, everything else as TOML.
// CLI flags are applied afterwards by the caller via ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := decodeConfig(path, data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

func decodeConfig(path string, data []byte, config *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	default:
		return toml.Unmarshal(data, config)
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process environment.
// Missing files are skipped and variables already set are left alone.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return nil
}

// applyEnvOverrides applies DOCINSIGHT_* environment variables; unset variables leave values unchanged
func applyEnvOverrides(config *Config) error {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the configuration for values the service cannot start with
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		d, err := time.ParseDuration(s)
		return err == nil && d >= 0
	})

	_ = v.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := cron.ParseStandard(s)
		return err == nil
	})

	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s' (value: %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ParseDurationOr parses s, returning fallback when s is empty or malformed
func ParseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
