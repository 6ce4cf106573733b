package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig_Values(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "gemini-3-pro-preview", config.Gemini.Model)
	assert.InDelta(t, 0.2, config.Gemini.Temperature, 1e-6)
	assert.InDelta(t, 0.8, config.Gemini.TopP, 1e-6)
	assert.InDelta(t, 40, config.Gemini.TopK, 1e-6)
	assert.Equal(t, LLMProviderGemini, config.LLM.DefaultProvider)
	assert.Equal(t, 20, config.Upload.AdvisoryLimitMB)
	assert.Zero(t, config.Server.MaxRequestBytes)
	assert.NoError(t, config.Validate())
}

func TestLoadFromFiles_LaterFilesOverride(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.toml", `
[server]
port = 9000
host = "0.0.0.0"

[gemini]
model = "gemini-base"
`)
	override := writeFile(t, dir, "override.yaml", `
gemini:
  model: gemini-override
logging:
  level: debug
`)

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, "gemini-override", config.Gemini.Model)
	assert.Equal(t, "debug", config.Logging.Level)
	// untouched defaults survive
	assert.InDelta(t, 0.2, config.Gemini.Temperature, 1e-6)
}

func TestLoadFromFiles_EnvOverridesFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "docinsight.toml", `
[server]
port = 9000

[llm]
default_provider = "gemini"
`)

	t.Setenv("DOCINSIGHT_SERVER_PORT", "9100")
	t.Setenv("DOCINSIGHT_LLM_DEFAULT_PROVIDER", "claude")
	t.Setenv("DOCINSIGHT_LOGGING_OUTPUT", "stdout")
	t.Setenv("DOCINSIGHT_STORAGE_BADGER_IN_MEMORY", "true")

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, LLMProviderClaude, config.LLM.DefaultProvider)
	assert.Equal(t, []string{"stdout"}, config.Logging.Output)
	assert.True(t, config.Storage.Badger.InMemory)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadFromFiles_MalformedFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.toml", "[server\nport = ")
	_, err := LoadFromFiles(path)
	assert.Error(t, err)
}

func TestLoadDotEnv_DoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "DOCINSIGHT_TEST_DOTENV_A=from-file\nDOCINSIGHT_TEST_DOTENV_B=from-file\n")

	t.Setenv("DOCINSIGHT_TEST_DOTENV_A", "from-env")
	t.Setenv("DOCINSIGHT_TEST_DOTENV_B", "")
	os.Unsetenv("DOCINSIGHT_TEST_DOTENV_B")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))

	assert.Equal(t, "from-env", os.Getenv("DOCINSIGHT_TEST_DOTENV_A"))
	assert.Equal(t, "from-file", os.Getenv("DOCINSIGHT_TEST_DOTENV_B"))
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)

	ApplyFlagOverrides(config, 7000, "127.0.0.1")
	assert.Equal(t, 7000, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad provider", func(c *Config) { c.LLM.DefaultProvider = "openai" }, true},
		{"bad duration", func(c *Config) { c.Session.IdleTTL = "soon" }, true},
		{"empty duration allowed", func(c *Config) { c.Gemini.RateLimit = "" }, false},
		{"bad cron", func(c *Config) { c.Session.SweepSchedule = "every now and then" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad log output", func(c *Config) { c.Logging.Output = []string{"syslog"} }, true},
		{"top_p out of range", func(c *Config) { c.Gemini.TopP = 1.5 }, true},
		{"missing model", func(c *Config) { c.Gemini.Model = "" }, true},
		{"in-memory without path", func(c *Config) {
			c.Storage.Badger.Path = ""
			c.Storage.Badger.InMemory = true
		}, false},
		{"no path and not in-memory", func(c *Config) { c.Storage.Badger.Path = "" }, true},
		{"bad base url", func(c *Config) { c.Claude.BaseURL = "not a url" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseDurationOr(t *testing.T) {
	assert.Equal(t, 5*time.Minute, ParseDurationOr("5m", 0))
	assert.Equal(t, time.Second, ParseDurationOr("", time.Second))
	assert.Equal(t, time.Second, ParseDurationOr("later", time.Second))
}
