package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 200, cfg.MinContentLength)
	assert.Equal(t, 15*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 3, cfg.HTTP.MaxAttempts)
	assert.Equal(t, "rod", cfg.Browser.Kind)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 3000, cfg.Translation.MaxChars)
	assert.Equal(t, "nl", cfg.Translation.Source)
	assert.Equal(t, []string{"jsonl"}, cfg.Sink.Kinds)
	assert.Equal(t, 1, cfg.Retries)
	assert.False(t, cfg.Listing.Expand)
	assert.Equal(t, "a.jobTitle", cfg.ListingOptions().LinkSelector)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, "extractor.yaml", `
workers: 8
min_content_length: 500
http:
  timeout: 5s
  max_attempts: 4
browser:
  kind: playwright
translation:
  provider: groq
  include_lists: true
sink:
  kind: sqlite
  target: out.db
`)
	t.Setenv("EXTRACTOR_WORKERS", "2")
	t.Setenv("EXTRACTOR_HTTP_TIMEOUT", "7s")
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 500, cfg.MinContentLength)
	assert.Equal(t, 7*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 4, cfg.HTTP.MaxAttempts)
	assert.Equal(t, "playwright", cfg.Browser.Kind)
	assert.True(t, cfg.Translation.IncludeLists)
	assert.Equal(t, []string{"sqlite"}, cfg.Sink.Kinds)
	assert.Equal(t, "out.db", cfg.Sink.Target)
	assert.Equal(t, "gsk-test", cfg.GroqAPIKey)

	ac := cfg.AIConfig()
	assert.Equal(t, "groq", ac.Provider)
	assert.Equal(t, "gsk-test", ac.GroqAPIKey)
	assert.True(t, cfg.TranslateOptions().IncludeLists)
	assert.Equal(t, 4, cfg.FetcherOptions().MaxAttempts)
}

func TestLoad_SinkListFromEnv(t *testing.T) {
	t.Setenv("EXTRACTOR_SINK_KIND", "jsonl,sqlite=runs.db")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"jsonl", "sqlite=runs.db"}, cfg.Sink.Kinds)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeFile(t, "bad.yaml", "workers: 0\nbrowser:\n  kind: firefox\n")

	_, err := Load(viper.New(), path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "workers must be positive")
	assert.ErrorContains(t, err, "browser.kind")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Load(viper.New(), "")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"threshold", func(c *Config) { c.MinContentLength = 0 }, "min_content_length"},
		{"http attempts", func(c *Config) { c.HTTP.MaxAttempts = 0 }, "http.max_attempts"},
		{"browser attempts", func(c *Config) { c.Browser.MaxAttempts = -1 }, "browser.max_attempts"},
		{"max chars", func(c *Config) { c.Translation.MaxChars = 0 }, "translation.max_chars"},
		{"sink", func(c *Config) { c.Sink.Kinds = []string{"jsonl", "kafka=topic"} }, `sink.kind "kafka"`},
		{"retries", func(c *Config) { c.Retries = -1 }, "retries"},
		{"listing pages", func(c *Config) { c.Listing.Expand = true; c.Listing.MaxPages = 0 }, "listing.max_pages"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "GEMINI_API_KEY=from-dotenv\n")
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")

	LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, "from-dotenv", os.Getenv("GEMINI_API_KEY"))
	os.Unsetenv("GEMINI_API_KEY")
}
