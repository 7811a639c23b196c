// Package config loads extractor settings from extractor.yaml, EXTRACTOR_*
// environment variables and command-line flags, in rising precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/baxromumarov/job-extractor/internal/ai"
	"github.com/baxromumarov/job-extractor/internal/browser"
	"github.com/baxromumarov/job-extractor/internal/core"
	"github.com/baxromumarov/job-extractor/internal/httpx"
	"github.com/baxromumarov/job-extractor/internal/listing"
	"github.com/baxromumarov/job-extractor/internal/retriever"
	"github.com/baxromumarov/job-extractor/internal/store"
)

const EnvPrefix = "EXTRACTOR"

type HTTPConfig struct {
	UserAgent      string        `mapstructure:"user_agent"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BackoffInitial time.Duration `mapstructure:"backoff_initial"`
	BackoffMax     time.Duration `mapstructure:"backoff_max"`
}

type BrowserConfig struct {
	// Kind is rod, playwright or none.
	Kind           string        `mapstructure:"kind"`
	BinPath        string        `mapstructure:"bin_path"`
	Headless       bool          `mapstructure:"headless"`
	RenderTimeout  time.Duration `mapstructure:"render_timeout"`
	SettleTimeout  time.Duration `mapstructure:"settle_timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BackoffInitial time.Duration `mapstructure:"backoff_initial"`
	BackoffMax     time.Duration `mapstructure:"backoff_max"`
}

type TranslationConfig struct {
	Provider          string        `mapstructure:"provider"`
	Model             string        `mapstructure:"model"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Source            string        `mapstructure:"source"`
	Target            string        `mapstructure:"target"`
	MaxChars          int           `mapstructure:"max_chars"`
	IncludeLists      bool          `mapstructure:"include_lists"`
	SkipIfTranslated  bool          `mapstructure:"skip_if_translated"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// SinkConfig lists the sinks to write to. Each entry is "kind" or
// "kind=target"; a bare kind writes to Target.
type SinkConfig struct {
	Kinds  []string `mapstructure:"kind"`
	Target string   `mapstructure:"target"`
}

// ListingConfig turns input URLs into listing pages whose posting links are
// extracted instead.
type ListingConfig struct {
	Expand       bool   `mapstructure:"expand"`
	MaxPages     int    `mapstructure:"max_pages"`
	LinkSelector string `mapstructure:"link_selector"`
}

type Config struct {
	Workers          int           `mapstructure:"workers"`
	URLTimeout       time.Duration `mapstructure:"url_timeout"`
	Retries          int           `mapstructure:"retries"`
	RetryBackoff     time.Duration `mapstructure:"retry_backoff"`
	MinContentLength int           `mapstructure:"min_content_length"`
	LocationsFile    string        `mapstructure:"locations_file"`
	StatusAddr       string        `mapstructure:"status_addr"`
	LogLevel         string        `mapstructure:"log_level"`
	LogFormat        string        `mapstructure:"log_format"`

	HTTP        HTTPConfig        `mapstructure:"http"`
	Browser     BrowserConfig     `mapstructure:"browser"`
	Translation TranslationConfig `mapstructure:"translation"`
	Sink        SinkConfig        `mapstructure:"sink"`
	Listing     ListingConfig     `mapstructure:"listing"`

	// Credentials come from the unprefixed variables, usually via .env.
	GroqAPIKey   string `mapstructure:"groq_api_key"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
}

// SetDefaults registers every key so that EXTRACTOR_* variables are seen for
// nested keys too.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("workers", 4)
	v.SetDefault("url_timeout", 2*time.Minute)
	v.SetDefault("retries", 1)
	v.SetDefault("retry_backoff", 2*time.Second)
	v.SetDefault("min_content_length", retriever.DefaultMinContentLength)
	v.SetDefault("locations_file", "")
	v.SetDefault("status_addr", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.SetDefault("http.user_agent", "")
	v.SetDefault("http.timeout", 15*time.Second)
	v.SetDefault("http.max_attempts", 3)
	v.SetDefault("http.backoff_initial", 500*time.Millisecond)
	v.SetDefault("http.backoff_max", 5*time.Second)

	v.SetDefault("browser.kind", browser.KindRod)
	v.SetDefault("browser.bin_path", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.render_timeout", 30*time.Second)
	v.SetDefault("browser.settle_timeout", 5*time.Second)
	v.SetDefault("browser.max_attempts", 2)
	v.SetDefault("browser.backoff_initial", time.Second)
	v.SetDefault("browser.backoff_max", 5*time.Second)

	v.SetDefault("translation.provider", "")
	v.SetDefault("translation.model", "")
	v.SetDefault("translation.base_url", "")
	v.SetDefault("translation.timeout", 30*time.Second)
	v.SetDefault("translation.source", "nl")
	v.SetDefault("translation.target", "en")
	v.SetDefault("translation.max_chars", core.DefaultMaxChars)
	v.SetDefault("translation.include_lists", false)
	v.SetDefault("translation.skip_if_translated", false)
	v.SetDefault("translation.requests_per_second", 0)
	v.SetDefault("translation.burst", 1)

	v.SetDefault("sink.kind", []string{store.KindJSONL})
	v.SetDefault("sink.target", "-")

	v.SetDefault("listing.expand", false)
	v.SetDefault("listing.max_pages", listing.DefaultMaxPages)
	v.SetDefault("listing.link_selector", listing.DefaultLinkSelector)
}

// LoadDotEnv reads .env files into the process environment. Missing files are
// not an error; variables already set win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			slog.Debug("no env file loaded", "path", p, "error", err)
		}
	}
}

// Load reads the config file (when present), the environment and any flags
// already bound to v. An explicit path that cannot be read is an error; a
// missing default extractor.yaml is not.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("groq_api_key", "GROQ_API_KEY")
	_ = v.BindEnv("gemini_api_key", "GEMINI_API_KEY", "GOOGLE_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("extractor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		slog.Debug("using config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if c.MinContentLength <= 0 {
		errs = append(errs, errors.New("min_content_length must be positive"))
	}
	if c.URLTimeout < 0 {
		errs = append(errs, errors.New("url_timeout must not be negative"))
	}
	if c.Retries < 0 {
		errs = append(errs, errors.New("retries must not be negative"))
	}
	if c.HTTP.MaxAttempts <= 0 {
		errs = append(errs, errors.New("http.max_attempts must be positive"))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http.timeout must be positive"))
	}
	switch strings.ToLower(c.Browser.Kind) {
	case "", browser.KindNone, browser.KindRod, browser.KindPlaywright:
	default:
		errs = append(errs, fmt.Errorf("browser.kind %q is not one of rod, playwright, none", c.Browser.Kind))
	}
	if c.Browser.MaxAttempts <= 0 {
		errs = append(errs, errors.New("browser.max_attempts must be positive"))
	}
	if c.Translation.MaxChars <= 0 {
		errs = append(errs, errors.New("translation.max_chars must be positive"))
	}
	if c.Translation.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("translation.requests_per_second must not be negative"))
	}
	for _, spec := range c.Sink.Kinds {
		if kind, _ := store.ParseSpec(spec, c.Sink.Target); !store.ValidKind(kind) {
			errs = append(errs, fmt.Errorf("sink.kind %q is not one of jsonl, sqlite, postgres", kind))
		}
	}
	if c.Listing.Expand && c.Listing.MaxPages <= 0 {
		errs = append(errs, errors.New("listing.max_pages must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) ListingOptions() listing.Options {
	return listing.Options{
		MaxPages:     c.Listing.MaxPages,
		LinkSelector: c.Listing.LinkSelector,
	}
}

func (c Config) FetcherOptions() httpx.Options {
	return httpx.Options{
		UserAgent:      c.HTTP.UserAgent,
		Timeout:        c.HTTP.Timeout,
		MaxAttempts:    c.HTTP.MaxAttempts,
		BackoffInitial: c.HTTP.BackoffInitial,
		BackoffMax:     c.HTTP.BackoffMax,
	}
}

func (c Config) BrowserOptions() browser.Options {
	return browser.Options{
		RenderTimeout: c.Browser.RenderTimeout,
		SettleTimeout: c.Browser.SettleTimeout,
		BinPath:       c.Browser.BinPath,
		Headless:      c.Browser.Headless,
	}
}

func (c Config) AIConfig() ai.Config {
	return ai.Config{
		Provider:          c.Translation.Provider,
		GroqAPIKey:        c.GroqAPIKey,
		GeminiAPIKey:      c.GeminiAPIKey,
		Model:             c.Translation.Model,
		BaseURL:           c.Translation.BaseURL,
		Timeout:           c.Translation.Timeout,
		RequestsPerSecond: c.Translation.RequestsPerSecond,
		Burst:             c.Translation.Burst,
	}
}

func (c Config) TranslateOptions() core.TranslateOptions {
	return core.TranslateOptions{
		Source:           c.Translation.Source,
		Target:           c.Translation.Target,
		IncludeLists:     c.Translation.IncludeLists,
		MaxChars:         c.Translation.MaxChars,
		SkipIfTranslated: c.Translation.SkipIfTranslated,
	}
}
