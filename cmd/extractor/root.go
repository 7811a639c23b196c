package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/baxromumarov/job-extractor/internal/config"
)

var (
	cfgFile  string
	envFiles []string
	cfg      config.Config
	v        = viper.New()
)

var rootCmd = &cobra.Command{
	Use:           "extractor",
	Short:         "Extract structured records from Dutch tech job postings",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv(envFiles...)

		if err := bindFlags(cmd.Flags()); err != nil {
			return err
		}
		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		logger, err := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"log-level":          "log_level",
	"log-format":         "log_format",
	"workers":            "workers",
	"url-timeout":        "url_timeout",
	"min-content-length": "min_content_length",
	"browser":            "browser.kind",
	"browser-bin":        "browser.bin_path",
	"headless":           "browser.headless",
	"provider":           "translation.provider",
	"include-lists":      "translation.include_lists",
	"max-chars":          "translation.max_chars",
	"sink":               "sink.kind",
	"output":             "sink.target",
	"retries":            "retries",
	"retry-backoff":      "retry_backoff",
	"expand-listing":     "listing.expand",
	"max-listing-pages":  "listing.max_pages",
	"listing-selector":   "listing.link_selector",
	"status-addr":        "status_addr",
	"locations":          "locations_file",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./extractor.yaml)")
	pf.StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment (default .env)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "json", "log format: json or text")
	pf.String("provider", "", "translation provider: groq, gemini, mock or none (default: detect from API keys)")
	pf.Bool("include-lists", false, "also translate requirements and benefits")
	pf.Int("max-chars", 0, "truncate each text to this many characters before translating")
	pf.String("locations", "", "YAML file with a cities list used to recognise locations")

	rootCmd.AddCommand(extractCmd, segmentCmd)
}

// bindFlags binds the flags of the running command that have a config key.
// Only flags the user actually set override the file and environment.
func bindFlags(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed || err != nil {
			return
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}
