package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/baxromumarov/job-extractor/internal/ai"
	"github.com/baxromumarov/job-extractor/internal/api"
	"github.com/baxromumarov/job-extractor/internal/browser"
	"github.com/baxromumarov/job-extractor/internal/config"
	"github.com/baxromumarov/job-extractor/internal/core"
	"github.com/baxromumarov/job-extractor/internal/extract"
	"github.com/baxromumarov/job-extractor/internal/httpx"
	"github.com/baxromumarov/job-extractor/internal/listing"
	"github.com/baxromumarov/job-extractor/internal/retriever"
	"github.com/baxromumarov/job-extractor/internal/segment"
	"github.com/baxromumarov/job-extractor/internal/store"
	"github.com/baxromumarov/job-extractor/internal/urlutil"
)

var inputFile string

var extractCmd = &cobra.Command{
	Use:   "extract [url...]",
	Short: "Fetch postings and write one JSON line per URL",
	Long: `Fetch each posting over HTTP, falling back to a headless browser for
JavaScript-rendered pages, and write one outcome per URL to the sink.
URLs come from the arguments, from --input, or from stdin when neither is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		urls, err := collectURLs(args, inputFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if cfg.Listing.Expand {
			urls, err = expandListings(ctx, listing.New(httpx.NewCollyFetcher(cfg.FetcherOptions()), cfg.ListingOptions()), urls)
			if err != nil {
				return err
			}
		}
		if len(urls) == 0 {
			return errors.New("no urls to extract")
		}

		pipeline, err := buildPipeline(ctx, cfg, newRetrieverFactory(cfg))
		if err != nil {
			return err
		}

		sink, err := store.OpenAll(ctx, cfg.Sink.Kinds, cfg.Sink.Target)
		if err != nil {
			return err
		}
		defer func() {
			if err := sink.Close(); err != nil {
				slog.Error("close sink", "error", err)
			}
		}()

		if cfg.StatusAddr != "" {
			go func() {
				if err := api.NewServer().ListenAndServe(ctx, cfg.StatusAddr); err != nil {
					slog.Error("status server failed", "error", err)
				}
			}()
		}

		slog.Info("starting batch", "urls", len(urls), "workers", cfg.Workers, "browser", cfg.Browser.Kind, "sinks", cfg.Sink.Kinds, "retries", cfg.Retries)
		summary, err := pipeline.Run(ctx, urls, sink)
		if err != nil {
			return fmt.Errorf("batch stopped after %d of %d urls: %w", summary.Done+summary.Failed, summary.Total, err)
		}
		return nil
	},
}

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&inputFile, "input", "i", "", "file with one URL per line ('-' for stdin)")
	f.IntP("workers", "c", 4, "number of URLs processed in parallel")
	f.Duration("url-timeout", 0, "upper bound for one URL across all stages")
	f.Int("min-content-length", retriever.DefaultMinContentLength, "visible characters below which the browser fallback runs")
	f.String("browser", browser.KindRod, "browser fallback: rod, playwright or none")
	f.String("browser-bin", "", "path to a Chrome/Chromium binary")
	f.Bool("headless", true, "run the fallback browser headless")
	f.Int("retries", 1, "extra attempts for a URL whose retrieval failed transiently")
	f.Duration("retry-backoff", 2*time.Second, "delay before the first retry of a URL; it doubles up to eight times this value")
	f.StringSlice("sink", []string{store.KindJSONL}, "result sinks: jsonl, sqlite, postgres or kind=target; repeat or comma-separate to write to several")
	f.StringP("output", "o", "-", "default sink target: file path, database file or connection string ('-' is stdout)")
	f.Bool("expand-listing", false, "treat input URLs as search result pages and extract the postings they link to")
	f.Int("max-listing-pages", listing.DefaultMaxPages, "result pages read per listing URL")
	f.String("listing-selector", listing.DefaultLinkSelector, "CSS selector for posting links on a listing page")
	f.String("status-addr", "", "serve /health and /stats on this address while running")
}

func collectURLs(args []string, input string, stdin io.Reader) ([]string, error) {
	if len(args) > 0 && input == "" {
		return urlutil.Clean(args), nil
	}

	var r io.Reader = stdin
	if input != "" && input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	fromInput, err := urlutil.ReadURLs(r)
	if err != nil {
		return nil, err
	}
	return urlutil.Clean(append(append([]string{}, args...), fromInput...)), nil
}

// expandListings replaces every listing URL with the postings it links to.
// A listing that cannot be read is logged and skipped; the batch fails only
// when no listing could be read at all.
func expandListings(ctx context.Context, e *listing.Expander, listings []string) ([]string, error) {
	var (
		postings []string
		failed   int
		lastErr  error
	)
	for _, u := range listings {
		links, err := e.Expand(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("listing skipped", "url", u, "error", err)
			failed++
			lastErr = err
			continue
		}
		slog.Info("listing expanded", "url", u, "postings", len(links))
		postings = append(postings, links...)
	}
	if failed > 0 && failed == len(listings) {
		return nil, fmt.Errorf("no listing could be read: %w", lastErr)
	}
	return urlutil.Clean(postings), nil
}

// newRetrieverFactory builds one retriever per worker. Each gets its own
// browser session, started lazily on the first fallback.
func newRetrieverFactory(cfg config.Config) core.RetrieverFactory {
	return func() (core.Retriever, error) {
		httpStrategy := retriever.NewHTTPStrategy(httpx.NewCollyFetcher(cfg.FetcherOptions()))

		renderer, err := browser.New(cfg.Browser.Kind, cfg.BrowserOptions())
		if err != nil {
			return nil, err
		}
		var browserStrategy retriever.Strategy
		if renderer != nil {
			browserStrategy = retriever.NewBrowserStrategy(renderer,
				cfg.Browser.MaxAttempts, cfg.Browser.BackoffInitial, cfg.Browser.BackoffMax)
		}

		return retriever.New(httpStrategy, browserStrategy, retriever.Options{
			MinContentLength: cfg.MinContentLength,
		}), nil
	}
}

func buildPipeline(ctx context.Context, cfg config.Config, factory core.RetrieverFactory) (*core.Pipeline, error) {
	translator, err := ai.NewClient(ctx, cfg.AIConfig())
	if err != nil {
		return nil, err
	}

	locations := extract.DefaultLocations()
	if cfg.LocationsFile != "" {
		locations, err = extract.LoadLocations(cfg.LocationsFile)
		if err != nil {
			return nil, err
		}
	}

	return core.NewPipeline(
		factory,
		segment.New(),
		extract.New(locations),
		core.NewTranslationService(translator, cfg.TranslateOptions()),
		core.NewAssembler(),
		core.PipelineOptions{
			Workers:      cfg.Workers,
			URLTimeout:   cfg.URLTimeout,
			Retries:      cfg.Retries,
			RetryBackoff: cfg.RetryBackoff,
		},
	), nil
}
