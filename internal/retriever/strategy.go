package retriever

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/baxromumarov/job-extractor/internal/browser"
	"github.com/baxromumarov/job-extractor/internal/httpx"
)

// Fetched is the raw HTML one strategy obtained for a URL.
type Fetched struct {
	URL    string
	Status int
	HTML   string
}

// Strategy fetches the HTML of one URL, retrying transient failures itself.
type Strategy interface {
	Fetch(ctx context.Context, url string) (Fetched, error)
}

// HTTPStrategy is the plain GET strategy backed by colly.
type HTTPStrategy struct {
	fetcher *httpx.CollyFetcher
}

func NewHTTPStrategy(fetcher *httpx.CollyFetcher) *HTTPStrategy {
	return &HTTPStrategy{fetcher: fetcher}
}

func (s *HTTPStrategy) Fetch(ctx context.Context, url string) (Fetched, error) {
	resp, err := s.fetcher.FetchPage(ctx, url)
	if err != nil {
		return Fetched{}, err
	}
	return Fetched{URL: resp.URL, Status: resp.Status, HTML: string(resp.Body)}, nil
}

// BrowserStrategy renders the page in a headless browser. Every render
// failure counts as transient and is retried with backoff.
type BrowserStrategy struct {
	renderer       browser.Renderer
	maxAttempts    int
	backoffInitial time.Duration
	backoffMax     time.Duration

	sleep func(context.Context, time.Duration) error
}

func NewBrowserStrategy(r browser.Renderer, maxAttempts int, backoffInitial, backoffMax time.Duration) *BrowserStrategy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &BrowserStrategy{
		renderer:       r,
		maxAttempts:    maxAttempts,
		backoffInitial: backoffInitial,
		backoffMax:     backoffMax,
		sleep:          sleepWithContext,
	}
}

func (s *BrowserStrategy) Fetch(ctx context.Context, url string) (Fetched, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Fetched{}, err
		}
		out, err := s.renderer.Render(ctx, url)
		if err == nil {
			return Fetched{URL: out.URL, Status: out.Status, HTML: out.HTML}, nil
		}
		lastErr = err
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return Fetched{}, err
		}
		slog.Debug("render attempt failed", "url", url, "attempt", attempt, "error", err)
		if attempt == s.maxAttempts {
			break
		}
		if err := s.sleep(ctx, httpx.Backoff(attempt, s.backoffInitial, s.backoffMax)); err != nil {
			return Fetched{}, err
		}
	}
	return Fetched{}, lastErr
}

func (s *BrowserStrategy) Close() error {
	return s.renderer.Close()
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
