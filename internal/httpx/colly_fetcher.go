package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Options tunes a CollyFetcher. Zero values fall back to the defaults below.
type Options struct {
	UserAgent      string
	Timeout        time.Duration
	MaxAttempts    int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// CollyFetcher wraps Colly for single-page HTML fetching with bounded retries.
type CollyFetcher struct {
	userAgent      string
	timeout        time.Duration
	maxAttempts    int
	backoffInitial time.Duration
	backoffMax     time.Duration

	sleep func(context.Context, time.Duration) error
}

// Response is one successful GET.
type Response struct {
	URL    string
	Status int
	Body   []byte
}

type FetchError struct {
	Status   int
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch error (status %d)", e.Status)
	}
	return fmt.Sprintf("fetch error (status %d): %v", e.Status, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transient reports whether another attempt could succeed.
func (e *FetchError) Transient() bool {
	return Retryable(e.Status, e.Err)
}

func NewCollyFetcher(opts Options) *CollyFetcher {
	f := &CollyFetcher{
		userAgent:      opts.UserAgent,
		timeout:        opts.Timeout,
		maxAttempts:    opts.MaxAttempts,
		backoffInitial: opts.BackoffInitial,
		backoffMax:     opts.BackoffMax,
		sleep:          sleepWithContext,
	}
	if f.userAgent == "" {
		f.userAgent = defaultUserAgent
	}
	if f.timeout <= 0 {
		f.timeout = 15 * time.Second
	}
	if f.maxAttempts <= 0 {
		f.maxAttempts = 3
	}
	if f.backoffInitial <= 0 {
		f.backoffInitial = 500 * time.Millisecond
	}
	if f.backoffMax <= 0 {
		f.backoffMax = 5 * time.Second
	}
	return f
}

// FetchPage GETs rawURL, retrying timeouts, connection errors, 408, 429 and
// 5xx with exponential backoff. Other 4xx responses fail immediately.
func (f *CollyFetcher) FetchPage(ctx context.Context, rawURL string) (Response, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return Response{}, &FetchError{Err: err}
	}

	var lastErr error
	var status int
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}
		var resp Response
		resp, status, lastErr = f.fetchOnce(ctx, target)
		if lastErr == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		if !Retryable(status, lastErr) {
			return Response{}, &FetchError{Status: status, Attempts: attempt, Err: lastErr}
		}
		if attempt == f.maxAttempts {
			break
		}
		if err := f.sleep(ctx, Backoff(attempt, f.backoffInitial, f.backoffMax)); err != nil {
			return Response{}, err
		}
	}

	if lastErr == nil {
		lastErr = errors.New("colly fetch failed")
	}
	return Response{}, &FetchError{Status: status, Attempts: f.maxAttempts, Err: lastErr}
}

func (f *CollyFetcher) fetchOnce(ctx context.Context, target string) (Response, int, error) {
	c := f.newCollector(ctx)

	var resp Response
	status := 0
	var reqErr error
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		resp = Response{
			URL:    r.Request.URL.String(),
			Status: r.StatusCode,
			Body:   append([]byte(nil), r.Body...),
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	if err := c.Request(http.MethodGet, target, nil, nil, nil); err != nil {
		return Response{}, status, err
	}
	if reqErr != nil {
		return Response{}, status, reqErr
	}
	if status >= 400 {
		return Response{}, status, fmt.Errorf("status %d", status)
	}
	if status == 0 {
		status = http.StatusOK
		resp.Status = status
	}
	if resp.URL == "" {
		resp.URL = target
	}
	return resp, status, nil
}

func (f *CollyFetcher) newCollector(ctx context.Context) *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	)
	c.IgnoreRobotsTxt = true
	c.SetRequestTimeout(f.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "nl-NL,nl;q=0.9,en;q=0.8")
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	return c
}

// Retryable classifies a failed attempt. A zero status means the request
// never produced a response (timeout, refused connection, DNS).
func Retryable(status int, err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch {
	case status == 0:
		return err != nil
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return true
	case status >= 500 && status <= 599:
		return true
	}
	return false
}

// Backoff returns the wait after the given 1-based attempt: initial, doubled
// each attempt, capped at max.
func Backoff(attempt int, initial, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := initial
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

func normalizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + rawURL)
		if err != nil {
			return "", err
		}
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}
	return u.String(), nil
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
