// Package retriever fetches job pages, falling back from a plain HTTP GET to
// a headless browser when the static HTML carries too little text.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/baxromumarov/job-extractor/internal/content"
	"github.com/baxromumarov/job-extractor/internal/httpx"
	"github.com/baxromumarov/job-extractor/internal/model"
	"github.com/baxromumarov/job-extractor/internal/observability"
)

const DefaultMinContentLength = 200

// RetrievalError means no usable page could be obtained for URL. Permanent
// failures (gone, forbidden, explicit "not found" pages) skip the browser.
type RetrievalError struct {
	URL       string
	Reason    string
	Permanent bool
	Err       error
}

func (e *RetrievalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("retrieve %s: %s", e.URL, e.Reason)
	}
	return fmt.Sprintf("retrieve %s: %s: %v", e.URL, e.Reason, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Transient reports whether running the URL again could succeed.
func (e *RetrievalError) Transient() bool {
	return !e.Permanent
}

type Options struct {
	// MinContentLength is the rune count of visible text below which the
	// HTTP result is considered a JavaScript shell.
	MinContentLength int
}

// Retriever is owned by one worker. Browser may be nil, which disables the
// fallback.
type Retriever struct {
	http      Strategy
	browser   Strategy
	minLength int
}

func New(httpStrategy, browserStrategy Strategy, opts Options) *Retriever {
	if opts.MinContentLength <= 0 {
		opts.MinContentLength = DefaultMinContentLength
	}
	return &Retriever{http: httpStrategy, browser: browserStrategy, minLength: opts.MinContentLength}
}

// Fetch returns the page for url. It fails with *RetrievalError.
func (r *Retriever) Fetch(ctx context.Context, url string) (model.RawPage, error) {
	var thin *model.RawPage

	got, err := r.http.Fetch(ctx, url)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return model.RawPage{}, &RetrievalError{URL: url, Reason: "cancelled", Permanent: true, Err: ctx.Err()}
		}
		observability.IncError(observability.ClassifyFetchError(err), "retriever.http")
		if !isTransient(err) {
			return model.RawPage{}, &RetrievalError{URL: url, Reason: permanentReason(err), Permanent: true, Err: err}
		}
		if r.browser == nil {
			return model.RawPage{}, &RetrievalError{URL: url, Reason: "http retries exhausted", Err: err}
		}
		slog.Warn("http fetch failed, trying browser", "url", url, "error", err)
	default:
		page, perr := r.toRawPage(url, got, model.StrategyHTTP)
		if perr != nil {
			return model.RawPage{}, perr
		}
		observability.IncPagesFetched(string(model.StrategyHTTP))
		if utf8.RuneCountInString(page.Text) >= r.minLength {
			return page, nil
		}
		if r.browser == nil {
			if page.Text != "" {
				slog.Debug("accepting thin http content, browser disabled", "url", url, "runes", utf8.RuneCountInString(page.Text))
				return page, nil
			}
			return model.RawPage{}, &RetrievalError{URL: url, Reason: "no visible text"}
		}
		thin = &page
		slog.Debug("thin http content, rendering in browser", "url", url, "runes", utf8.RuneCountInString(page.Text), "min", r.minLength)
	}

	observability.IncBrowserFallback()
	rendered, err := r.browser.Fetch(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return model.RawPage{}, &RetrievalError{URL: url, Reason: "cancelled", Permanent: true, Err: ctx.Err()}
		}
		observability.IncError(observability.ClassifyFetchError(err), "retriever.browser")
		if thin != nil && thin.Text != "" {
			slog.Warn("browser fallback failed, keeping thin http content", "url", url, "error", err)
			return *thin, nil
		}
		return model.RawPage{}, &RetrievalError{URL: url, Reason: "all strategies failed", Err: err}
	}

	page, perr := r.toRawPage(url, rendered, model.StrategyBrowser)
	if perr != nil {
		return model.RawPage{}, perr
	}
	observability.IncPagesFetched(string(model.StrategyBrowser))
	if page.Text == "" {
		if thin != nil && thin.Text != "" {
			return *thin, nil
		}
		return model.RawPage{}, &RetrievalError{URL: url, Reason: "no visible text"}
	}
	return page, nil
}

// Close releases the browser session, if any.
func (r *Retriever) Close() error {
	if r.browser == nil {
		return nil
	}
	if c, ok := r.browser.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// toRawPage turns fetched HTML into a RawPage. A browser navigation that
// landed on a 4xx/5xx status is as final as the same status over HTTP.
func (r *Retriever) toRawPage(url string, got Fetched, strategy model.FetchStrategy) (model.RawPage, error) {
	if got.Status >= http.StatusBadRequest {
		observability.IncError(observability.ClassifyFetchError(&httpx.FetchError{Status: got.Status}), "retriever")
		return model.RawPage{}, &RetrievalError{
			URL:       url,
			Reason:    fmt.Sprintf("%s %d %s", strings.ToLower(string(strategy)), got.Status, http.StatusText(got.Status)),
			Permanent: true,
		}
	}
	analyzed, err := content.Analyze(got.HTML)
	if err != nil {
		return model.RawPage{}, &RetrievalError{URL: url, Reason: "unparseable html", Permanent: true, Err: err}
	}
	if analyzed.IsNotFound(r.minLength) {
		observability.IncError(observability.ErrorNotFound, "retriever")
		return model.RawPage{}, &RetrievalError{URL: url, Reason: "not found page", Permanent: true}
	}
	return model.RawPage{
		URL:      url,
		HTML:     got.HTML,
		Text:     analyzed.Text,
		Strategy: strategy,
		Status:   got.Status,
		Meta:     analyzed.Meta,
	}, nil
}

type transient interface {
	Transient() bool
}

func isTransient(err error) bool {
	var t transient
	if errors.As(err, &t) {
		return t.Transient()
	}
	return true
}

func permanentReason(err error) string {
	var fe *httpx.FetchError
	if errors.As(err, &fe) && fe.Status != 0 {
		return fmt.Sprintf("http %d %s", fe.Status, http.StatusText(fe.Status))
	}
	return "permanent fetch failure"
}
