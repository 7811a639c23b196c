// Package listing expands job-board search result pages into the posting
// URLs they link to.
package listing

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/baxromumarov/job-extractor/internal/httpx"
	"github.com/baxromumarov/job-extractor/internal/observability"
	"github.com/baxromumarov/job-extractor/internal/urlutil"
)

const (
	DefaultMaxPages     = 5
	DefaultLinkSelector = "a.jobTitle"
)

type Options struct {
	// MaxPages bounds how many result pages of one listing are read.
	MaxPages int
	// LinkSelector picks the anchors that point at postings.
	LinkSelector string
}

// Fetcher is the part of httpx.CollyFetcher the expander needs.
type Fetcher interface {
	FetchPage(ctx context.Context, rawURL string) (httpx.Response, error)
}

type Expander struct {
	fetcher Fetcher
	opts    Options
}

func New(fetcher Fetcher, opts Options) *Expander {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if strings.TrimSpace(opts.LinkSelector) == "" {
		opts.LinkSelector = DefaultLinkSelector
	}
	return &Expander{fetcher: fetcher, opts: opts}
}

// Expand reads listingURL and the pages after it (page=2, page=3, ...) and
// returns the posting links in the order found. It stops at the first page
// that adds no new links. Only a failure on the first page is an error; a
// later page that cannot be fetched ends the walk.
func (e *Expander) Expand(ctx context.Context, listingURL string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string

	for n := 1; n <= e.opts.MaxPages; n++ {
		target := listingURL
		if n > 1 {
			var err error
			if target, err = PageURL(listingURL, n); err != nil {
				return nil, err
			}
		}

		resp, err := e.fetcher.FetchPage(ctx, target)
		if err != nil {
			observability.IncError(observability.ClassifyFetchError(err), "listing")
			if n == 1 {
				return nil, fmt.Errorf("fetch listing %s: %w", listingURL, err)
			}
			slog.Warn("listing page fetch failed, stopping", "url", target, "error", err)
			break
		}
		observability.IncPagesFetched("listing")

		links, err := Links(resp.Body, target, e.opts.LinkSelector)
		if err != nil {
			return nil, err
		}
		added := 0
		for _, link := range links {
			key := urlutil.DedupKey(link)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, link)
			added++
		}
		slog.Debug("listing page read", "url", target, "page", n, "links", added)
		if added == 0 {
			break
		}
	}
	return out, nil
}

// Links returns the absolute targets of the anchors matching selector.
func Links(body []byte, pageURL, selector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}

	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		if link := resolveLink(base, strings.TrimSpace(href)); link != "" {
			out = append(out, link)
		}
	})
	return out, nil
}

// PageURL returns the URL of result page n by setting its page query
// parameter. The fragment is kept.
func PageURL(listingURL string, n int) (string, error) {
	u, err := url.Parse(listingURL)
	if err != nil {
		return "", fmt.Errorf("parse listing url: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func resolveLink(base *url.URL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "javascript:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	u = base.ResolveReference(u)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
