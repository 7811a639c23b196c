// Package browser renders JavaScript-heavy pages in a headless browser.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Renderer loads a page in a real browser and returns the DOM once it has
// settled. A Renderer holds one browser session and is owned by a single
// worker; it is not meant to be shared.
type Renderer interface {
	Render(ctx context.Context, url string) (Rendered, error)
	Close() error
}

// Rendered is the serialized DOM after rendering. Status is zero when the
// driver does not expose the navigation response.
type Rendered struct {
	URL    string
	Status int
	HTML   string
}

type Options struct {
	RenderTimeout time.Duration
	SettleTimeout time.Duration
	// BinPath points at a Chrome/Chromium binary. Empty lets the driver
	// download or discover one.
	BinPath  string
	Headless bool
}

func (o Options) withDefaults() Options {
	if o.RenderTimeout <= 0 {
		o.RenderTimeout = 30 * time.Second
	}
	if o.SettleTimeout <= 0 {
		o.SettleTimeout = 5 * time.Second
	}
	return o
}

// RenderError wraps every failure raised while rendering a page.
type RenderError struct {
	URL string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.URL, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

const (
	KindNone       = "none"
	KindRod        = "rod"
	KindPlaywright = "playwright"
)

// New returns the renderer for kind, or nil when rendering is disabled.
// Browsers are started lazily on the first Render call.
func New(kind string, opts Options) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindNone:
		return nil, nil
	case KindRod:
		return NewRod(opts), nil
	case KindPlaywright:
		return NewPlaywright(opts), nil
	default:
		return nil, fmt.Errorf("unknown browser %q (want rod, playwright or none)", kind)
	}
}
