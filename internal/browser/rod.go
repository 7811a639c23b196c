package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Rod renders pages with go-rod over the Chrome DevTools protocol.
type Rod struct {
	opts Options

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func NewRod(opts Options) *Rod {
	return &Rod{opts: opts.withDefaults()}
}

func (r *Rod) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().Headless(r.opts.Headless)
	if r.opts.BinPath != "" {
		l = l.Bin(r.opts.BinPath)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	// Don't download files in the browser, e.g. pdf attachments.
	_ = proto.BrowserSetDownloadBehavior{
		Behavior:         proto.BrowserSetDownloadBehaviorBehaviorDeny,
		BrowserContextID: b.BrowserContextID,
	}.Call(b)

	r.launcher = l
	r.browser = b
	return b, nil
}

func (r *Rod) Render(ctx context.Context, url string) (Rendered, error) {
	b, err := r.connect()
	if err != nil {
		return Rendered{}, &RenderError{URL: url, Err: err}
	}

	renderCtx, cancel := context.WithTimeout(ctx, r.opts.RenderTimeout)
	defer cancel()

	page, err := b.Context(renderCtx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return Rendered{}, &RenderError{URL: url, Err: err}
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return Rendered{}, &RenderError{URL: url, Err: err}
	}

	// A page that keeps mutating past the settle window is read as-is.
	settleCtx, cancelSettle := context.WithTimeout(renderCtx, r.opts.SettleTimeout)
	if err := page.Context(settleCtx).WaitStable(500 * time.Millisecond); err != nil {
		slog.Debug("page did not settle", "url", url, "error", err)
	}
	cancelSettle()

	html, err := page.HTML()
	if err != nil {
		return Rendered{}, &RenderError{URL: url, Err: err}
	}

	final := url
	if info, err := page.Info(); err == nil && info.URL != "" {
		final = info.URL
	}
	return Rendered{URL: final, HTML: html}, nil
}

func (r *Rod) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.launcher.Cleanup()
	r.browser = nil
	r.launcher = nil
	return err
}
