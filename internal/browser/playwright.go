package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Playwright renders pages with a Chromium instance driven by playwright-go.
// The driver and browsers must be installed beforehand
// (go run github.com/playwright-community/playwright-go/cmd/playwright install chromium).
type Playwright struct {
	opts Options

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewPlaywright(opts Options) *Playwright {
	return &Playwright{opts: opts.withDefaults()}
}

func (p *Playwright) start() (playwright.Browser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.browser != nil {
		return p.browser, nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(p.opts.Headless),
	}
	if p.opts.BinPath != "" {
		launch.ExecutablePath = playwright.String(p.opts.BinPath)
	}
	b, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	p.pw = pw
	p.browser = b
	return b, nil
}

func (p *Playwright) Render(ctx context.Context, url string) (Rendered, error) {
	if err := ctx.Err(); err != nil {
		return Rendered{}, err
	}
	b, err := p.start()
	if err != nil {
		return Rendered{}, &RenderError{URL: url, Err: err}
	}

	page, err := b.NewPage()
	if err != nil {
		return Rendered{}, &RenderError{URL: url, Err: err}
	}
	defer page.Close()

	// playwright-go has no context plumbing; closing the page aborts a
	// navigation that outlives ctx.
	stop := context.AfterFunc(ctx, func() { _ = page.Close() })
	defer stop()

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(p.opts.RenderTimeout.Milliseconds())),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Rendered{}, errors.Join(ctxErr, err)
		}
		return Rendered{}, &RenderError{URL: url, Err: err}
	}

	if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(p.opts.SettleTimeout.Milliseconds())),
	}); err != nil {
		slog.Debug("page did not settle", "url", url, "error", err)
	}

	html, err := page.Content()
	if err != nil {
		return Rendered{}, &RenderError{URL: url, Err: err}
	}

	out := Rendered{URL: page.URL(), HTML: html}
	if resp != nil {
		out.Status = resp.Status()
	}
	if out.URL == "" {
		out.URL = url
	}
	return out, nil
}

func (p *Playwright) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.browser == nil {
		return nil
	}
	err := p.browser.Close()
	if stopErr := p.pw.Stop(); err == nil {
		err = stopErr
	}
	p.browser = nil
	p.pw = nil
	return err
}
