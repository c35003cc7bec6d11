// Package browser provides Chrome/Chromedp initialization and the page
// operations the downloader drives.
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
)

// Options holds browser launch options.
type Options struct {
	ExecPath     string
	Headless     bool
	SandboxFlags []string
	UserAgent    string
	WindowWidth  int
	WindowHeight int
	// Timeout bounds the whole session; the browser is stopped when it expires.
	Timeout time.Duration
}

// DefaultOptions returns default browser options.
func DefaultOptions() Options {
	return Options{
		Headless:     true,
		SandboxFlags: []string{"no-sandbox", "disable-setuid-sandbox", "disable-dev-shm-usage"},
		WindowWidth:  1920,
		WindowHeight: 1080,
		Timeout:      30 * time.Minute,
	}
}

// Session owns a browser process and its single page.
type Session struct {
	Ctx         context.Context
	allocCancel context.CancelFunc
	ctxCancel   context.CancelFunc
}

// New launches the browser and opens a blank tab. Cancelling parent stops
// the browser. logf receives chromedp protocol errors; it may be nil.
func New(parent context.Context, opts Options, logf func(string, ...any)) (*Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	for _, flag := range opts.SandboxFlags {
		allocOpts = append(allocOpts, chromedp.Flag(flag, true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)

	var ctxOpts []chromedp.ContextOption
	if logf != nil {
		ctxOpts = append(ctxOpts, chromedp.WithErrorf(logf))
	}
	ctx, ctxCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	s := &Session{Ctx: ctx, allocCancel: allocCancel, ctxCancel: ctxCancel}

	// The first Run allocates the browser. It must not carry a timeout,
	// otherwise the timeout would stop the whole browser.
	if err := chromedp.Run(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	if opts.Timeout > 0 {
		timeoutCtx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
		s.Ctx = timeoutCtx
		s.ctxCancel = func() {
			timeoutCancel()
			ctxCancel()
		}
	}

	return s, nil
}

// Close stops the page and the browser process. It is safe to call twice.
func (s *Session) Close() {
	if s.ctxCancel != nil {
		s.ctxCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// ConfigureDownloads creates dir if needed and tells the browser to save
// downloads there without prompting.
func ConfigureDownloads(ctx context.Context, dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve download directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}
	if err := chromedp.Run(ctx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(abs).
			WithEventsEnabled(true),
	); err != nil {
		return "", fmt.Errorf("set download behavior: %w", err)
	}
	return abs, nil
}
