package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// runFunc executes chromedp actions; chromedp.Run outside of tests.
type runFunc func(ctx context.Context, actions ...chromedp.Action) error

// Page runs the operations used by result acquisition and the download loop
// against the tab bound to the context each method receives.
type Page struct {
	run runFunc
}

// NewPage returns a Page driving the browser tab carried by its contexts.
func NewPage() *Page {
	return &Page{run: chromedp.Run}
}

// WaitFor waits until selector matches an element in the DOM.
func (p *Page) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

// Snapshot returns the outer HTML of the live document.
func (p *Page) Snapshot(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.Evaluate(`document.documentElement.outerHTML`, &html)); err != nil {
		return "", fmt.Errorf("snapshot page: %w", err)
	}
	return html, nil
}

// CurrentURL returns the address of the loaded document, after redirects.
func (p *Page) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := p.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("read page location: %w", err)
	}
	return url, nil
}

// Type focuses the first element matching selector and types text into it.
func (p *Page) Type(ctx context.Context, selector, text string) error {
	if err := p.run(ctx,
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("type into %q: %w", selector, err)
	}
	return nil
}

// clickFirstJS clicks the first element matching the selector argument.
const clickFirstJS = `(function(selector) {
	const el = document.querySelector(selector);
	if (!el) {
		return false;
	}
	el.click();
	return true;
})(%s)`

// ClickFirst clicks the first element matching selector. It reports false
// when nothing matches.
func (p *Page) ClickFirst(ctx context.Context, selector string) (bool, error) {
	expr, err := script(clickFirstJS, selector)
	if err != nil {
		return false, err
	}
	var clicked bool
	if err := p.run(ctx, chromedp.Evaluate(expr, &clicked)); err != nil {
		return false, fmt.Errorf("click %q: %w", selector, err)
	}
	return clicked, nil
}

// clickAnchorJS resolves an anchor by id, or by exact href when no element
// has that id, and clicks it.
const clickAnchorJS = `(function(key) {
	let el = document.getElementById(key);
	if (!el) {
		for (const a of document.querySelectorAll('a[href]')) {
			if (a.getAttribute('href') === key) {
				el = a;
				break;
			}
		}
	}
	if (!el || el.tagName !== 'A') {
		return false;
	}
	el.focus();
	el.click();
	return true;
})(%s)`

// ClickAnchor resolves the live anchor by id, or by an exact href match when
// no element has that id, then focuses and clicks it so the page's own
// handler starts the download. It reports false when no anchor resolves.
func (p *Page) ClickAnchor(ctx context.Context, key string) (bool, error) {
	expr, err := script(clickAnchorJS, key)
	if err != nil {
		return false, err
	}
	var clicked bool
	if err := p.run(ctx, chromedp.Evaluate(expr, &clicked)); err != nil {
		return false, err
	}
	return clicked, nil
}

// script fills the single argument of an IIFE template with arg as a JSON
// string literal, so ids and selectors with quotes stay intact.
func script(tmpl, arg string) (string, error) {
	quoted, err := json.Marshal(arg)
	if err != nil {
		return "", fmt.Errorf("encode script argument: %w", err)
	}
	return fmt.Sprintf(tmpl, quoted), nil
}
