// Package testutil provides an in-memory page used by package tests in place
// of a real browser.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// FakePage serves a fixed HTML document and records every interaction.
// Selectors are evaluated against the current HTML with goquery, so waits
// and clicks behave like they would on the rendered page.
type FakePage struct {
	mu sync.Mutex

	HTML string
	// URL is reported by CurrentURL.
	URL string
	// OnClick runs after ClickFirst matched the selector key, typically to
	// swap HTML the way a postback would.
	OnClick map[string]func(p *FakePage)
	// ClickErrors makes ClickFirst fail for the given selectors.
	ClickErrors map[string]error
	// AnchorErrors makes ClickAnchor fail for the given keys.
	AnchorErrors map[string]error
	SnapshotErr  error

	Clicks       []string
	AnchorClicks []string
	Waits        []string
	Typed        map[string]string
}

// NewFakePage returns a page serving html.
func NewFakePage(html string) *FakePage {
	return &FakePage{
		HTML:         html,
		OnClick:      map[string]func(*FakePage){},
		ClickErrors:  map[string]error{},
		AnchorErrors: map[string]error{},
		Typed:        map[string]string{},
	}
}

func (p *FakePage) doc() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
}

// WaitFor succeeds when selector matches the current HTML.
func (p *FakePage) WaitFor(_ context.Context, selector string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Waits = append(p.Waits, selector)
	doc, err := p.doc()
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("wait for %q: timed out after %s", selector, timeout)
	}
	return nil
}

// CurrentURL returns URL.
func (p *FakePage) CurrentURL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.URL, nil
}

// Snapshot returns the current HTML.
func (p *FakePage) Snapshot(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.SnapshotErr != nil {
		return "", p.SnapshotErr
	}
	return p.HTML, nil
}

// Type records text against selector.
func (p *FakePage) Type(_ context.Context, selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.doc()
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("type into %q: no such element", selector)
	}
	p.Typed[selector] = text
	return nil
}

// ClickFirst records the click and runs the OnClick hook for selector.
func (p *FakePage) ClickFirst(_ context.Context, selector string) (bool, error) {
	p.mu.Lock()
	p.Clicks = append(p.Clicks, selector)
	if err := p.ClickErrors[selector]; err != nil {
		p.mu.Unlock()
		return false, err
	}
	doc, err := p.doc()
	if err != nil {
		p.mu.Unlock()
		return false, err
	}
	matched := doc.Find(selector).Length() > 0
	hook := p.OnClick[selector]
	p.mu.Unlock()

	if !matched {
		return false, nil
	}
	if hook != nil {
		hook(p)
	}
	return true, nil
}

// ClickAnchor resolves key as an element id, then as an exact anchor href.
func (p *FakePage) ClickAnchor(_ context.Context, key string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.AnchorClicks = append(p.AnchorClicks, key)
	if err := p.AnchorErrors[key]; err != nil {
		return false, err
	}

	doc, err := p.doc()
	if err != nil {
		return false, err
	}

	var resolved *goquery.Selection
	doc.Find("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if id, _ := s.Attr("id"); id == key {
			resolved = s
			return false
		}
		return true
	})
	if resolved == nil {
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if href, _ := s.Attr("href"); href == key {
				resolved = s
				return false
			}
			return true
		})
	}
	return resolved != nil && goquery.NodeName(resolved) == "a", nil
}

// SetHTML replaces the served document.
func (p *FakePage) SetHTML(html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.HTML = html
}
