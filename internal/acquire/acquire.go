// Package acquire gets the results page into a scannable state and returns
// the batch of report links to download. Two strategies exist: DirectTable
// for a page that renders results on load, and SearchThenTable for a portal
// that needs a search code first.
package acquire

import (
	"context"
	"fmt"
	"time"

	"github.com/cantalupo555/disclosure-report-downloader/internal/config"
	"github.com/cantalupo555/disclosure-report-downloader/internal/discovery"
	"github.com/cantalupo555/disclosure-report-downloader/internal/logger"
)

// Page is the subset of live page operations acquisition needs.
type Page interface {
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	Snapshot(ctx context.Context) (string, error)
	Type(ctx context.Context, selector, text string) error
	ClickFirst(ctx context.Context, selector string) (bool, error)
}

// Result is what a strategy hands to the download loop.
type Result struct {
	Batch discovery.Batch
	// Found counts matching links before deduplication.
	Found int
	// FallbackUsed is set once the fallback search control was clicked.
	FallbackUsed bool
	// FallbackFailure explains why an attempted fallback search did not click.
	FallbackFailure string
}

// Strategy acquires the batch for one run.
//
// Acquire returns an error wrapping browser.ErrNavigation when a required
// element never appears, and discovery.ErrEmptyResult together with an
// empty Result when the page was reached but holds no report links.
type Strategy interface {
	Name() string
	Acquire(ctx context.Context, page Page) (Result, error)
}

// New returns the strategy selected by cfg.Mode.
func New(cfg config.Config, log logger.Logger) (Strategy, error) {
	switch cfg.Mode {
	case config.ModeDirect:
		return &DirectTable{
			Selectors:      cfg.Selectors,
			TableTimeout:   cfg.Timeouts.Table,
			FallbackSettle: cfg.Timeouts.FallbackSettle,
			Log:            log,
		}, nil
	case config.ModeSearch:
		return &SearchThenTable{
			Code:          cfg.SearchCode,
			Selectors:     cfg.Selectors,
			SearchTimeout: cfg.Timeouts.Search,
			Log:           log,
		}, nil
	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}
