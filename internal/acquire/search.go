package acquire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cantalupo555/disclosure-report-downloader/internal/browser"
	"github.com/cantalupo555/disclosure-report-downloader/internal/config"
	"github.com/cantalupo555/disclosure-report-downloader/internal/discovery"
	"github.com/cantalupo555/disclosure-report-downloader/internal/logger"
)

// SearchThenTable enters a code into the portal search form, submits it and
// picks the first document link from the results. It yields at most one
// candidate per run.
type SearchThenTable struct {
	Code          string
	Selectors     config.Selectors
	SearchTimeout time.Duration
	Log           logger.Logger
}

// Name implements Strategy.
func (s *SearchThenTable) Name() string {
	return config.ModeSearch
}

// Acquire implements Strategy.
func (s *SearchThenTable) Acquire(ctx context.Context, page Page) (Result, error) {
	log := s.Log
	if log == nil {
		log = logger.NewNop()
	}

	sel := s.Selectors
	if err := page.WaitFor(ctx, sel.SearchInput, s.SearchTimeout); err != nil {
		return Result{}, navigationError("search input", err)
	}
	if err := page.Type(ctx, sel.SearchInput, s.Code); err != nil {
		return Result{}, fmt.Errorf("enter search code: %w", err)
	}
	if err := page.WaitFor(ctx, sel.SearchButton, s.SearchTimeout); err != nil {
		return Result{}, navigationError("search button", err)
	}

	clicked, err := page.ClickFirst(ctx, sel.SearchButton)
	if err != nil {
		return Result{}, fmt.Errorf("submit search: %w", err)
	}
	if !clicked {
		return Result{}, navigationError("search button", errors.New("vanished before click"))
	}
	log.Info("Search submitted", logger.String("code", s.Code))

	if err := page.WaitFor(ctx, sel.ResultLink, s.SearchTimeout); err != nil {
		return Result{}, navigationError("search results", err)
	}

	html, err := page.Snapshot(ctx)
	if err != nil {
		return Result{}, err
	}
	doc, err := discovery.Parse(html)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Found: doc.Find(sel.DocumentLink).Length(),
		Batch: discovery.FirstDocument(doc, sel.DocumentLink),
	}
	log.Info("Scanned search results", logger.Int("found", res.Found))
	if len(res.Batch) == 0 {
		return res, discovery.ErrEmptyResult
	}
	return res, nil
}

func navigationError(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", browser.ErrNavigation, what, err)
}
