package acquire

import (
	"context"
	"time"

	"github.com/cantalupo555/disclosure-report-downloader/internal/config"
	"github.com/cantalupo555/disclosure-report-downloader/internal/discovery"
	"github.com/cantalupo555/disclosure-report-downloader/internal/logger"
)

// DirectTable waits for the results table that the portal renders on load,
// scans it, and clicks the search control once if the first scan is empty.
type DirectTable struct {
	Selectors    config.Selectors
	TableTimeout time.Duration
	// FallbackSettle bounds the wait for report links after the fallback click.
	FallbackSettle time.Duration
	Log            logger.Logger
}

// Name implements Strategy.
func (d *DirectTable) Name() string {
	return config.ModeDirect
}

// Acquire implements Strategy.
func (d *DirectTable) Acquire(ctx context.Context, page Page) (Result, error) {
	log := d.Log
	if log == nil {
		log = logger.NewNop()
	}

	if err := page.WaitFor(ctx, d.Selectors.Table, d.TableTimeout); err != nil {
		return Result{}, navigationError("results table", err)
	}

	found, err := d.scan(ctx, page)
	if err != nil {
		return Result{}, err
	}
	log.Info("Scanned results table", logger.Int("found", len(found)))

	var res Result
	if len(found) == 0 && d.Selectors.FallbackSearch != "" {
		more, err := d.fallback(ctx, page, log, &res)
		if err != nil {
			return Result{}, err
		}
		found = append(found, more...)
	}

	res.Found = len(found)
	res.Batch = discovery.Dedup(found)
	if len(res.Batch) == 0 {
		return res, discovery.ErrEmptyResult
	}
	return res, nil
}

// fallback clicks the search control exactly once and rescans. A click
// that fails or finds no control leaves res.FallbackUsed false and records
// the reason in res.FallbackFailure.
func (d *DirectTable) fallback(ctx context.Context, page Page, log logger.Logger, res *Result) ([]discovery.Candidate, error) {
	log.Info("No report links found, trying the search control",
		logger.String("selector", d.Selectors.FallbackSearch))

	clicked, err := page.ClickFirst(ctx, d.Selectors.FallbackSearch)
	if err != nil {
		res.FallbackFailure = err.Error()
		log.Warn("Fallback search click failed", logger.Error(err))
		return nil, nil
	}
	if !clicked {
		res.FallbackFailure = "search control not present"
		log.Warn("Fallback search control not present")
		return nil, nil
	}
	res.FallbackUsed = true

	// The postback re-renders the table; a timeout here just means it stayed empty.
	if err := page.WaitFor(ctx, d.Selectors.ReportLink, d.FallbackSettle); err != nil {
		log.Debug("No report links appeared after fallback search", logger.Error(err))
	}

	found, err := d.scan(ctx, page)
	if err != nil {
		return nil, err
	}
	log.Info("Rescanned after fallback search", logger.Int("found", len(found)))
	return found, nil
}

func (d *DirectTable) scan(ctx context.Context, page Page) ([]discovery.Candidate, error) {
	html, err := page.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := discovery.Parse(html)
	if err != nil {
		return nil, err
	}
	return discovery.Scan(doc, d.rules()), nil
}

func (d *DirectTable) rules() discovery.Rules {
	return discovery.Rules{
		LinkSelector: d.Selectors.ReportLink,
		MinCells:     d.Selectors.MinCells,
		NameCell:     d.Selectors.NameCell,
		DateCell:     d.Selectors.DateCell,
	}
}
