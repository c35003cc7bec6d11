// Package download drives the sequential click-and-wait download loop.
package download

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cantalupo555/disclosure-report-downloader/internal/discovery"
	"github.com/cantalupo555/disclosure-report-downloader/internal/logger"
	"github.com/cantalupo555/disclosure-report-downloader/internal/report"
)

// ErrElementNotFound means a candidate no longer resolves in the live page.
var ErrElementNotFound = errors.New("element not found at click time")

// ClickError wraps a failure raised while focusing or clicking one item.
type ClickError struct {
	Name string
	Err  error
}

func (e *ClickError) Error() string {
	return fmt.Sprintf("click %s: %v", e.Name, e.Err)
}

func (e *ClickError) Unwrap() error {
	return e.Err
}

// Clicker resolves a candidate in the live page by key and clicks it.
type Clicker interface {
	ClickAnchor(ctx context.Context, key string) (bool, error)
}

// SleepFunc pauses between items. It returns early with ctx.Err() when ctx ends.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Loop triggers each candidate of a batch once, in order.
type Loop struct {
	Clicker Clicker
	// Delay is the pause after every attempt; it paces requests to the portal.
	Delay time.Duration
	Sleep SleepFunc
	Log   logger.Logger
}

// Run attempts every item in batch and records results on out. A failing
// item never stops the loop; only a cancelled ctx does, in which case the
// remaining items are left unattempted and ctx.Err() is returned.
func (l *Loop) Run(ctx context.Context, batch discovery.Batch, out *report.Outcome) error {
	sleep := l.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	log := l.Log
	if log == nil {
		log = logger.NewNop()
	}

	total := len(batch)
	for i, c := range batch {
		if err := ctx.Err(); err != nil {
			log.Warn("Download loop interrupted",
				logger.Int("attempted", out.Attempted),
				logger.Int("remaining", total-i),
				logger.Error(err))
			return err
		}

		itemLog := log.With(
			logger.String("item", fmt.Sprintf("%d/%d", i+1, total)),
			logger.String("name", c.Name),
			logger.String("id", c.ID),
		)

		out.RecordAttempt()
		if err := l.attempt(ctx, c); err != nil {
			out.RecordFailure(c.ID, c.Name, err.Error())
			itemLog.Warn("✗ Download not triggered", logger.Error(err))
		} else {
			out.RecordSuccess()
			itemLog.Info("✓ Download triggered")
		}

		// A cancelled sleep is reported by the ctx check of the next iteration.
		_ = sleep(ctx, l.Delay)
	}

	log.Info("Download loop completed",
		logger.Int("attempted", out.Attempted),
		logger.Int("succeeded", out.Succeeded))
	return nil
}

// attempt isolates one click: any error or panic from the page is returned
// as a *ClickError instead of escaping the loop.
func (l *Loop) attempt(ctx context.Context, c discovery.Candidate) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ClickError{Name: c.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	clicked, clickErr := l.Clicker.ClickAnchor(ctx, c.Key())
	if clickErr != nil {
		return &ClickError{Name: c.Name, Err: clickErr}
	}
	if !clicked {
		return ErrElementNotFound
	}
	return nil
}
