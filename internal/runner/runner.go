// Package runner orchestrates one download run: bootstrap the browser,
// configure downloads, acquire the batch, click through it and tear down.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cantalupo555/disclosure-report-downloader/internal/acquire"
	"github.com/cantalupo555/disclosure-report-downloader/internal/browser"
	"github.com/cantalupo555/disclosure-report-downloader/internal/config"
	"github.com/cantalupo555/disclosure-report-downloader/internal/discovery"
	"github.com/cantalupo555/disclosure-report-downloader/internal/download"
	"github.com/cantalupo555/disclosure-report-downloader/internal/logger"
	"github.com/cantalupo555/disclosure-report-downloader/internal/report"
)

// Session is a launched browser with its page.
type Session interface {
	acquire.Page
	download.Clicker
	// Context is the context all page operations must run in.
	Context() context.Context
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	CurrentURL(ctx context.Context) (string, error)
	ConfigureDownloads(ctx context.Context, dir string) (string, error)
	Close()
}

// Launcher starts a Session bound to ctx.
type Launcher func(ctx context.Context) (Session, error)

// Runner executes download runs for one configuration.
type Runner struct {
	cfg    config.Config
	log    logger.Logger
	launch Launcher
	sleep  download.SleepFunc
	newID  func() string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLauncher replaces the Chrome launcher.
func WithLauncher(l Launcher) Option {
	return func(r *Runner) { r.launch = l }
}

// WithSleep replaces the pause used between downloads.
func WithSleep(s download.SleepFunc) Option {
	return func(r *Runner) { r.sleep = s }
}

// WithRunID fixes the run identifier generator.
func WithRunID(f func() string) Option {
	return func(r *Runner) { r.newID = f }
}

// New returns a Runner for cfg.
func New(cfg config.Config, log logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:   cfg,
		log:   log,
		sleep: download.Sleep,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.launch == nil {
		r.launch = ChromeLauncher(cfg.Browser, cfg.Timeouts.Overall, r.log)
	}
	return r
}

// Run performs one run and returns its outcome. Fatal errors are stored in
// Outcome.Err; the browser is closed on every path, including panics.
func (r *Runner) Run(ctx context.Context) (out *report.Outcome) {
	runID := r.newID()
	log := r.log.With(logger.String("run_id", runID), logger.String("mode", r.cfg.Mode))
	out = report.New(runID, r.cfg.Mode)

	defer func() {
		if rec := recover(); rec != nil {
			out.Err = fmt.Errorf("unexpected failure: %v", rec)
			log.Error("Run aborted", logger.Error(out.Err))
		}
		out.Finish()
	}()

	strategy, err := acquire.New(r.cfg, log)
	if err != nil {
		out.Err = err
		return out
	}
	dates, err := r.cfg.DateRange()
	if err != nil {
		out.Err = err
		return out
	}

	log.Info("Launching browser", logger.Bool("headless", r.cfg.Browser.Headless))
	sess, err := r.launch(ctx)
	if err != nil {
		out.Err = fmt.Errorf("launch browser: %w", err)
		log.Error("Could not start browser", logger.Error(err))
		return out
	}
	defer func() {
		sess.Close()
		log.Info("Browser closed")
	}()
	ctx = sess.Context()

	log.Info("Opening portal", logger.String("url", r.cfg.TargetURL))
	if err := sess.Navigate(ctx, r.cfg.TargetURL, r.cfg.Timeouts.Navigation); err != nil {
		return r.fail(log, out, err)
	}
	if loc, err := sess.CurrentURL(ctx); err != nil {
		log.Warn("Could not read page location", logger.Error(err))
	} else {
		log.Info("Portal loaded", logger.String("location", loc))
	}

	dir, err := sess.ConfigureDownloads(ctx, r.cfg.DownloadDir)
	if err != nil {
		return r.fail(log, out, err)
	}
	out.DownloadDir = dir
	log.Info("Downloads will be saved", logger.String("dir", dir))

	res, err := strategy.Acquire(ctx, sess)
	out.Found = res.Found
	out.Unique = len(res.Batch)
	out.FallbackUsed = res.FallbackUsed
	out.FallbackFailure = res.FallbackFailure
	switch {
	case errors.Is(err, discovery.ErrEmptyResult):
		log.Warn("No report links found",
			logger.Bool("fallback_used", res.FallbackUsed),
			logger.String("fallback_failure", res.FallbackFailure))
		return out
	case err != nil:
		return r.fail(log, out, err)
	}
	log.Info("Report links discovered",
		logger.Int("found", out.Found),
		logger.Int("unique", out.Unique))

	batch, skipped := dates.Filter(res.Batch)
	if dates.Enabled {
		out.Skipped = len(skipped)
		log.Info("Date filter applied",
			logger.String("range", dates.String()),
			logger.Int("kept", len(batch)),
			logger.Int("skipped", len(skipped)))
		for _, c := range skipped {
			log.Debug("Skipped report outside date range",
				logger.String("name", c.Name),
				logger.String("published", c.Published))
		}
	}

	loop := &download.Loop{
		Clicker: sess,
		Delay:   r.delay(),
		Sleep:   r.sleep,
		Log:     log,
	}
	if err := loop.Run(ctx, batch, out); err != nil {
		return r.fail(log, out, err)
	}
	return out
}

// delay is the pause after each click. Search mode downloads one document
// and waits SingleWait for it to start.
func (r *Runner) delay() time.Duration {
	if r.cfg.Mode == config.ModeSearch {
		return r.cfg.Timeouts.SingleWait
	}
	return r.cfg.Timeouts.ItemDelay
}

func (r *Runner) fail(log logger.Logger, out *report.Outcome, err error) *report.Outcome {
	out.Err = err
	log.Error("Run failed",
		logger.Error(err),
		logger.Bool("browser_closed", browser.IsBrowserClosed(err)))
	return out
}
