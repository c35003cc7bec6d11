package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/cantalupo555/disclosure-report-downloader/internal/browser"
	"github.com/cantalupo555/disclosure-report-downloader/internal/config"
	"github.com/cantalupo555/disclosure-report-downloader/internal/logger"
)

// chromeSession binds the browser package to the Session interface.
type chromeSession struct {
	*browser.Page
	session *browser.Session
}

func (c *chromeSession) Context() context.Context {
	return c.session.Ctx
}

func (c *chromeSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return browser.Navigate(ctx, url, timeout)
}

func (c *chromeSession) ConfigureDownloads(ctx context.Context, dir string) (string, error) {
	return browser.ConfigureDownloads(ctx, dir)
}

func (c *chromeSession) Close() {
	c.session.Close()
}

// ChromeLauncher launches a local Chrome/Chromium configured by cfg.
func ChromeLauncher(cfg config.BrowserConfig, overall time.Duration, log logger.Logger) Launcher {
	return func(ctx context.Context) (Session, error) {
		opts := browserOptions(cfg, overall)
		if opts.ExecPath == "" {
			if detected := browser.DetectBrowser(); detected != "" {
				opts.ExecPath = detected
				log.Info("Auto-detected browser", logger.String("exec", detected))
			}
		}

		log.Debug("Browser options",
			logger.Bool("headless", opts.Headless),
			logger.Strings("flags", opts.SandboxFlags),
			logger.Duration("timeout", opts.Timeout))

		logf := func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		}
		s, err := browser.New(ctx, opts, logf)
		if err != nil {
			return nil, err
		}
		return &chromeSession{Page: browser.NewPage(), session: s}, nil
	}
}

func browserOptions(cfg config.BrowserConfig, overall time.Duration) browser.Options {
	opts := browser.DefaultOptions()
	opts.ExecPath = cfg.ExecPath
	opts.Headless = cfg.Headless
	opts.UserAgent = cfg.UserAgent
	if cfg.SandboxFlags != nil {
		opts.SandboxFlags = cfg.SandboxFlags
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts.WindowWidth = cfg.WindowWidth
		opts.WindowHeight = cfg.WindowHeight
	}
	if overall > 0 {
		opts.Timeout = overall
	}
	return opts
}
