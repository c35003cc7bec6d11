package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cantalupo555/disclosure-report-downloader/internal/browser"
	"github.com/cantalupo555/disclosure-report-downloader/internal/config"
	"github.com/cantalupo555/disclosure-report-downloader/internal/logger"
	"github.com/cantalupo555/disclosure-report-downloader/internal/report"
	"github.com/cantalupo555/disclosure-report-downloader/internal/testutil"
)

type fakeSession struct {
	*testutil.FakePage
	ctx         context.Context
	navErr      error
	navPanic    bool
	downloadErr error
	events      []string
	closed      int
}

func (f *fakeSession) Context() context.Context { return f.ctx }

func (f *fakeSession) Navigate(_ context.Context, url string, _ time.Duration) error {
	f.events = append(f.events, "navigate "+url)
	if f.navPanic {
		panic("devtools connection lost")
	}
	return f.navErr
}

func (f *fakeSession) ConfigureDownloads(_ context.Context, dir string) (string, error) {
	f.events = append(f.events, "downloads "+dir)
	if f.downloadErr != nil {
		return "", f.downloadErr
	}
	return "/abs/" + dir, nil
}

func (f *fakeSession) ClickAnchor(ctx context.Context, key string) (bool, error) {
	f.events = append(f.events, "click "+key)
	return f.FakePage.ClickAnchor(ctx, key)
}

func (f *fakeSession) Close() { f.closed++ }

type sleeps struct{ delays []time.Duration }

func (s *sleeps) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func newTestRunner(t *testing.T, cfg config.Config, sess *fakeSession) (*Runner, *sleeps) {
	t.Helper()
	sl := &sleeps{}
	launch := func(ctx context.Context) (Session, error) {
		sess.ctx = ctx
		return sess, nil
	}
	r := New(cfg, logger.NewNop(),
		WithLauncher(launch),
		WithSleep(sl.sleep),
		WithRunID(func() string { return "run-test" }),
	)
	return r, sl
}

func TestRun_ValidAndInvalidRows(t *testing.T) {
	sess := &fakeSession{FakePage: testutil.NewFakePage(testutil.ResultsPage(
		testutil.ReportRow("pt9:t1:0:cil4z", "Q1"),
		testutil.ReportRow("pt9:t1:1:cil4z", "Q2"),
		testutil.ShortRow("pt9:t1:5:cil4z"),
		testutil.ReportRow("pt9:t1:2:cil4z", "Q3"),
	))}
	r, sl := newTestRunner(t, config.Default(), sess)

	out := r.Run(context.Background())

	require.NoError(t, out.Err)
	assert.Equal(t, "run-test", out.RunID)
	assert.Equal(t, 3, out.Found)
	assert.Equal(t, 3, out.Unique)
	assert.Equal(t, 3, out.Attempted)
	assert.Equal(t, 3, out.Succeeded)
	assert.Equal(t, "/abs/./downloads", out.DownloadDir)
	assert.Equal(t, []string{"pt9:t1:0:cil4z", "pt9:t1:1:cil4z", "pt9:t1:2:cil4z"}, sess.AnchorClicks)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second, 2 * time.Second}, sl.delays)
	assert.Equal(t, 1, sess.closed)
	assert.Equal(t, ExitOK, ExitCode(out))
	assert.False(t, out.EndTime.IsZero())
}

func TestRun_OrderOfOperations(t *testing.T) {
	sess := &fakeSession{FakePage: testutil.NewFakePage(testutil.ResultsPage(
		testutil.ReportRow("a:cil4z", "A"),
	))}
	cfg := config.Default()
	cfg.TargetURL = "https://portal.example.com/"
	r, _ := newTestRunner(t, cfg, sess)

	r.Run(context.Background())

	assert.Equal(t, []string{
		"navigate https://portal.example.com/",
		"downloads ./downloads",
		"click a:cil4z",
	}, sess.events)
}

func TestRun_DuplicateIDs(t *testing.T) {
	sess := &fakeSession{FakePage: testutil.NewFakePage(testutil.ResultsPage(
		testutil.ReportRow("pt9:t1:0:cil4z", "First"),
		testutil.ReportRow("pt9:t1:0:cil4z", "Second"),
	))}
	r, _ := newTestRunner(t, config.Default(), sess)

	out := r.Run(context.Background())

	require.NoError(t, out.Err)
	assert.Equal(t, 2, out.Found)
	assert.Equal(t, 1, out.Unique)
	assert.Equal(t, 1, out.Attempted)
	assert.Equal(t, []string{"pt9:t1:0:cil4z"}, sess.AnchorClicks)
}

func TestRun_DateFilter(t *testing.T) {
	sess := &fakeSession{FakePage: testutil.NewFakePage(testutil.ResultsPage(
		testutil.DatedRow("a:cil4z", "Old", "20/12/2023"),
		testutil.DatedRow("b:cil4z", "New", "10/02/2024"),
		testutil.DatedRow("c:cil4z", "Undated", "n/a"),
	))}
	cfg := config.Default()
	cfg.Selectors.DateCell = 3
	cfg.Filter.From = "2024-01-01"
	r, _ := newTestRunner(t, cfg, sess)

	out := r.Run(context.Background())

	require.NoError(t, out.Err)
	assert.Equal(t, 3, out.Unique)
	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, 2, out.Attempted)
	assert.Equal(t, []string{"b:cil4z", "c:cil4z"}, sess.AnchorClicks)
	assert.Equal(t, ExitOK, ExitCode(out))
}

func TestRun_FallbackSearchPopulates(t *testing.T) {
	fallback := config.DefaultSelectors().FallbackSearch
	page := testutil.NewFakePage(testutil.ResultsPage())
	page.OnClick[fallback] = func(p *testutil.FakePage) {
		p.SetHTML(testutil.ResultsPage(
			testutil.ReportRow("pt9:t1:0:cil4z", "A"),
			testutil.ReportRow("pt9:t1:1:cil4z", "B"),
		))
	}
	sess := &fakeSession{FakePage: page}
	r, _ := newTestRunner(t, config.Default(), sess)

	out := r.Run(context.Background())

	require.NoError(t, out.Err)
	assert.Equal(t, []string{fallback}, page.Clicks)
	assert.True(t, out.FallbackUsed)
	assert.Equal(t, 2, out.Unique)
	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, ExitOK, ExitCode(out))
}

func TestRun_PartialFailure(t *testing.T) {
	page := testutil.NewFakePage(testutil.ResultsPage(
		testutil.ReportRow("a:cil4z", "A"),
		testutil.ReportRow("b:cil4z", "B"),
		testutil.ReportRow("c:cil4z", "C"),
	))
	page.AnchorErrors["b:cil4z"] = errors.New("Element is not clickable")
	sess := &fakeSession{FakePage: page}
	r, _ := newTestRunner(t, config.Default(), sess)

	out := r.Run(context.Background())

	require.NoError(t, out.Err)
	assert.Equal(t, 3, out.Attempted)
	assert.Equal(t, 2, out.Succeeded)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "B", out.Failures[0].Name)
	assert.Equal(t, []string{"a:cil4z", "b:cil4z", "c:cil4z"}, page.AnchorClicks)
	assert.Equal(t, ExitPartialFailure, ExitCode(out))
}

func TestRun_NoResults(t *testing.T) {
	sess := &fakeSession{FakePage: testutil.NewFakePage(testutil.ResultsPage())}
	r, _ := newTestRunner(t, config.Default(), sess)

	out := r.Run(context.Background())

	require.NoError(t, out.Err)
	assert.Zero(t, out.Unique)
	assert.Zero(t, out.Attempted)
	assert.Len(t, sess.Clicks, 1)
	assert.Equal(t, 1, sess.closed)
	assert.Equal(t, ExitNoResults, ExitCode(out))
}

func TestRun_FallbackControlMissing(t *testing.T) {
	sess := &fakeSession{FakePage: testutil.NewFakePage(`<html><body><table></table></body></html>`)}
	r, _ := newTestRunner(t, config.Default(), sess)

	out := r.Run(context.Background())

	require.NoError(t, out.Err)
	assert.False(t, out.FallbackUsed)
	assert.Equal(t, "search control not present", out.FallbackFailure)
	assert.Equal(t, ExitNoResults, ExitCode(out))
}

func TestRun_NavigationFailure(t *testing.T) {
	sess := &fakeSession{
		FakePage: testutil.NewFakePage(testutil.ResultsPage(testutil.ReportRow("a:cil4z", "A"))),
		navErr:   fmt.Errorf("%w: net::ERR_NAME_NOT_RESOLVED", browser.ErrNavigation),
	}
	r, _ := newTestRunner(t, config.Default(), sess)

	out := r.Run(context.Background())

	require.ErrorIs(t, out.Err, browser.ErrNavigation)
	assert.Empty(t, sess.Waits)
	assert.Empty(t, sess.AnchorClicks)
	assert.Equal(t, 1, sess.closed)
	assert.Equal(t, ExitNavigation, ExitCode(out))
}

func TestRun_TableNeverAppears(t *testing.T) {
	sess := &fakeSession{FakePage: testutil.NewFakePage(`<html><body>maintenance</body></html>`)}
	r, _ := newTestRunner(t, config.Default(), sess)

	out := r.Run(context.Background())

	require.ErrorIs(t, out.Err, browser.ErrNavigation)
	assert.Equal(t, 1, sess.closed)
	assert.Equal(t, ExitNavigation, ExitCode(out))
}

func TestRun_DownloadConfigFailure(t *testing.T) {
	sess := &fakeSession{
		FakePage:    testutil.NewFakePage(testutil.ResultsPage(testutil.ReportRow("a:cil4z", "A"))),
		downloadErr: errors.New("permission denied"),
	}
	r, _ := newTestRunner(t, config.Default(), sess)

	out := r.Run(context.Background())

	require.Error(t, out.Err)
	assert.Empty(t, sess.AnchorClicks)
	assert.Equal(t, 1, sess.closed)
	assert.Equal(t, ExitError, ExitCode(out))
}

func TestRun_PanicStillCloses(t *testing.T) {
	sess := &fakeSession{FakePage: testutil.NewFakePage(""), navPanic: true}
	r, _ := newTestRunner(t, config.Default(), sess)

	out := r.Run(context.Background())

	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "devtools connection lost")
	assert.Equal(t, 1, sess.closed)
	assert.False(t, out.EndTime.IsZero())
	assert.Equal(t, ExitError, ExitCode(out))
}

func TestRun_LaunchFailure(t *testing.T) {
	r := New(config.Default(), logger.NewNop(), WithLauncher(func(context.Context) (Session, error) {
		return nil, errors.New("chrome not found")
	}))

	out := r.Run(context.Background())

	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "chrome not found")
	assert.Equal(t, ExitError, ExitCode(out))
}

func TestRun_SearchMode(t *testing.T) {
	sel := config.DefaultSelectors()
	page := testutil.NewFakePage(`<html><body><input name="txtSearch">` +
		`<input type="image" title="Tìm kiếm"></body></html>`)
	page.OnClick[sel.SearchButton] = func(p *testutil.FakePage) {
		p.SetHTML(`<html><body>
			<a href="/Handlers/DownloadAttachedFile.ashx?id=1">attachment</a>
			<table><tr><td><a href="/docs/q4.pdf">Q4</a></td></tr>
			<tr><td><a href="/docs/q3.pdf">Q3</a></td></tr></table></body></html>`)
	}
	sess := &fakeSession{FakePage: page}

	cfg := config.Default()
	cfg.Mode = config.ModeSearch
	cfg.SearchCode = "VNM"
	r, sl := newTestRunner(t, cfg, sess)

	out := r.Run(context.Background())

	require.NoError(t, out.Err)
	assert.Equal(t, "VNM", page.Typed[sel.SearchInput])
	assert.Equal(t, []string{"/docs/q4.pdf"}, page.AnchorClicks)
	assert.Equal(t, 1, out.Succeeded)
	assert.Equal(t, []time.Duration{cfg.Timeouts.SingleWait}, sl.delays)
	assert.Equal(t, ExitOK, ExitCode(out))
}

func TestRun_UnknownMode(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = "bogus"
	launched := false
	r := New(cfg, logger.NewNop(), WithLauncher(func(context.Context) (Session, error) {
		launched = true
		return nil, errors.New("unreachable")
	}))

	out := r.Run(context.Background())

	require.Error(t, out.Err)
	assert.False(t, launched)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		out  report.Outcome
		want int
	}{
		{"success", report.Outcome{Unique: 2, Attempted: 2, Succeeded: 2}, ExitOK},
		{"navigation", report.Outcome{Err: fmt.Errorf("x: %w", browser.ErrNavigation)}, ExitNavigation},
		{"other error", report.Outcome{Err: errors.New("x"), Unique: 1}, ExitError},
		{"empty", report.Outcome{}, ExitNoResults},
		{"partial", report.Outcome{Unique: 3, Attempted: 3, Succeeded: 1}, ExitPartialFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(&tt.out))
		})
	}
}

func TestBrowserOptions(t *testing.T) {
	cfg := config.Default().Browser
	cfg.ExecPath = "/opt/chrome"
	cfg.Headless = false

	opts := browserOptions(cfg, time.Hour)
	assert.Equal(t, "/opt/chrome", opts.ExecPath)
	assert.False(t, opts.Headless)
	assert.Equal(t, config.DefaultUserAgent, opts.UserAgent)
	assert.Equal(t, cfg.SandboxFlags, opts.SandboxFlags)
	assert.Equal(t, time.Hour, opts.Timeout)

	opts = browserOptions(config.BrowserConfig{}, 0)
	assert.Equal(t, browser.DefaultOptions().SandboxFlags, opts.SandboxFlags)
	assert.Equal(t, 1920, opts.WindowWidth)
	assert.Equal(t, browser.DefaultOptions().Timeout, opts.Timeout)
}
