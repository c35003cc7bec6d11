package browser

import (
	"context"
	"errors"
	"strings"
)

// ErrNavigation marks a failed page load or a required element that never
// appeared. It is fatal to a run.
var ErrNavigation = errors.New("navigation failed")

// closedPatterns are error texts chromedp produces once the browser is gone.
var closedPatterns = []string{
	"context canceled",
	"context deadline exceeded",
	"websocket: close",
	"target closed",
	"browser: not connected",
	"session closed",
	"page closed",
	"connection refused",
	"broken pipe",
}

// IsBrowserClosed checks if an error indicates the browser was closed or the
// session expired, as opposed to a page-level failure.
func IsBrowserClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range closedPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
