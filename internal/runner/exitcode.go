package runner

import (
	"errors"

	"github.com/cantalupo555/disclosure-report-downloader/internal/browser"
	"github.com/cantalupo555/disclosure-report-downloader/internal/report"
)

// Process exit codes.
const (
	ExitOK             = 0
	ExitError          = 1
	ExitNavigation     = 2
	ExitNoResults      = 3
	ExitPartialFailure = 4
)

// ExitCode maps an outcome to the process exit status.
func ExitCode(out *report.Outcome) int {
	switch {
	case out.Err != nil && errors.Is(out.Err, browser.ErrNavigation):
		return ExitNavigation
	case out.Err != nil:
		return ExitError
	case out.Unique == 0:
		return ExitNoResults
	case out.Failed() > 0:
		return ExitPartialFailure
	default:
		return ExitOK
	}
}
