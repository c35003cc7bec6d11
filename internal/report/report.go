// Package report collects the outcome of a download run and renders the
// final summary.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Failure records one batch item that could not be clicked.
type Failure struct {
	Timestamp time.Time
	ID        string
	Name      string
	Reason    string
}

// Outcome holds the counters of a single run. It is passed explicitly
// through the run and returned to the caller.
type Outcome struct {
	RunID        string
	Strategy     string
	StartTime    time.Time
	EndTime      time.Time
	Found        int
	Unique       int
	Skipped      int // unique links outside the date filter
	Attempted    int
	Succeeded    int
	FallbackUsed bool
	// FallbackFailure is why the fallback search could not be clicked.
	FallbackFailure string
	DownloadDir  string
	TotalSize    int64 // bytes present in DownloadDir when the run finished
	Failures     []Failure
	// Err is the error that ended the run early, if any.
	Err error
}

// New creates an Outcome with StartTime set to now.
func New(runID, strategy string) *Outcome {
	return &Outcome{
		RunID:     runID,
		Strategy:  strategy,
		StartTime: time.Now(),
		Failures:  make([]Failure, 0),
	}
}

// RecordAttempt counts one click attempt.
func (o *Outcome) RecordAttempt() {
	o.Attempted++
}

// RecordSuccess counts one successful click.
func (o *Outcome) RecordSuccess() {
	o.Succeeded++
}

// RecordFailure stores a failed item.
func (o *Outcome) RecordFailure(id, name, reason string) {
	o.Failures = append(o.Failures, Failure{
		Timestamp: time.Now(),
		ID:        id,
		Name:      name,
		Reason:    reason,
	})
}

// Failed returns the number of attempted items that did not succeed.
func (o *Outcome) Failed() int {
	return o.Attempted - o.Succeeded
}

// Finish marks the end of the run and measures the download directory.
func (o *Outcome) Finish() {
	o.EndTime = time.Now()
	if o.DownloadDir != "" {
		o.TotalSize = calculateDirSize(o.DownloadDir)
	}
}

// Duration returns the run duration so far.
func (o *Outcome) Duration() time.Duration {
	if o.EndTime.IsZero() {
		return time.Since(o.StartTime)
	}
	return o.EndTime.Sub(o.StartTime)
}

// Summary returns a one-line description of the outcome.
func (o *Outcome) Summary() string {
	return fmt.Sprintf(
		"%d found, %d unique, %d/%d clicked, %d failed in %s",
		o.Found,
		o.Unique,
		o.Succeeded,
		o.Attempted,
		o.Failed(),
		formatDuration(o.Duration()),
	)
}

func calculateDirSize(dir string) int64 {
	var size int64
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}

func formatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
