// Package datefilter restricts a batch to reports published inside a date range.
package datefilter

import (
	"fmt"
	"strings"
	"time"

	"github.com/cantalupo555/disclosure-report-downloader/internal/discovery"
)

// DefaultLayout is the day-first date format used by the portal tables.
const DefaultLayout = "02/01/2006"

// bound is the format of the range limits given in configuration.
const bound = "2006-01-02"

// DateRange is an inclusive publication date range.
type DateRange struct {
	From    time.Time
	To      time.Time
	Layout  string
	Enabled bool
}

// NewDateRange creates a DateRange from YYYY-MM-DD limits. Empty limits
// disable filtering; a single limit leaves the other side open. layout is
// the format of dates in the table; empty means DefaultLayout.
func NewDateRange(from, to, layout string) (*DateRange, error) {
	if layout == "" {
		layout = DefaultLayout
	}
	dr := &DateRange{Layout: layout}

	if from == "" && to == "" {
		return dr, nil
	}
	dr.Enabled = true

	if from != "" {
		fromDate, err := time.Parse(bound, from)
		if err != nil {
			return nil, fmt.Errorf("invalid 'from' date format (use YYYY-MM-DD): %w", err)
		}
		dr.From = fromDate
	}
	if to != "" {
		toDate, err := time.Parse(bound, to)
		if err != nil {
			return nil, fmt.Errorf("invalid 'to' date format (use YYYY-MM-DD): %w", err)
		}
		dr.To = toDate
	}

	if !dr.From.IsZero() && !dr.To.IsZero() && dr.From.After(dr.To) {
		return nil, fmt.Errorf("'from' date (%s) is after 'to' date (%s)", from, to)
	}
	return dr, nil
}

// Parse reads a table date. Cells often carry a time after the date, so the
// first field is tried when the whole text does not parse.
func (dr *DateRange) Parse(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if t, err := time.Parse(dr.Layout, text); err == nil {
		return t, nil
	}
	if fields := strings.Fields(text); len(fields) > 1 {
		if t, err := time.Parse(dr.Layout, fields[0]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want layout %s)", text, dr.Layout)
}

// Contains reports whether the date in text lies inside the range.
// It is always true when filtering is disabled.
func (dr *DateRange) Contains(text string) (bool, error) {
	if !dr.Enabled {
		return true, nil
	}
	t, err := dr.Parse(text)
	if err != nil {
		return false, err
	}
	if !dr.From.IsZero() && t.Before(dr.From) {
		return false, nil
	}
	if !dr.To.IsZero() && t.After(dr.To) {
		return false, nil
	}
	return true, nil
}

// Filter splits batch into candidates to download and candidates outside
// the range. Candidates whose date cannot be parsed are kept.
func (dr *DateRange) Filter(batch discovery.Batch) (kept discovery.Batch, skipped []discovery.Candidate) {
	if !dr.Enabled {
		return batch, nil
	}
	kept = make(discovery.Batch, 0, len(batch))
	for _, c := range batch {
		in, err := dr.Contains(c.Published)
		if err != nil || in {
			kept = append(kept, c)
			continue
		}
		skipped = append(skipped, c)
	}
	return kept, skipped
}

// String returns a human-readable representation of the date range.
func (dr *DateRange) String() string {
	if !dr.Enabled {
		return "all dates"
	}
	from, to := "…", "…"
	if !dr.From.IsZero() {
		from = dr.From.Format(bound)
	}
	if !dr.To.IsZero() {
		to = dr.To.Format(bound)
	}
	return fmt.Sprintf("%s to %s", from, to)
}
