package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

// maxListedFailures bounds the failure rows printed in the report.
const maxListedFailures = 5

// Print writes the final report to w.
func (o *Outcome) Print(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("FINAL REPORT")

	t.AppendRow(table.Row{"Run", o.RunID})
	t.AppendRow(table.Row{"Strategy", o.Strategy})
	t.AppendRow(table.Row{"Duration", formatDuration(o.Duration())})
	t.AppendRow(table.Row{"Links found", o.Found})
	t.AppendRow(table.Row{"Unique", o.Unique})
	if o.Skipped > 0 {
		t.AppendRow(table.Row{"Outside date range", o.Skipped})
	}
	switch {
	case o.FallbackUsed:
		t.AppendRow(table.Row{"Fallback search", "used"})
	case o.FallbackFailure != "":
		t.AppendRow(table.Row{"Fallback search", "failed: " + o.FallbackFailure})
	}
	t.AppendRow(table.Row{"Clicked", fmt.Sprintf("%d/%d", o.Succeeded, o.Attempted)})
	if o.DownloadDir != "" {
		t.AppendRow(table.Row{"Download dir", o.DownloadDir})
	}
	if o.TotalSize > 0 {
		t.AppendRow(table.Row{"Total size", formatBytes(o.TotalSize)})
	}

	if len(o.Failures) > 0 {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Failures", len(o.Failures)})
		for i, f := range o.Failures {
			if i >= maxListedFailures {
				t.AppendRow(table.Row{"", fmt.Sprintf("... and %d more", len(o.Failures)-maxListedFailures)})
				break
			}
			t.AppendRow(table.Row{"", fmt.Sprintf("%s: %s", f.Name, f.Reason)})
		}
	}

	fmt.Fprintln(w)
	t.Render()
	fmt.Fprintln(w, o.statusLine())
}

func (o *Outcome) statusLine() string {
	switch {
	case o.Err != nil:
		return color.RedString("✗ run failed: %v", o.Err)
	case o.Unique == 0 && o.FallbackFailure != "":
		return color.YellowString("⚠ no report links found; fallback search failed: %s", o.FallbackFailure)
	case o.Unique == 0:
		return color.YellowString("⚠ no report links found")
	case o.Failed() > 0:
		return color.YellowString("⚠ %d of %d downloads could not be triggered", o.Failed(), o.Attempted)
	default:
		return color.GreenString("✓ all %d downloads triggered", o.Succeeded)
	}
}
