package config

import (
	"errors"
	"fmt"
)

// Selectors isolates every piece of site markup the downloader depends on.
// When the portal changes its HTML only these values need to change.
type Selectors struct {
	// Table is the results table awaited in direct mode.
	Table string `mapstructure:"table"`
	// ReportLink matches report download anchors; the portal generates their
	// ids, and the "cil4z" fragment is the only stable part.
	ReportLink string `mapstructure:"report_link"`
	// FallbackSearch is the submit control clicked once when the first scan is empty.
	FallbackSearch string `mapstructure:"fallback_search"`
	// MinCells is the minimum number of td cells in a report row.
	MinCells int `mapstructure:"min_cells"`
	// NameCell is the 0-based cell index holding the report name.
	NameCell int `mapstructure:"name_cell"`
	// DateCell is the 0-based cell index holding the publication date used
	// by the date filter. Negative means the table has no date column.
	DateCell int `mapstructure:"date_cell"`

	SearchInput  string `mapstructure:"search_input"`
	SearchButton string `mapstructure:"search_button"`
	ResultLink   string `mapstructure:"result_link"`
	DocumentLink string `mapstructure:"document_link"`
}

// DefaultSelectors returns the selectors matching the disclosure portal markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Table:          "table",
		ReportLink:     `a[id*="cil4z"]`,
		FallbackSearch: `input[type="submit"][value="Tìm kiếm"]`,
		MinCells:       5,
		NameCell:       1,
		DateCell:       -1,

		SearchInput:  `input[name="txtSearch"]`,
		SearchButton: `input[type="image"][title="Tìm kiếm"]`,
		ResultLink:   `a[href*="/Handlers/DownloadAttachedFile.ashx"]`,
		DocumentLink: `table a[href$=".pdf"]`,
	}
}

// asMap returns the string-valued selectors keyed by their config names.
func (s Selectors) asMap() map[string]string {
	return map[string]string{
		"table":           s.Table,
		"report_link":     s.ReportLink,
		"fallback_search": s.FallbackSearch,
		"search_input":    s.SearchInput,
		"search_button":   s.SearchButton,
		"result_link":     s.ResultLink,
		"document_link":   s.DocumentLink,
	}
}

// Validate checks that the selectors required by mode are present.
func (s Selectors) Validate(mode string) error {
	required := []string{"table", "report_link"}
	if mode == ModeSearch {
		required = []string{"search_input", "search_button", "result_link", "document_link"}
	}
	m := s.asMap()
	for _, key := range required {
		if m[key] == "" {
			return fmt.Errorf("selectors.%s must not be empty in %s mode", key, mode)
		}
	}
	if s.MinCells < 1 {
		return errors.New("selectors.min_cells must be at least 1")
	}
	if s.NameCell < 0 {
		return errors.New("selectors.name_cell must not be negative")
	}
	return nil
}
