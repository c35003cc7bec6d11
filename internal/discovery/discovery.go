// Package discovery finds report download links in a snapshot of the
// rendered results page.
package discovery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrEmptyResult reports that a scan produced no candidates, including after
// the fallback search. It is not fatal to a run.
var ErrEmptyResult = errors.New("no report links found")

// Candidate is a report link pending download.
type Candidate struct {
	// ID is the anchor identifier used to re-resolve the live element at click time.
	ID   string
	Name string
	Href string
	// Published is the raw text of the publication date cell, if configured.
	Published string
	// Row is the 1-based position of the anchor among all matches.
	Row int
}

// Key returns the deduplication key.
func (c Candidate) Key() string {
	return c.ID
}

// Batch is an ordered set of candidates with unique keys.
type Batch []Candidate

// Keys returns the candidate keys in batch order.
func (b Batch) Keys() []string {
	keys := make([]string, len(b))
	for i, c := range b {
		keys[i] = c.Key()
	}
	return keys
}

// Rules describes which anchors count as report links.
type Rules struct {
	LinkSelector string
	MinCells     int
	NameCell     int
	// DateCell is the 0-based cell index holding the publication date.
	// Negative disables date extraction.
	DateCell int
}

// Parse builds a document from an outer-HTML snapshot.
func Parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page snapshot: %w", err)
	}
	return doc, nil
}

// Scan returns one candidate per matching anchor that sits in a table row
// with at least MinCells cells. Rows with fewer cells and anchors without an
// id are skipped. Duplicates are kept; see Dedup.
func Scan(doc *goquery.Document, rules Rules) []Candidate {
	var found []Candidate

	doc.Find(rules.LinkSelector).Each(func(i int, a *goquery.Selection) {
		if goquery.NodeName(a) != "a" {
			return
		}
		id, ok := a.Attr("id")
		if !ok || id == "" {
			return
		}

		row := a.Closest("tr")
		if row.Length() == 0 {
			return
		}
		// Only direct cells: nested tables inside a cell must not inflate the count.
		cells := row.ChildrenFiltered("td")
		if cells.Length() < rules.MinCells {
			return
		}

		name := ""
		if rules.NameCell < cells.Length() {
			name = normalizeText(cells.Eq(rules.NameCell).Text())
		}
		if name == "" {
			name = fmt.Sprintf("Report %d", i+1)
		}

		published := ""
		if rules.DateCell >= 0 && rules.DateCell < cells.Length() {
			published = normalizeText(cells.Eq(rules.DateCell).Text())
		}

		href, _ := a.Attr("href")
		found = append(found, Candidate{
			ID:        id,
			Name:      name,
			Href:      href,
			Published: published,
			Row:       i + 1,
		})
	})

	return found
}

// Dedup keeps the first candidate for each key, preserving order.
func Dedup(candidates []Candidate) Batch {
	seen := make(map[string]struct{}, len(candidates))
	batch := make(Batch, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.Key()]; dup {
			continue
		}
		seen[c.Key()] = struct{}{}
		batch = append(batch, c)
	}
	return batch
}

// Discover parses a snapshot, scans it and deduplicates the result.
// It returns the raw match count alongside the batch.
func Discover(html string, rules Rules) (Batch, int, error) {
	doc, err := Parse(html)
	if err != nil {
		return nil, 0, err
	}
	found := Scan(doc, rules)
	return Dedup(found), len(found), nil
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
