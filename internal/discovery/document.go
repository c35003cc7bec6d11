package discovery

import (
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FirstDocument returns the first anchor matching selector that carries an
// href, as a single-candidate batch. The anchor id is used as the key when
// present, otherwise the raw href attribute. It returns an empty batch when
// nothing matches.
func FirstDocument(doc *goquery.Document, selector string) Batch {
	var batch Batch

	doc.Find(selector).EachWithBreak(func(i int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}

		key, _ := a.Attr("id")
		if key == "" {
			key = href
		}

		name := normalizeText(a.Text())
		if name == "" {
			name = documentName(href)
		}

		batch = Batch{{ID: key, Name: name, Href: href, Row: i + 1}}
		return false
	})

	return batch
}

// documentName derives a display name from the last path segment of href.
func documentName(href string) string {
	p := href
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if base := path.Base(p); base != "." && base != "/" {
		return base
	}
	return "Document 1"
}
