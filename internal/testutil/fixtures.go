package testutil

import (
	"fmt"
	"strings"
)

// SearchControl is the fallback submit button rendered by ResultsPage.
const SearchControl = `<input type="submit" value="Tìm kiếm">`

// ReportRow renders a five-cell results row whose last cell holds a report
// anchor with the given id.
func ReportRow(id, name string) string {
	return DatedRow(id, name, "2024")
}

// DatedRow is ReportRow with published as the text of the fourth cell.
func DatedRow(id, name, published string) string {
	return fmt.Sprintf(`<tr><td>1</td><td>%s</td><td>VNM</td><td>%s</td>`+
		`<td><a id="%s" href="#">PDF</a></td></tr>`, name, published, id)
}

// ShortRow renders a three-cell row that must never count as a report.
func ShortRow(id string) string {
	return fmt.Sprintf(`<tr><td>x</td><td>short</td><td><a id="%s" href="#">PDF</a></td></tr>`, id)
}

// ResultsPage renders the portal page: a search form and a results table.
func ResultsPage(rows ...string) string {
	return `<html><body><form>` + SearchControl + `</form><table>` +
		strings.Join(rows, "") + `</table></body></html>`
}
