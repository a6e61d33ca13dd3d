package provider

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripHTML returns the visible text of an HTML fragment with runs of
// whitespace collapsed. Plain text passes through unchanged apart from
// whitespace.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}
	doc.Find("script, style").Remove()
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
