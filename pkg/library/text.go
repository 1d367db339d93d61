package library

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// blockElements end a run of words in rendered HTML.
const blockElements = "p, div, li, br, h1, h2, h3, h4, tr"

// Normalize case-folds s, strips diacritics and collapses whitespace so "Zlín" matches "zlin".
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}

// PlainText returns the visible text of an HTML fragment. Plain strings are returned as is.
func PlainText(fragment string) string {
	if !strings.ContainsRune(fragment, '<') {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	var sb strings.Builder
	writeText(&sb, doc.Selection)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// writeText appends the text nodes under sel in document order, separating block elements.
func writeText(sb *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		switch {
		case goquery.NodeName(c) == "#text":
			sb.WriteString(c.Text())
		case c.Is("script, style"):
		case c.Is(blockElements):
			sb.WriteByte(' ')
			writeText(sb, c)
			sb.WriteByte(' ')
		default:
			writeText(sb, c)
		}
	})
}
