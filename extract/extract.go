// Package extract exposes the small DOM query surface the scrapers need.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document answers selector queries against a parsed page or a subtree of it.
// Queries that match nothing return "" or an empty slice.
type Document interface {
	// Text returns the trimmed text of the first match.
	Text(selector string) string
	// Attr returns the attribute of the first match.
	Attr(selector, attr string) string
	// All returns every match in document order.
	All(selector string) []Element
}

// Element is a single matched node.
type Element interface {
	Text() string
	Attr(name string) string
	// Scope returns a Document rooted at this element, for sub-selectors.
	Scope() Document
}

type selection struct {
	sel *goquery.Selection
}

// Parse builds a Document from raw HTML.
func Parse(html string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return selection{sel: doc.Selection}, nil
}

func (s selection) find(selector string) *goquery.Selection {
	if strings.TrimSpace(selector) == "" {
		return new(goquery.Selection)
	}
	return s.sel.Find(selector)
}

func (s selection) Text(selector string) string {
	return strings.TrimSpace(s.find(selector).First().Text())
}

func (s selection) Attr(selector, attr string) string {
	v, _ := s.find(selector).First().Attr(attr)
	return strings.TrimSpace(v)
}

func (s selection) All(selector string) []Element {
	found := s.find(selector)
	out := make([]Element, 0, found.Length())
	found.Each(func(_ int, item *goquery.Selection) {
		out = append(out, element{sel: item})
	})
	return out
}

type element struct {
	sel *goquery.Selection
}

func (e element) Text() string {
	return strings.TrimSpace(e.sel.Text())
}

func (e element) Attr(name string) string {
	v, _ := e.sel.Attr(name)
	return strings.TrimSpace(v)
}

func (e element) Scope() Document {
	return selection{sel: e.sel}
}
