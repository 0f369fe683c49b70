package parser

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DescriptionLimit is the number of runes kept before truncation.
const DescriptionLimit = 200

const ellipsis = "..."

var authorPrefixRe = regexp.MustCompile(`(?i)^by\s+`)

// CleanText collapses runs of whitespace and trims the result.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Truncate cuts text to limit runes and appends "..." when anything was cut.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if limit < 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + ellipsis
}

// StripAuthorPrefix removes a leading "By " from bylines.
func StripAuthorPrefix(author string) string {
	return strings.TrimSpace(authorPrefixRe.ReplaceAllString(CleanText(author), ""))
}

// StripLabel removes a leading "label:" or "label #" from text, ignoring case.
func StripLabel(text, label string) string {
	text = CleanText(text)
	if len(text) <= len(label) || !strings.EqualFold(text[:len(label)], label) {
		return text
	}
	if !strings.ContainsRune(" :#", rune(text[len(label)])) {
		return text
	}
	rest := strings.TrimLeft(text[len(label):], " :#")
	if rest == "" {
		return text
	}
	return rest
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
	"01/02/2006",
	time.RFC1123,
	time.RFC1123Z,
}

// NormalizeDate parses common publication date formats and returns an
// RFC 3339 timestamp. ok is false when no layout matched.
func NormalizeDate(text string) (string, bool) {
	text = CleanText(text)
	if text == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format(time.RFC3339), true
		}
	}
	return "", false
}

// ResolveURL makes href absolute against base. Empty hrefs and in-page anchors
// resolve to "".
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return ""
	}
	return b.ResolveReference(ref).String()
}
