// Package models defines data structures for the scrapers.
package models

import "time"

// Item is a record produced by the content scraper.
type Item struct {
	Title       string       `csv:"title" json:"title"`
	URL         string       `csv:"url" json:"url"`
	Description string       `csv:"description" json:"description,omitempty"`
	ImageURL    string       `csv:"image_url" json:"image_url,omitempty"`
	Timestamp   time.Time    `csv:"timestamp" json:"timestamp"`
	Tags        []string     `csv:"tags" json:"tags"`
	Metadata    ItemMetadata `json:"metadata"`
}

// ItemMetadata describes where an item came from.
type ItemMetadata struct {
	Source        string `json:"source"`
	Author        string `json:"author,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
}

// Violation is a single schema check failure.
type Violation struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

func (v Violation) String() string {
	return v.Field + ": expected " + v.Expected + ", got " + v.Actual
}
