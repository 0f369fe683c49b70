package models

import "time"

// RunStats holds the counters of a single scraper run.
type RunStats struct {
	RunID           string    `json:"run_id"`
	Kind            string    `json:"kind"`
	TargetURL       string    `json:"target_url"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	ElapsedSeconds  float64   `json:"elapsed_seconds"`
	PagesVisited    int       `json:"pages_visited"`
	ItemsScraped    int       `json:"items_scraped"`
	LinksFound      int       `json:"links_found,omitempty"`
	ImagesFound     int       `json:"images_found,omitempty"`
	VariantsFound   int       `json:"variants_found,omitempty"`
	ReviewsFound    int       `json:"reviews_found,omitempty"`
	RelatedFound    int       `json:"related_found,omitempty"`
	Errors          int       `json:"errors"`
	Warnings        int       `json:"warnings"`
	BytesDownloaded int64     `json:"bytes_downloaded"`
}

// Result is the outcome of a run as printed by the CLI.
type Result struct {
	Success      bool      `json:"success"`
	ItemsScraped int       `json:"items_scraped"`
	Stats        *RunStats `json:"stats,omitempty"`
	Error        string    `json:"error,omitempty"`
}
