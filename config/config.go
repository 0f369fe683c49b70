// Package config holds the explicit scraper configuration, its defaults and
// file loading.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/aluiziolira/go-page-scraper/fetcher"
)

// Scraper kinds.
const (
	KindContent = "content"
	KindProduct = "product"
)

// Config is everything a single run needs.
type Config struct {
	URL       string    `json:"url" yaml:"url"`
	Selectors Selectors `json:"selectors" yaml:"selectors"`
	Options   Options   `json:"options" yaml:"options"`
	OutputDir string    `json:"outputDir,omitempty" yaml:"outputDir,omitempty"`
}

// Selectors are CSS queries. An empty selector disables its field.
type Selectors struct {
	Title              string `json:"title,omitempty" yaml:"title,omitempty"`
	ProductTitle       string `json:"productTitle,omitempty" yaml:"productTitle,omitempty"`
	Content            string `json:"content,omitempty" yaml:"content,omitempty"`
	Description        string `json:"description,omitempty" yaml:"description,omitempty"`
	Links              string `json:"links,omitempty" yaml:"links,omitempty"`
	Author             string `json:"author,omitempty" yaml:"author,omitempty"`
	PublishedDate      string `json:"publishedDate,omitempty" yaml:"publishedDate,omitempty"`
	Categories         string `json:"categories,omitempty" yaml:"categories,omitempty"`
	Image              string `json:"image,omitempty" yaml:"image,omitempty"`
	Price              string `json:"price,omitempty" yaml:"price,omitempty"`
	OriginalPrice      string `json:"originalPrice,omitempty" yaml:"originalPrice,omitempty"`
	Images             string `json:"images,omitempty" yaml:"images,omitempty"`
	Variants           string `json:"variants,omitempty" yaml:"variants,omitempty"`
	Reviews            string `json:"reviews,omitempty" yaml:"reviews,omitempty"`
	Rating             string `json:"rating,omitempty" yaml:"rating,omitempty"`
	ReviewCount        string `json:"reviewCount,omitempty" yaml:"reviewCount,omitempty"`
	RatingDistribution string `json:"ratingDistribution,omitempty" yaml:"ratingDistribution,omitempty"`
	SKU                string `json:"sku,omitempty" yaml:"sku,omitempty"`
	Stock              string `json:"stock,omitempty" yaml:"stock,omitempty"`
	Brand              string `json:"brand,omitempty" yaml:"brand,omitempty"`
	Category           string `json:"category,omitempty" yaml:"category,omitempty"`
	RelatedProducts    string `json:"relatedProducts,omitempty" yaml:"relatedProducts,omitempty"`

	Review  ReviewSelectors  `json:"review" yaml:"review"`
	Related RelatedSelectors `json:"related" yaml:"related"`
	Variant VariantSelectors `json:"variant" yaml:"variant"`
}

// ReviewSelectors are evaluated inside each Reviews match.
type ReviewSelectors struct {
	Author string `json:"author,omitempty" yaml:"author,omitempty"`
	Rating string `json:"rating,omitempty" yaml:"rating,omitempty"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	Body   string `json:"body,omitempty" yaml:"body,omitempty"`
	Date   string `json:"date,omitempty" yaml:"date,omitempty"`
}

// RelatedSelectors are evaluated inside each RelatedProducts match.
type RelatedSelectors struct {
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Link  string `json:"link,omitempty" yaml:"link,omitempty"`
	Price string `json:"price,omitempty" yaml:"price,omitempty"`
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}

// VariantSelectors are evaluated inside each Variants match.
type VariantSelectors struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	Price string `json:"price,omitempty" yaml:"price,omitempty"`
}

// Options tune a run. Delay, RandomDelay and Timeout are milliseconds.
type Options struct {
	MaxLinks           int    `json:"maxLinks" yaml:"maxLinks"`
	MaxImages          int    `json:"maxImages" yaml:"maxImages"`
	MaxReviews         int    `json:"maxReviews" yaml:"maxReviews"`
	MaxRelatedProducts int    `json:"maxRelatedProducts" yaml:"maxRelatedProducts"`
	Delay              int    `json:"delay" yaml:"delay"`
	RandomDelay        int    `json:"randomDelay" yaml:"randomDelay"`
	Timeout            int    `json:"timeout" yaml:"timeout"`
	Headless           bool   `json:"headless" yaml:"headless"`
	Currency           string `json:"currency,omitempty" yaml:"currency,omitempty"`
	ScrollToBottom     bool   `json:"scrollToBottom" yaml:"scrollToBottom"`
	WaitForNetworkIdle bool   `json:"waitForNetworkIdle" yaml:"waitForNetworkIdle"`
	UserAgent          string `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	AssumeInStock      bool   `json:"assumeInStock" yaml:"assumeInStock"`
	Fetcher            string `json:"fetcher,omitempty" yaml:"fetcher,omitempty"`
	DedupeMaxSize      int    `json:"dedupeMaxSize" yaml:"dedupeMaxSize"`
	BatchSize          int    `json:"batchSize" yaml:"batchSize"`
}

// DelayDuration is the fixed pause after extraction.
func (o Options) DelayDuration() time.Duration {
	return time.Duration(o.Delay) * time.Millisecond
}

// RandomDelayDuration is the upper bound of the jitter added to the delay.
func (o Options) RandomDelayDuration() time.Duration {
	return time.Duration(o.RandomDelay) * time.Millisecond
}

// TimeoutDuration bounds a single fetch.
func (o Options) TimeoutDuration() time.Duration {
	return time.Duration(o.Timeout) * time.Millisecond
}

// FetcherOptions maps the run options onto fetcher options.
func (o Options) FetcherOptions() fetcher.Options {
	return fetcher.Options{
		UserAgent:          o.UserAgent,
		Timeout:            o.TimeoutDuration(),
		Headless:           o.Headless,
		WaitForNetworkIdle: o.WaitForNetworkIdle,
		ScrollToBottom:     o.ScrollToBottom,
	}
}

func defaultOptions() Options {
	return Options{
		MaxLinks:           5,
		MaxImages:          10,
		MaxReviews:         10,
		MaxRelatedProducts: 5,
		Delay:              1000,
		Timeout:            30000,
		Headless:           true,
		Currency:           "USD",
		UserAgent:          fetcher.DefaultUserAgent,
		AssumeInStock:      true,
		Fetcher:            fetcher.TypeHTTP,
		DedupeMaxSize:      1024,
		BatchSize:          50,
	}
}

// DefaultContentConfig returns defaults for the content scraper: plain HTTP
// fetch and a 0.5-2s pause after extraction.
func DefaultContentConfig() *Config {
	opts := defaultOptions()
	opts.Delay = 500
	opts.RandomDelay = 1500
	return &Config{
		URL: "https://example.com",
		Selectors: Selectors{
			Title:         "h1",
			Content:       "div.content",
			Links:         "a",
			Author:        `[rel="author"], .author, .byline`,
			PublishedDate: "time[datetime], .published, .date",
			Categories:    `.category, .tags a, a[rel="tag"]`,
			Image:         `meta[property="og:image"]`,
		},
		Options:   opts,
		OutputDir: "./output",
	}
}

// DefaultProductConfig returns defaults for the product scraper: rendered in
// a headless browser, scrolled and waited until the network is idle.
func DefaultProductConfig() *Config {
	opts := defaultOptions()
	opts.Fetcher = fetcher.TypeBrowser
	opts.ScrollToBottom = true
	opts.WaitForNetworkIdle = true
	return &Config{
		URL: "https://example.com/product",
		Selectors: Selectors{
			ProductTitle:       "h1.product-title, h1",
			Price:              `.price, [itemprop="price"]`,
			OriginalPrice:      ".original-price, .was-price, del",
			Description:        `.product-description, [itemprop="description"]`,
			Images:             ".product-gallery img, .product-images img",
			Variants:           ".variant, .swatch",
			Reviews:            ".review",
			Rating:             `.rating, [itemprop="ratingValue"]`,
			ReviewCount:        `.review-count, [itemprop="reviewCount"]`,
			RatingDistribution: ".rating-histogram tr, .rating-bar",
			SKU:                `.sku, [itemprop="sku"]`,
			Stock:              ".stock, .availability",
			Brand:              `.brand, [itemprop="brand"]`,
			Category:           ".breadcrumb li:last-child, .category",
			RelatedProducts:    ".related-products .product",
			Review: ReviewSelectors{
				Author: ".review-author, .author",
				Rating: ".review-rating, .rating",
				Title:  ".review-title",
				Body:   ".review-body, .review-text",
				Date:   ".review-date, time",
			},
			Related: RelatedSelectors{
				Title: ".product-title, h3, h4",
				Link:  "a",
				Price: ".price",
				Image: "img",
			},
			Variant: VariantSelectors{
				Name:  ".variant-name, label",
				Value: ".variant-value",
				Price: ".variant-price",
			},
		},
		Options:   opts,
		OutputDir: "./output",
	}
}

// Default returns the defaults for a scraper kind.
func Default(kind string) (*Config, error) {
	switch kind {
	case KindContent:
		return DefaultContentConfig(), nil
	case KindProduct:
		return DefaultProductConfig(), nil
	default:
		return nil, fmt.Errorf("unknown scraper kind %q", kind)
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url cannot be empty")
	}

	parsedURL, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("url must use http or https")
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("url must include a host")
	}

	o := c.Options
	if o.MaxLinks < 0 {
		return fmt.Errorf("max links cannot be negative")
	}
	if o.MaxImages < 0 {
		return fmt.Errorf("max images cannot be negative")
	}
	if o.MaxReviews < 0 {
		return fmt.Errorf("max reviews cannot be negative")
	}
	if o.MaxRelatedProducts < 0 {
		return fmt.Errorf("max related products cannot be negative")
	}
	if o.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if o.RandomDelay < 0 {
		return fmt.Errorf("random delay cannot be negative")
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if o.Fetcher != fetcher.TypeHTTP && o.Fetcher != fetcher.TypeBrowser {
		return fmt.Errorf("fetcher must be %s or %s", fetcher.TypeHTTP, fetcher.TypeBrowser)
	}
	if o.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if o.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if o.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}

	return nil
}
