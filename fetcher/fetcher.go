// Package fetcher retrieves page HTML over plain HTTP or through a headless
// browser.
package fetcher

import (
	"context"
	"fmt"
	"time"
)

// Fetcher kinds accepted by New.
const (
	TypeHTTP    = "http"
	TypeBrowser = "browser"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Page is a fetched document.
type Page struct {
	URL        string
	HTML       string
	StatusCode int
	Bytes      int64
	FetchedAt  time.Time
}

// Fetcher loads a single URL. Implementations must be closed after use.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
	Close() error
	Type() string
}

// Options configure both fetcher kinds. Browser-only fields are ignored by
// the HTTP fetcher.
type Options struct {
	UserAgent          string
	Timeout            time.Duration
	Headless           bool
	WaitForNetworkIdle bool
	ScrollToBottom     bool
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}

// New builds a fetcher of the given kind. The browser kind launches Chrome
// immediately.
func New(kind string, opts Options) (Fetcher, error) {
	switch kind {
	case TypeHTTP, "":
		return NewHTTPFetcher(opts), nil
	case TypeBrowser:
		return NewBrowserFetcher(opts)
	default:
		return nil, fmt.Errorf("unknown fetcher %q", kind)
	}
}
