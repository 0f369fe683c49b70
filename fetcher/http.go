package fetcher

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// HTTPFetcher fetches raw HTML with a colly collector. No JavaScript runs.
type HTTPFetcher struct {
	collector *colly.Collector
	opts      Options
}

// NewHTTPFetcher builds a collector configured from opts.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	opts = opts.withDefaults()

	collector := colly.NewCollector(
		colly.UserAgent(opts.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(opts.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &HTTPFetcher{collector: collector, opts: opts}
}

// WithTransport replaces the underlying round tripper.
func (f *HTTPFetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

// Fetch performs a single GET. Non-2xx responses are returned as typed errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, classifyError(err, 0)
	}

	c := f.collector.Clone()
	var (
		page     *Page
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		page = &Page{
			URL:        r.Request.URL.String(),
			HTML:       string(r.Body),
			StatusCode: r.StatusCode,
			Bytes:      int64(len(r.Body)),
			FetchedAt:  time.Now(),
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = classifyError(err, status)
	})

	done := make(chan error, 1)
	go func() {
		done <- c.Visit(url)
	}()

	select {
	case err := <-done:
		if fetchErr != nil {
			return nil, fetchErr
		}
		if err != nil {
			return nil, classifyError(err, 0)
		}
		if page == nil {
			return nil, ErrConnection{Err: errNoResponse}
		}
		return page, nil
	case <-ctx.Done():
		return nil, classifyError(ctx.Err(), 0)
	}
}

// Close is a no-op; idle connections are owned by the transport.
func (f *HTTPFetcher) Close() error {
	return nil
}

func (f *HTTPFetcher) Type() string {
	return TypeHTTP
}
