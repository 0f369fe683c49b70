package fetcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// networkIdleWait bounds how long Fetch waits for the networkIdle lifecycle
// event after navigation.
const networkIdleWait = 10 * time.Second

const scrollSettle = 500 * time.Millisecond

// BrowserFetcher renders pages in headless Chrome. One browser process serves
// every Fetch; each Fetch uses its own tab.
type BrowserFetcher struct {
	opts          Options
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	closeOnce     sync.Once
}

// NewBrowserFetcher launches Chrome. Launch failures are ErrBrowserLaunch.
func NewBrowserFetcher(opts Options) (*BrowserFetcher, error) {
	opts = opts.withDefaults()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("headless", opts.Headless),
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(1280, 900),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...any) {}))

	// Run with no actions starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, ErrBrowserLaunch{Err: err}
	}

	slog.Debug("browser launched", slog.Bool("headless", opts.Headless))
	return &BrowserFetcher{
		opts:          opts,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Fetch navigates a fresh tab to url and returns the rendered DOM.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, classifyError(err, 0)
	}

	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.opts.Timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	idle := newIdleWatcher()
	if f.opts.WaitForNetworkIdle {
		chromedp.ListenTarget(tabCtx, idle.observe)
		if err := chromedp.Run(tabCtx, page.SetLifecycleEventsEnabled(true)); err != nil {
			return nil, f.fetchError(ctx, err, 0)
		}
	}

	resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(url))
	status := 0
	if resp != nil {
		status = int(resp.Status)
	}
	if err != nil || status >= 400 {
		return nil, f.fetchError(ctx, err, status)
	}

	if f.opts.WaitForNetworkIdle {
		var frame *cdp.Frame
		if err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			frame = tree.Frame
			return nil
		})); err != nil {
			return nil, f.fetchError(ctx, err, 0)
		}
		if !idle.wait(tabCtx, frame.ID, frame.LoaderID, networkIdleWait) {
			if err := tabCtx.Err(); err != nil {
				return nil, f.fetchError(ctx, err, 0)
			}
			slog.Debug("network idle not reached, continuing", slog.String("url", url))
		}
	}

	if f.opts.ScrollToBottom {
		err := chromedp.Run(tabCtx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(scrollSettle),
		)
		if err != nil {
			return nil, f.fetchError(ctx, err, 0)
		}
	}

	var html, finalURL string
	if err := chromedp.Run(tabCtx,
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, f.fetchError(ctx, err, 0)
	}

	return &Page{
		URL:        finalURL,
		HTML:       html,
		StatusCode: status,
		Bytes:      int64(len(html)),
		FetchedAt:  time.Now(),
	}, nil
}

// idleWatcher records networkIdle lifecycle events per frame and loader.
// Events from about:blank or subframes carry other IDs and are ignored by
// wait.
type idleWatcher struct {
	mu     sync.Mutex
	seen   map[idleKey]struct{}
	notify chan struct{}
}

type idleKey struct {
	frame  cdp.FrameID
	loader cdp.LoaderID
}

func newIdleWatcher() *idleWatcher {
	return &idleWatcher{
		seen:   make(map[idleKey]struct{}),
		notify: make(chan struct{}, 1),
	}
}

func (w *idleWatcher) observe(ev any) {
	e, ok := ev.(*page.EventLifecycleEvent)
	if !ok || e.Name != "networkIdle" {
		return
	}
	w.mu.Lock()
	w.seen[idleKey{frame: e.FrameID, loader: e.LoaderID}] = struct{}{}
	w.mu.Unlock()
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *idleWatcher) reached(key idleKey) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.seen[key]
	return ok
}

// wait blocks until frame's document under loader is network idle. It
// returns false on timeout or when ctx is done.
func (w *idleWatcher) wait(ctx context.Context, frame cdp.FrameID, loader cdp.LoaderID, timeout time.Duration) bool {
	key := idleKey{frame: frame, loader: loader}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		if w.reached(key) {
			return true
		}
		select {
		case <-w.notify:
		case <-timer.C:
			return false
		case <-ctx.Done():
			return false
		}
	}
}

// fetchError reports the parent's error when the caller cancelled.
func (f *BrowserFetcher) fetchError(parent context.Context, err error, status int) error {
	if parent.Err() != nil {
		err = parent.Err()
	}
	return classifyError(err, status)
}

// Close shuts the browser down. It is safe to call more than once.
func (f *BrowserFetcher) Close() error {
	f.closeOnce.Do(func() {
		f.browserCancel()
		f.allocCancel()
		slog.Debug("browser closed")
	})
	return nil
}

func (f *BrowserFetcher) Type() string {
	return TypeBrowser
}
