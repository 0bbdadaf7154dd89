package fetcher

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/interfaces"
)

// ChromeFetcher renders pages with a headless Chrome session scoped to each
// call. No cookies or browser state survive between fetches, so retries stay
// independent.
type ChromeFetcher struct {
	userAgent      string
	headless       bool
	disableSandbox bool
	logger         arbor.ILogger
}

// NewChromeFetcher creates a page fetcher from crawler configuration
func NewChromeFetcher(config *common.CrawlerConfig, logger arbor.ILogger) interfaces.PageFetcher {
	return &ChromeFetcher{
		userAgent:      config.UserAgent,
		headless:       config.Headless,
		disableSandbox: config.DisableSandbox,
		logger:         logger,
	}
}

// Fetch navigates to the URL, waits for the content selector, and returns the
// rendered HTML. The timeout bounds navigation and the selector wait together.
func (f *ChromeFetcher) Fetch(ctx context.Context, url, waitSelector string, timeout time.Duration) (string, error) {
	startTime := time.Now()

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", f.disableSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(f.userAgent),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, allocatorOpts...)
	defer allocatorCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	defer browserCancel()

	runCtx, runCancel := context.WithTimeout(browserCtx, timeout)
	defer runCancel()

	tasks := []chromedp.Action{
		chromedp.Navigate(url),
	}
	if waitSelector != "" {
		tasks = append(tasks, chromedp.WaitVisible(waitSelector, chromedp.ByQuery))
	}

	var html string
	tasks = append(tasks, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(runCtx, tasks...); err != nil {
		fetchErr := &FetchError{
			Kind: classifyError(err),
			URL:  url,
			Err:  err,
		}
		f.logger.Warn().
			Str("url", url).
			Str("kind", string(fetchErr.Kind)).
			Dur("elapsed", time.Since(startTime)).
			Err(err).
			Msg("Page fetch failed")
		return "", fetchErr
	}

	f.logger.Debug().
		Str("url", url).
		Int("html_length", len(html)).
		Dur("elapsed", time.Since(startTime)).
		Msg("Page fetched")

	return html, nil
}

// classifyError maps chromedp failures onto the fetch error taxonomy
func classifyError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetworkError
	}

	msg := err.Error()
	if strings.Contains(msg, "net::ERR_") || strings.Contains(msg, "connection refused") {
		return KindNetworkError
	}

	return KindOther
}
