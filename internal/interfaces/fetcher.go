package interfaces

import (
	"context"
	"time"
)

// PageFetcher acquires a page's rendered HTML. The wait selector is the
// content-ready signal; the timeout bounds navigation and the selector wait
// together. Implementations scope one browser session per call.
type PageFetcher interface {
	Fetch(ctx context.Context, url, waitSelector string, timeout time.Duration) (string, error)
}
