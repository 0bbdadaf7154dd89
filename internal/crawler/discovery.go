package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/interfaces"
	"github.com/ternarybob/laboro/internal/models"
	"github.com/ternarybob/laboro/internal/parser"
	"github.com/ternarybob/laboro/internal/pipeline"
)

// ScanResult summarizes one discovery scan
type ScanResult struct {
	PagesScanned int
	NewRecords   int
}

// Discovery runs the paginated listing crawl that finds new postings.
// Scanning is sequential per source: page N+1 is only fetched once page N is
// known not to have exhausted the new items.
type Discovery struct {
	storage      interfaces.StorageManager
	fetcher      interfaces.PageFetcher
	enqueuer     interfaces.TaskEnqueuer
	logger       arbor.ILogger
	baseURL      string
	sourceName   string
	defaultPages int
	fetchTimeout time.Duration
}

// NewDiscovery creates a discovery service from crawler configuration
func NewDiscovery(
	storage interfaces.StorageManager,
	fetcher interfaces.PageFetcher,
	enqueuer interfaces.TaskEnqueuer,
	config *common.CrawlerConfig,
	logger arbor.ILogger,
) *Discovery {
	navTimeout, err := time.ParseDuration(config.NavigationTimeout)
	if err != nil || navTimeout <= 0 {
		navTimeout = 60 * time.Second
	}
	selTimeout, err := time.ParseDuration(config.SelectorTimeout)
	if err != nil || selTimeout <= 0 {
		selTimeout = 30 * time.Second
	}

	defaultPages := config.DefaultPages
	if defaultPages <= 0 {
		defaultPages = 5
	}

	return &Discovery{
		storage:      storage,
		fetcher:      fetcher,
		enqueuer:     enqueuer,
		logger:       logger,
		baseURL:      config.BaseURL,
		sourceName:   config.SourceName,
		defaultPages: defaultPages,
		fetchTimeout: navTimeout + selTimeout,
	}
}

// Scan walks up to maxPages listing pages, creates PENDING records for unseen
// postings and enqueues their fetch stage. A page that fails to render is
// logged and skipped; the scan carries on so partial progress is kept.
func (d *Discovery) Scan(ctx context.Context, maxPages int) (*ScanResult, error) {
	if maxPages <= 0 {
		maxPages = d.defaultPages
	}

	cursor, err := d.storage.Cursors().Get(ctx, d.sourceName)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("failed to load crawl cursor: %w", err)
		}
		cursor = &models.CrawlCursor{SourceName: d.sourceName}
	}

	d.logger.Info().
		Str("source", d.sourceName).
		Str("last_seen", cursor.LastSeenIdentifier).
		Int("max_pages", maxPages).
		Msg("Starting discovery scan")

	result := &ScanResult{}
	newLastSeen := ""
	lastError := ""
	ingestFailed := false

	for page := 1; page <= maxPages; page++ {
		pageURL := parser.PageURL(d.baseURL, page)

		html, err := d.fetcher.Fetch(ctx, pageURL, parser.ListingSelector, d.fetchTimeout)
		if err != nil {
			lastError = err.Error()
			d.logger.Warn().
				Err(err).
				Str("url", pageURL).
				Int("page", page).
				Msg("Listing page failed to render, skipping")
			continue
		}

		candidates, err := parser.ParseListing(html, d.baseURL)
		if err != nil {
			lastError = err.Error()
			d.logger.Warn().
				Err(err).
				Str("url", pageURL).
				Int("page", page).
				Msg("Listing page failed to parse, skipping")
			continue
		}

		result.PagesScanned++

		// The newest item overall heads the first page that yields anything
		if newLastSeen == "" && len(candidates) > 0 {
			newLastSeen = candidates[0].Identifier
		}

		fresh := parser.ApplyCursor(candidates, cursor.LastSeenIdentifier)
		for _, candidate := range fresh {
			created, err := d.ingest(ctx, candidate)
			if err != nil {
				ingestFailed = true
				lastError = err.Error()
				d.logger.Warn().
					Err(err).
					Str("post_number", candidate.Identifier).
					Msg("Failed to ingest candidate")
				continue
			}
			if created {
				result.NewRecords++
			}
		}

		d.logger.Debug().
			Int("page", page).
			Int("candidates", len(candidates)).
			Int("fresh", len(fresh)).
			Msg("Listing page scanned")

		// A short page means the source ran out of new items. The page size
		// is an observed constant of the source, not a published contract.
		if len(fresh) < parser.PageSize {
			break
		}
	}

	// A failed ingest holds the cursor where it was: advancing it would
	// truncate the failed posting out of every future scan. The next scan
	// re-lists the window; already-created neighbours dedupe, the failed one
	// gets another ingest attempt.
	if newLastSeen != "" && !ingestFailed {
		cursor.LastSeenIdentifier = newLastSeen
	}
	cursor.LastCrawlTime = time.Now()
	cursor.TotalItemsSeen += result.NewRecords
	cursor.LastError = lastError
	if err := d.storage.Cursors().Save(ctx, cursor); err != nil {
		return result, fmt.Errorf("failed to save crawl cursor: %w", err)
	}

	d.logger.Info().
		Int("pages_scanned", result.PagesScanned).
		Int("new_records", result.NewRecords).
		Str("last_seen", cursor.LastSeenIdentifier).
		Msg("Discovery scan finished")

	return result, nil
}

// ingest creates the PENDING record for one candidate and enqueues its fetch
// stage. Already-known post numbers are skipped without error.
func (d *Discovery) ingest(ctx context.Context, candidate parser.Candidate) (bool, error) {
	raw := &models.RawJobData{
		PostNumber: candidate.Identifier,
		SourceURL:  candidate.SourceURL,
		Status:     models.RawJobStatusPending,
		CrawledAt:  time.Now(),
	}

	if err := d.storage.RawJobs().Create(ctx, raw); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}

	for _, action := range pipeline.Plan("", raw.Status, true) {
		if action != pipeline.ActionEnqueueFetch {
			continue
		}
		if err := d.enqueuer.Enqueue(ctx, models.TaskMessage{
			Type:       models.TaskTypeFetch,
			PostNumber: raw.PostNumber,
		}); err != nil {
			return true, fmt.Errorf("record created but fetch enqueue failed: %w", err)
		}
	}

	return true, nil
}
