package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/extractor"
	"github.com/ternarybob/laboro/internal/interfaces"
	"github.com/ternarybob/laboro/internal/models"
	"github.com/ternarybob/laboro/internal/parser"
)

// Processor executes the two pipeline stages. Workers run it concurrently in
// separate goroutines; all coordination goes through the persisted record's
// status, no in-process locks.
type Processor struct {
	storage      interfaces.StorageManager
	fetcher      interfaces.PageFetcher
	extractor    *extractor.Extractor
	enqueuer     interfaces.TaskEnqueuer
	indexer      interfaces.SearchIndexer
	logger       arbor.ILogger
	fetchRetry   *RetryPolicy
	extractRetry *RetryPolicy

	// Politeness throttle against the source server, one detail fetch per
	// delay interval.
	limiter *rate.Limiter

	baseURL      string
	fetchTimeout time.Duration
}

// NewProcessor wires the stage processor
func NewProcessor(
	storage interfaces.StorageManager,
	fetcher interfaces.PageFetcher,
	ext *extractor.Extractor,
	enqueuer interfaces.TaskEnqueuer,
	indexer interfaces.SearchIndexer,
	config *common.CrawlerConfig,
	logger arbor.ILogger,
) *Processor {
	navTimeout, err := time.ParseDuration(config.NavigationTimeout)
	if err != nil || navTimeout <= 0 {
		navTimeout = 60 * time.Second
	}
	selTimeout, err := time.ParseDuration(config.SelectorTimeout)
	if err != nil || selTimeout <= 0 {
		selTimeout = 30 * time.Second
	}
	politeness, err := time.ParseDuration(config.PolitenessDelay)
	if err != nil || politeness <= 0 {
		politeness = 2 * time.Second
	}

	return &Processor{
		storage:      storage,
		fetcher:      fetcher,
		extractor:    ext,
		enqueuer:     enqueuer,
		indexer:      indexer,
		logger:       logger,
		fetchRetry:   FetchRetryPolicy(),
		extractRetry: ExtractRetryPolicy(),
		limiter:      rate.NewLimiter(rate.Every(politeness), 1),
		baseURL:      config.BaseURL,
		fetchTimeout: navTimeout + selTimeout,
	}
}

// HandleFetch downloads and parses one posting's detail page.
// Registered for TaskTypeFetch.
func (p *Processor) HandleFetch(ctx context.Context, msg *models.TaskMessage) error {
	raw, err := p.storage.RawJobs().Get(ctx, msg.PostNumber)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			// Non-retryable: the record is gone, nothing to mutate
			p.logger.Warn().
				Str("post_number", msg.PostNumber).
				Str("stage", "fetch").
				Msg("Record not found at dispatch time, dropping task")
			return nil
		}
		return fmt.Errorf("failed to load raw job %s: %w", msg.PostNumber, err)
	}

	now := time.Now()
	raw.Status = models.RawJobStatusProcessing
	raw.ProcessingAttempts++
	raw.LastProcessingAttempt = &now
	if err := p.storage.RawJobs().Save(ctx, raw); err != nil {
		return fmt.Errorf("failed to mark fetch start for %s: %w", msg.PostNumber, err)
	}

	html, err := p.fetcher.Fetch(ctx, raw.SourceURL, parser.DetailSelector, p.fetchTimeout)
	if err != nil {
		return p.failStage(ctx, raw, msg, p.fetchRetry, err)
	}

	detail, err := parser.ParseDetail(html, p.baseURL)
	if err != nil {
		return p.failStage(ctx, raw, msg, p.fetchRetry, err)
	}

	raw.PostName = detail.Title
	raw.PostContent = detail.Body
	raw.OrganizationName = detail.Organization()
	raw.LocationCountry = detail.Country()
	raw.LocationCity = detail.City()
	raw.ProcessingError = ""
	prev := models.RawJobStatusProcessing
	raw.Status = models.RawJobStatusDownloaded
	if err := p.storage.RawJobs().Save(ctx, raw); err != nil {
		return fmt.Errorf("failed to save downloaded job %s: %w", msg.PostNumber, err)
	}

	if err := p.dispatch(ctx, raw.PostNumber, Plan(prev, raw.Status, false)); err != nil {
		return err
	}

	// Politeness delay against the source server
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	return nil
}

// HandleExtract runs structured extraction for one downloaded posting.
// Registered for TaskTypeExtract.
func (p *Processor) HandleExtract(ctx context.Context, msg *models.TaskMessage) error {
	raw, err := p.storage.RawJobs().Get(ctx, msg.PostNumber)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			p.logger.Warn().
				Str("post_number", msg.PostNumber).
				Str("stage", "extract").
				Msg("Record not found at dispatch time, dropping task")
			return nil
		}
		return fmt.Errorf("failed to load raw job %s: %w", msg.PostNumber, err)
	}

	now := time.Now()
	raw.Status = models.RawJobStatusProcessing
	raw.LastProcessingAttempt = &now
	if err := p.storage.RawJobs().Save(ctx, raw); err != nil {
		return fmt.Errorf("failed to mark extract start for %s: %w", msg.PostNumber, err)
	}

	ad, org, err := p.extractor.Extract(ctx, raw)
	if err != nil {
		return p.failStage(ctx, raw, msg, p.extractRetry, err)
	}

	if err := p.storage.Advertisements().Save(ctx, ad); err != nil {
		return p.failStage(ctx, raw, msg, p.extractRetry, err)
	}

	raw.JobAdvertisementID = ad.PostNumber
	raw.ProcessingError = ""
	raw.Status = models.RawJobStatusProcessed
	if err := p.storage.RawJobs().Save(ctx, raw); err != nil {
		return fmt.Errorf("failed to mark job %s processed: %w", msg.PostNumber, err)
	}

	// Index push failures do not fail the stage: the record is terminal and
	// a reindex run repairs the document index.
	if p.indexer != nil {
		if err := p.indexer.IndexAdvertisement(ctx, ad, org); err != nil {
			p.logger.Warn().
				Err(err).
				Str("post_number", ad.PostNumber).
				Msg("Failed to push advertisement to search index")
		}
	}

	p.logger.Info().
		Str("post_number", raw.PostNumber).
		Str("organization", org.Name).
		Msg("Posting extracted and stored")

	return nil
}

// Reset is the operator control surface: force a record back to PENDING
// (re-fetch) or DOWNLOADED (re-extract) and enqueue the matching stage.
func (p *Processor) Reset(ctx context.Context, postNumber string, to models.RawJobStatus) error {
	if to != models.RawJobStatusPending && to != models.RawJobStatusDownloaded {
		return fmt.Errorf("reset target must be %s or %s, got %s",
			models.RawJobStatusPending, models.RawJobStatusDownloaded, to)
	}

	raw, err := p.storage.RawJobs().Get(ctx, postNumber)
	if err != nil {
		return fmt.Errorf("failed to load raw job %s: %w", postNumber, err)
	}

	prev := raw.Status
	raw.Status = to
	raw.ProcessingError = ""
	if err := p.storage.RawJobs().Save(ctx, raw); err != nil {
		return fmt.Errorf("failed to reset raw job %s: %w", postNumber, err)
	}

	p.logger.Info().
		Str("post_number", postNumber).
		Str("from", string(prev)).
		Str("to", string(to)).
		Msg("Raw job reset")

	return p.dispatch(ctx, postNumber, Plan(prev, to, false))
}

// RedispatchIdle re-enqueues the matching stage for every record sitting in
// PENDING or DOWNLOADED. Run at worker startup, it recovers records whose
// stage message was lost to an enqueue failure after the record was written.
// Dispatch is at-least-once; a duplicate message re-runs a stage on an
// already-advanced record, which the handlers tolerate.
func (p *Processor) RedispatchIdle(ctx context.Context) (int, error) {
	count := 0

	pending, err := p.storage.RawJobs().ListByStatus(ctx, models.RawJobStatusPending)
	if err != nil {
		return count, fmt.Errorf("failed to list pending jobs: %w", err)
	}
	for _, raw := range pending {
		if err := p.enqueuer.Enqueue(ctx, models.TaskMessage{
			Type:       models.TaskTypeFetch,
			PostNumber: raw.PostNumber,
		}); err != nil {
			return count, fmt.Errorf("failed to redispatch fetch for %s: %w", raw.PostNumber, err)
		}
		count++
	}

	downloaded, err := p.storage.RawJobs().ListByStatus(ctx, models.RawJobStatusDownloaded)
	if err != nil {
		return count, fmt.Errorf("failed to list downloaded jobs: %w", err)
	}
	for _, raw := range downloaded {
		if err := p.enqueuer.Enqueue(ctx, models.TaskMessage{
			Type:       models.TaskTypeExtract,
			PostNumber: raw.PostNumber,
		}); err != nil {
			return count, fmt.Errorf("failed to redispatch extract for %s: %w", raw.PostNumber, err)
		}
		count++
	}

	if count > 0 {
		p.logger.Info().
			Int("redispatched", count).
			Msg("Re-enqueued stages for idle records")
	}
	return count, nil
}

// dispatch enqueues the tasks a transition plan calls for. Fresh tasks start
// with a zero attempt count.
func (p *Processor) dispatch(ctx context.Context, postNumber string, actions []Action) error {
	for _, action := range actions {
		var taskType string
		switch action {
		case ActionEnqueueFetch:
			taskType = models.TaskTypeFetch
		case ActionEnqueueExtract:
			taskType = models.TaskTypeExtract
		default:
			continue
		}

		if err := p.enqueuer.Enqueue(ctx, models.TaskMessage{
			Type:       taskType,
			PostNumber: postNumber,
		}); err != nil {
			return fmt.Errorf("failed to enqueue %s for %s: %w", taskType, postNumber, err)
		}
	}
	return nil
}

// failStage records a stage failure and, while the budget allows, re-enqueues
// the task with exponential backoff. Budget exhaustion leaves the record
// FAILED with the last error preserved until an operator resets it.
func (p *Processor) failStage(ctx context.Context, raw *models.RawJobData, msg *models.TaskMessage, policy *RetryPolicy, stageErr error) error {
	raw.ProcessingError = stageErr.Error()
	raw.Status = models.RawJobStatusFailed
	if err := p.storage.RawJobs().Save(ctx, raw); err != nil {
		p.logger.Error().
			Err(err).
			Str("post_number", raw.PostNumber).
			Msg("Failed to persist stage failure")
	}

	attemptsUsed := msg.Attempt + 1
	if !policy.ShouldRetry(attemptsUsed) {
		p.logger.Error().
			Err(stageErr).
			Str("post_number", raw.PostNumber).
			Str("type", msg.Type).
			Int("attempts", attemptsUsed).
			Msg("Retry budget exhausted, leaving record failed")
		return stageErr
	}

	backoff := policy.CalculateBackoff(msg.Attempt)
	retry := models.TaskMessage{
		Type:       msg.Type,
		PostNumber: msg.PostNumber,
		Attempt:    attemptsUsed,
	}
	if err := p.enqueuer.EnqueueAfter(ctx, retry, backoff); err != nil {
		return fmt.Errorf("failed to enqueue retry for %s: %w", msg.PostNumber, err)
	}

	p.logger.Warn().
		Err(stageErr).
		Str("post_number", raw.PostNumber).
		Str("type", msg.Type).
		Int("attempt", attemptsUsed).
		Dur("backoff", backoff).
		Msg("Stage failed, retry scheduled")

	return stageErr
}
