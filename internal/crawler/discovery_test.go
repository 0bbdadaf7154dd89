package crawler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/interfaces"
	"github.com/ternarybob/laboro/internal/models"
	"github.com/ternarybob/laboro/internal/parser"
)

type fakeRawJobs struct {
	jobs map[string]*models.RawJobData
	// One-shot create failures by post number
	createErrs map[string]error
}

func (f *fakeRawJobs) Create(ctx context.Context, job *models.RawJobData) error {
	if err, ok := f.createErrs[job.PostNumber]; ok {
		delete(f.createErrs, job.PostNumber)
		return err
	}
	if _, ok := f.jobs[job.PostNumber]; ok {
		return interfaces.ErrDuplicate
	}
	f.jobs[job.PostNumber] = job
	return nil
}

func (f *fakeRawJobs) Save(ctx context.Context, job *models.RawJobData) error {
	f.jobs[job.PostNumber] = job
	return nil
}

func (f *fakeRawJobs) Get(ctx context.Context, postNumber string) (*models.RawJobData, error) {
	job, ok := f.jobs[postNumber]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return job, nil
}

func (f *fakeRawJobs) ListByStatus(ctx context.Context, status models.RawJobStatus) ([]*models.RawJobData, error) {
	var out []*models.RawJobData
	for _, job := range f.jobs {
		if job.Status == status {
			out = append(out, job)
		}
	}
	return out, nil
}

func (f *fakeRawJobs) CountByStatus(ctx context.Context, status models.RawJobStatus) (int, error) {
	jobs, _ := f.ListByStatus(ctx, status)
	return len(jobs), nil
}

type fakeCursors struct {
	cursors map[string]*models.CrawlCursor
}

func (f *fakeCursors) Get(ctx context.Context, sourceName string) (*models.CrawlCursor, error) {
	cursor, ok := f.cursors[sourceName]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return cursor, nil
}

func (f *fakeCursors) Save(ctx context.Context, cursor *models.CrawlCursor) error {
	f.cursors[cursor.SourceName] = cursor
	return nil
}

type fakeStorage struct {
	rawJobs *fakeRawJobs
	cursors *fakeCursors
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		rawJobs: &fakeRawJobs{
			jobs:       make(map[string]*models.RawJobData),
			createErrs: make(map[string]error),
		},
		cursors: &fakeCursors{cursors: make(map[string]*models.CrawlCursor)},
	}
}

func (f *fakeStorage) RawJobs() interfaces.RawJobStorage               { return f.rawJobs }
func (f *fakeStorage) Advertisements() interfaces.AdvertisementStorage { return nil }
func (f *fakeStorage) Organizations() interfaces.OrganizationStorage   { return nil }
func (f *fakeStorage) Cursors() interfaces.CursorStorage               { return f.cursors }
func (f *fakeStorage) Close() error                                    { return nil }

type fakeFetcher struct {
	pages map[string]string
	errs  map[string]error
	urls  []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, waitSelector string, timeout time.Duration) (string, error) {
	f.urls = append(f.urls, url)
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	html, ok := f.pages[url]
	if !ok {
		return "", errors.New("page not served")
	}
	return html, nil
}

type fakeEnqueuer struct {
	tasks []models.TaskMessage
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, msg models.TaskMessage) error {
	f.tasks = append(f.tasks, msg)
	return nil
}

func (f *fakeEnqueuer) EnqueueAfter(ctx context.Context, msg models.TaskMessage, delay time.Duration) error {
	f.tasks = append(f.tasks, msg)
	return nil
}

const baseURL = "https://unjobs.org"

func listingHTML(ids ...string) string {
	html := "<html><body><article>"
	for _, id := range ids {
		html += fmt.Sprintf(`<div class="job" id="%s"><a class="jtitle" href="/vacancies/%s">Posting %s</a></div>`, id, id, id)
	}
	html += "</article></body></html>"
	return html
}

func idRange(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%03d", prefix, i)
	}
	return ids
}

func newTestDiscovery() (*Discovery, *fakeStorage, *fakeFetcher, *fakeEnqueuer) {
	storage := newFakeStorage()
	fetcher := &fakeFetcher{pages: make(map[string]string), errs: make(map[string]error)}
	enqueuer := &fakeEnqueuer{}

	config := &common.CrawlerConfig{
		BaseURL:           baseURL,
		SourceName:        "unjobs",
		DefaultPages:      5,
		NavigationTimeout: "1s",
		SelectorTimeout:   "1s",
	}

	return NewDiscovery(storage, fetcher, enqueuer, config, arbor.NewLogger()), storage, fetcher, enqueuer
}

func TestScanCreatesAndEnqueues(t *testing.T) {
	d, storage, fetcher, enqueuer := newTestDiscovery()
	fetcher.pages[baseURL] = listingHTML("111", "222", "333")

	result, err := d.Scan(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 1, result.PagesScanned, "a short page ends the scan")
	assert.Equal(t, 3, result.NewRecords)
	assert.Len(t, fetcher.urls, 1)

	raw, err := storage.rawJobs.Get(context.Background(), "111")
	require.NoError(t, err)
	assert.Equal(t, models.RawJobStatusPending, raw.Status)
	assert.Equal(t, baseURL+"/vacancies/111", raw.SourceURL)
	assert.False(t, raw.CrawledAt.IsZero())

	require.Len(t, enqueuer.tasks, 3)
	assert.Equal(t, models.TaskTypeFetch, enqueuer.tasks[0].Type)

	cursor := storage.cursors.cursors["unjobs"]
	require.NotNil(t, cursor)
	assert.Equal(t, "111", cursor.LastSeenIdentifier, "newest item heads the first page")
	assert.Equal(t, 3, cursor.TotalItemsSeen)
}

func TestScanSkipsKnownRecords(t *testing.T) {
	d, storage, fetcher, enqueuer := newTestDiscovery()
	fetcher.pages[baseURL] = listingHTML("111", "222", "333")
	storage.rawJobs.jobs["222"] = &models.RawJobData{PostNumber: "222", Status: models.RawJobStatusProcessed}

	result, err := d.Scan(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 2, result.NewRecords)
	assert.Len(t, enqueuer.tasks, 2)
	// The known record keeps its status
	assert.Equal(t, models.RawJobStatusProcessed, storage.rawJobs.jobs["222"].Status)
}

func TestScanTwiceCreatesNoDuplicates(t *testing.T) {
	d, storage, fetcher, enqueuer := newTestDiscovery()
	fetcher.pages[baseURL] = listingHTML("12345", "222")

	_, err := d.Scan(context.Background(), 5)
	require.NoError(t, err)

	// Rewind the cursor so the second scan sees every candidate again
	delete(storage.cursors.cursors, "unjobs")

	result, err := d.Scan(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 0, result.NewRecords)
	assert.Len(t, storage.rawJobs.jobs, 2)
	assert.Len(t, enqueuer.tasks, 2, "no second fetch for an already-known posting")
}

func TestScanCursorStopsIngestion(t *testing.T) {
	d, storage, fetcher, enqueuer := newTestDiscovery()
	fetcher.pages[baseURL] = listingHTML("111", "222", "333")
	storage.cursors.cursors["unjobs"] = &models.CrawlCursor{
		SourceName:         "unjobs",
		LastSeenIdentifier: "222",
	}

	result, err := d.Scan(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 1, result.NewRecords, "only items above the cursor are ingested")
	require.Len(t, enqueuer.tasks, 1)
	assert.Equal(t, "111", enqueuer.tasks[0].PostNumber)

	assert.Equal(t, "111", storage.cursors.cursors["unjobs"].LastSeenIdentifier)
}

func TestScanPaginatesThroughFullPages(t *testing.T) {
	d, _, fetcher, _ := newTestDiscovery()
	fetcher.pages[baseURL] = listingHTML(idRange("a", parser.PageSize)...)
	fetcher.pages[baseURL+"/page/2"] = listingHTML("b001", "b002")

	result, err := d.Scan(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 2, result.PagesScanned)
	assert.Equal(t, parser.PageSize+2, result.NewRecords)
	assert.Equal(t, []string{baseURL, baseURL + "/page/2"}, fetcher.urls)
}

func TestScanRespectsMaxPages(t *testing.T) {
	d, _, fetcher, _ := newTestDiscovery()
	fetcher.pages[baseURL] = listingHTML(idRange("a", parser.PageSize)...)
	fetcher.pages[baseURL+"/page/2"] = listingHTML(idRange("b", parser.PageSize)...)
	fetcher.pages[baseURL+"/page/3"] = listingHTML(idRange("c", parser.PageSize)...)

	result, err := d.Scan(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, result.PagesScanned)
	assert.Len(t, fetcher.urls, 2)
}

func TestScanToleratesFailedPage(t *testing.T) {
	d, storage, fetcher, _ := newTestDiscovery()
	fetcher.errs[baseURL] = errors.New("render timeout")
	fetcher.pages[baseURL+"/page/2"] = listingHTML("111", "222")

	result, err := d.Scan(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 1, result.PagesScanned)
	assert.Equal(t, 2, result.NewRecords)

	cursor := storage.cursors.cursors["unjobs"]
	require.NotNil(t, cursor)
	assert.Contains(t, cursor.LastError, "render timeout")
	assert.Equal(t, "111", cursor.LastSeenIdentifier, "progress from the surviving page is kept")
}

func TestScanIngestFailureHoldsCursor(t *testing.T) {
	d, storage, fetcher, enqueuer := newTestDiscovery()
	fetcher.pages[baseURL] = listingHTML("111", "222")
	storage.rawJobs.createErrs["111"] = errors.New("disk full")

	result, err := d.Scan(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewRecords)

	cursor := storage.cursors.cursors["unjobs"]
	require.NotNil(t, cursor)
	assert.Empty(t, cursor.LastSeenIdentifier, "cursor must not advance past a failed ingest")
	assert.Contains(t, cursor.LastError, "disk full")

	// The held cursor re-lists the whole window: the failed posting gets
	// another attempt, the already-created one dedupes.
	result, err = d.Scan(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewRecords)
	assert.Contains(t, storage.rawJobs.jobs, "111")
	assert.Equal(t, "111", storage.cursors.cursors["unjobs"].LastSeenIdentifier)

	require.Len(t, enqueuer.tasks, 2)
	posts := []string{enqueuer.tasks[0].PostNumber, enqueuer.tasks[1].PostNumber}
	assert.ElementsMatch(t, []string{"111", "222"}, posts)
}

func TestScanKeepsCursorWhenNothingRenders(t *testing.T) {
	d, storage, fetcher, _ := newTestDiscovery()
	fetcher.errs[baseURL] = errors.New("render timeout")
	storage.cursors.cursors["unjobs"] = &models.CrawlCursor{
		SourceName:         "unjobs",
		LastSeenIdentifier: "999",
	}

	result, err := d.Scan(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 0, result.PagesScanned)
	assert.Equal(t, "999", storage.cursors.cursors["unjobs"].LastSeenIdentifier)
	assert.False(t, storage.cursors.cursors["unjobs"].LastCrawlTime.IsZero())
}
