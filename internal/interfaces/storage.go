package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/laboro/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a create would violate a unique key.
var ErrDuplicate = errors.New("record already exists")

// RawJobStorage persists RawJobData records keyed by post number.
type RawJobStorage interface {
	// Create inserts a new record, returning ErrDuplicate if the post number
	// is already known.
	Create(ctx context.Context, job *models.RawJobData) error
	// Save upserts a record and stamps UpdatedAt.
	Save(ctx context.Context, job *models.RawJobData) error
	Get(ctx context.Context, postNumber string) (*models.RawJobData, error)
	ListByStatus(ctx context.Context, status models.RawJobStatus) ([]*models.RawJobData, error)
	CountByStatus(ctx context.Context, status models.RawJobStatus) (int, error)
}

// AdvertisementStorage persists structured job advertisements.
type AdvertisementStorage interface {
	Save(ctx context.Context, ad *models.JobAdvertisement) error
	Get(ctx context.Context, postNumber string) (*models.JobAdvertisement, error)
	List(ctx context.Context) ([]*models.JobAdvertisement, error)
	Delete(ctx context.Context, postNumber string) error
}

// OrganizationStorage deduplicates organizations by exact name.
type OrganizationStorage interface {
	// GetOrCreate looks an organization up by name, creating it with the
	// abbreviation defaulted to the name when absent.
	GetOrCreate(ctx context.Context, name string) (*models.Organization, error)
	GetByID(ctx context.Context, id string) (*models.Organization, error)
}

// CursorStorage persists per-source crawl cursors.
type CursorStorage interface {
	Get(ctx context.Context, sourceName string) (*models.CrawlCursor, error)
	Save(ctx context.Context, cursor *models.CrawlCursor) error
}

// StorageManager bundles the storage services behind one lifecycle.
type StorageManager interface {
	RawJobs() RawJobStorage
	Advertisements() AdvertisementStorage
	Organizations() OrganizationStorage
	Cursors() CursorStorage
	Close() error
}
