package interfaces

import (
	"context"

	"github.com/ternarybob/laboro/internal/models"
)

// SearchIndexer pushes denormalized advertisements into the document index.
// Re-pushing the same post number replaces the existing document.
type SearchIndexer interface {
	EnsureIndex(ctx context.Context) error
	IndexAdvertisement(ctx context.Context, ad *models.JobAdvertisement, org *models.Organization) error
	DeleteAdvertisement(ctx context.Context, postNumber string) error
}
