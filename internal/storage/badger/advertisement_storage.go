package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/laboro/internal/interfaces"
	"github.com/ternarybob/laboro/internal/models"
)

// AdvertisementStorage implements the AdvertisementStorage interface for Badger
type AdvertisementStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAdvertisementStorage creates a new AdvertisementStorage instance
func NewAdvertisementStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AdvertisementStorage {
	return &AdvertisementStorage{
		db:     db,
		logger: logger,
	}
}

func (s *AdvertisementStorage) Save(ctx context.Context, ad *models.JobAdvertisement) error {
	if ad.PostNumber == "" {
		return fmt.Errorf("post number is required")
	}

	now := time.Now()
	if ad.CreatedAt.IsZero() {
		ad.CreatedAt = now
	}
	ad.UpdatedAt = now

	if err := s.db.Store().Upsert(ad.PostNumber, ad); err != nil {
		return fmt.Errorf("failed to save advertisement: %w", err)
	}
	return nil
}

func (s *AdvertisementStorage) Get(ctx context.Context, postNumber string) (*models.JobAdvertisement, error) {
	var ad models.JobAdvertisement
	if err := s.db.Store().Get(postNumber, &ad); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get advertisement: %w", err)
	}
	return &ad, nil
}

func (s *AdvertisementStorage) List(ctx context.Context) ([]*models.JobAdvertisement, error) {
	var ads []models.JobAdvertisement
	query := badgerhold.Where("PostNumber").Ne("").SortBy("CreatedAt").Reverse()
	if err := s.db.Store().Find(&ads, query); err != nil {
		return nil, fmt.Errorf("failed to list advertisements: %w", err)
	}

	result := make([]*models.JobAdvertisement, len(ads))
	for i := range ads {
		result[i] = &ads[i]
	}
	return result, nil
}

func (s *AdvertisementStorage) Delete(ctx context.Context, postNumber string) error {
	if err := s.db.Store().Delete(postNumber, &models.JobAdvertisement{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete advertisement: %w", err)
	}
	return nil
}
