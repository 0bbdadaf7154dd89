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

// RawJobStorage implements the RawJobStorage interface for Badger
type RawJobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRawJobStorage creates a new RawJobStorage instance
func NewRawJobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RawJobStorage {
	return &RawJobStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RawJobStorage) Create(ctx context.Context, job *models.RawJobData) error {
	if job.PostNumber == "" {
		return fmt.Errorf("post number is required")
	}

	now := time.Now()
	if job.CrawledAt.IsZero() {
		job.CrawledAt = now
	}
	job.UpdatedAt = now

	if err := s.db.Store().Insert(job.PostNumber, job); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return interfaces.ErrDuplicate
		}
		return fmt.Errorf("failed to create raw job: %w", err)
	}
	return nil
}

func (s *RawJobStorage) Save(ctx context.Context, job *models.RawJobData) error {
	if job.PostNumber == "" {
		return fmt.Errorf("post number is required")
	}

	job.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(job.PostNumber, job); err != nil {
		return fmt.Errorf("failed to save raw job: %w", err)
	}
	return nil
}

func (s *RawJobStorage) Get(ctx context.Context, postNumber string) (*models.RawJobData, error) {
	var job models.RawJobData
	if err := s.db.Store().Get(postNumber, &job); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get raw job: %w", err)
	}
	return &job, nil
}

func (s *RawJobStorage) ListByStatus(ctx context.Context, status models.RawJobStatus) ([]*models.RawJobData, error) {
	var jobs []models.RawJobData
	query := badgerhold.Where("Status").Eq(status).SortBy("CrawledAt").Reverse()
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to list raw jobs by status: %w", err)
	}

	result := make([]*models.RawJobData, len(jobs))
	for i := range jobs {
		result[i] = &jobs[i]
	}
	return result, nil
}

func (s *RawJobStorage) CountByStatus(ctx context.Context, status models.RawJobStatus) (int, error) {
	count, err := s.db.Store().Count(&models.RawJobData{}, badgerhold.Where("Status").Eq(status))
	if err != nil {
		return 0, fmt.Errorf("failed to count raw jobs: %w", err)
	}
	return int(count), nil
}
