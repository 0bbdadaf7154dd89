package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/laboro/internal/interfaces"
	"github.com/ternarybob/laboro/internal/models"
)

// OrganizationStorage implements the OrganizationStorage interface for Badger
type OrganizationStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewOrganizationStorage creates a new OrganizationStorage instance
func NewOrganizationStorage(db *BadgerDB, logger arbor.ILogger) interfaces.OrganizationStorage {
	return &OrganizationStorage{
		db:     db,
		logger: logger,
	}
}

func (s *OrganizationStorage) GetOrCreate(ctx context.Context, name string) (*models.Organization, error) {
	if name == "" {
		return nil, fmt.Errorf("organization name is required")
	}

	var existing []models.Organization
	if err := s.db.Store().Find(&existing, badgerhold.Where("Name").Eq(name).Limit(1)); err != nil {
		return nil, fmt.Errorf("failed to look up organization: %w", err)
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}

	org := &models.Organization{
		ID:           uuid.New().String(),
		Name:         name,
		Abbreviation: name,
		CreatedAt:    time.Now(),
	}
	if err := s.db.Store().Insert(org.ID, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	s.logger.Debug().
		Str("organization", name).
		Str("id", org.ID).
		Msg("Organization created")

	return org, nil
}

func (s *OrganizationStorage) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.Store().Get(id, &org); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}
