package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/laboro/internal/interfaces"
	"github.com/ternarybob/laboro/internal/models"
)

// CursorStorage implements the CursorStorage interface for Badger
type CursorStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCursorStorage creates a new CursorStorage instance
func NewCursorStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CursorStorage {
	return &CursorStorage{
		db:     db,
		logger: logger,
	}
}

func (s *CursorStorage) Get(ctx context.Context, sourceName string) (*models.CrawlCursor, error) {
	var cursor models.CrawlCursor
	if err := s.db.Store().Get(sourceName, &cursor); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get crawl cursor: %w", err)
	}
	return &cursor, nil
}

func (s *CursorStorage) Save(ctx context.Context, cursor *models.CrawlCursor) error {
	if cursor.SourceName == "" {
		return fmt.Errorf("source name is required")
	}
	if err := s.db.Store().Upsert(cursor.SourceName, cursor); err != nil {
		return fmt.Errorf("failed to save crawl cursor: %w", err)
	}
	return nil
}
