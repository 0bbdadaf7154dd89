package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/interfaces"
	"github.com/ternarybob/laboro/internal/models"
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"post_number": {"type": "keyword"},
			"post_name": {"type": "text"},
			"organization": {
				"properties": {
					"id": {"type": "keyword"},
					"name": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
					"abbreviation": {"type": "keyword"}
				}
			},
			"date_posted": {"type": "date"},
			"application_deadline": {"type": "date"},
			"contract_type": {"type": "keyword"},
			"work_arrangement": {"type": "keyword"},
			"position_level": {"type": "keyword"},
			"location_region": {"type": "keyword"},
			"location_country": {"type": "keyword"},
			"location_city": {"type": "keyword"},
			"thematic_area": {"type": "text"},
			"brief_description": {"type": "text"},
			"tags": {"type": "keyword"},
			"language_requirements": {
				"properties": {
					"language": {"type": "keyword"},
					"requirement_level": {"type": "keyword"},
					"proficiency_level": {"type": "keyword"}
				}
			},
			"is_active": {"type": "boolean"},
			"days_until_deadline": {"type": "integer"},
			"source_url": {"type": "keyword"},
			"indexed_at": {"type": "date"}
		}
	}
}`

// Indexer pushes advertisements into Elasticsearch. Documents are keyed by
// post number, so re-pushing the same advertisement replaces its document.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger arbor.ILogger
}

// NewIndexer creates an Elasticsearch-backed search indexer
func NewIndexer(config *common.SearchConfig, logger arbor.ILogger) (*Indexer, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &Indexer{
		client: client,
		index:  config.Index,
		logger: logger,
	}, nil
}

// EnsureIndex creates the index with its mapping if it does not exist
func (ix *Indexer) EnsureIndex(ctx context.Context) error {
	res, err := ix.client.Indices.Exists(
		[]string{ix.index},
		ix.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	createRes, err := ix.client.Indices.Create(
		ix.index,
		ix.client.Indices.Create.WithContext(ctx),
		ix.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", ix.index, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("index creation failed: %s", createRes.String())
	}

	ix.logger.Info().Str("index", ix.index).Msg("Search index created")
	return nil
}

// IndexAdvertisement pushes one denormalized advertisement document
func (ix *Indexer) IndexAdvertisement(ctx context.Context, ad *models.JobAdvertisement, org *models.Organization) error {
	doc := NewAdvertisementDocument(ad, org)

	docBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal advertisement document: %w", err)
	}

	res, err := ix.client.Index(
		ix.index,
		bytes.NewReader(docBytes),
		ix.client.Index.WithContext(ctx),
		ix.client.Index.WithDocumentID(ad.PostNumber),
	)
	if err != nil {
		return fmt.Errorf("failed to index advertisement %s: %w", ad.PostNumber, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing advertisement %s failed: %s", ad.PostNumber, res.String())
	}

	ix.logger.Debug().
		Str("post_number", ad.PostNumber).
		Str("index", ix.index).
		Msg("Advertisement indexed")

	return nil
}

// DeleteAdvertisement removes one document, ignoring documents already gone
func (ix *Indexer) DeleteAdvertisement(ctx context.Context, postNumber string) error {
	res, err := ix.client.Delete(
		ix.index,
		postNumber,
		ix.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to delete advertisement %s: %w", postNumber, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("deleting advertisement %s failed: %s", postNumber, res.String())
	}
	return nil
}

// Rebuild re-pushes every stored advertisement. With recreate set, the index
// is deleted and created fresh first.
func (ix *Indexer) Rebuild(ctx context.Context, ads interfaces.AdvertisementStorage, orgs interfaces.OrganizationStorage, recreate bool) (int, error) {
	if recreate {
		res, err := ix.client.Indices.Delete(
			[]string{ix.index},
			ix.client.Indices.Delete.WithContext(ctx),
			ix.client.Indices.Delete.WithIgnoreUnavailable(true),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to delete index %s: %w", ix.index, err)
		}
		res.Body.Close()
		ix.logger.Info().Str("index", ix.index).Msg("Search index deleted for rebuild")
	}

	if err := ix.EnsureIndex(ctx); err != nil {
		return 0, err
	}

	all, err := ads.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list advertisements: %w", err)
	}

	indexed := 0
	for _, ad := range all {
		org, err := orgs.GetByID(ctx, ad.OrganizationID)
		if err != nil {
			ix.logger.Warn().
				Err(err).
				Str("post_number", ad.PostNumber).
				Str("organization_id", ad.OrganizationID).
				Msg("Organization lookup failed during rebuild, indexing without it")
			org = nil
		}

		if err := ix.IndexAdvertisement(ctx, ad, org); err != nil {
			ix.logger.Warn().
				Err(err).
				Str("post_number", ad.PostNumber).
				Msg("Failed to index advertisement during rebuild")
			continue
		}
		indexed++
	}

	ix.logger.Info().
		Int("indexed", indexed).
		Int("total", len(all)).
		Msg("Search index rebuilt")

	return indexed, nil
}
