package models

import "time"

// RawJobStatus tracks a raw record through the ingestion pipeline
type RawJobStatus string

const (
	RawJobStatusPending    RawJobStatus = "PENDING"
	RawJobStatusProcessing RawJobStatus = "PROCESSING"
	RawJobStatusDownloaded RawJobStatus = "DOWNLOADED"
	RawJobStatusProcessed  RawJobStatus = "PROCESSED"
	RawJobStatusFailed     RawJobStatus = "FAILED"
	// RawJobStatusSkipped parks a record outside the pipeline. Only operators
	// set it; the pipeline never does.
	RawJobStatusSkipped RawJobStatus = "SKIPPED"
)

// RawJobData is one discovered posting, keyed by its source-assigned post number.
// The fetch stage fills the extraction fields; the extract stage links the
// structured advertisement.
type RawJobData struct {
	PostNumber string `json:"post_number"`
	SourceURL  string `json:"source_url"`

	// Filled by the fetch stage, empty until then
	PostName         string `json:"post_name,omitempty"`
	PostContent      string `json:"post_content,omitempty"`
	OrganizationName string `json:"organization_name,omitempty"`
	LocationCountry  string `json:"location_country,omitempty"`
	LocationCity     string `json:"location_city,omitempty"`

	Status                RawJobStatus `json:"status"`
	ProcessingAttempts    int          `json:"processing_attempts"`
	LastProcessingAttempt *time.Time   `json:"last_processing_attempt,omitempty"`
	ProcessingError       string       `json:"processing_error,omitempty"`

	// Set on successful extraction, points at the JobAdvertisement post number
	JobAdvertisementID string `json:"job_advertisement_id,omitempty"`

	CrawledAt time.Time `json:"crawled_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
