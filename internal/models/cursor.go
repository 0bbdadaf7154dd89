package models

import "time"

// CrawlCursor bookmarks the most recently ingested item per source so
// discovery scans can stop early.
type CrawlCursor struct {
	SourceName         string    `json:"source_name"`
	LastSeenIdentifier string    `json:"last_seen_identifier"`
	LastCrawlTime      time.Time `json:"last_crawl_time"`
	TotalItemsSeen     int       `json:"total_items_seen"`
	LastError          string    `json:"last_error,omitempty"`
}
