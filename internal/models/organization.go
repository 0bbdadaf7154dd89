package models

import "time"

// UnknownOrganizationName is the resolution fallback when neither the
// extraction result nor the raw record carries an organization name.
const UnknownOrganizationName = "Unknown Organization"

// Organization is deduplicated by exact name match and created on first
// sight with the abbreviation defaulted to the name.
type Organization struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Abbreviation string    `json:"abbreviation"`
	CreatedAt    time.Time `json:"created_at"`
}
