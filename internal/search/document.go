package search

import (
	"time"

	"github.com/ternarybob/laboro/internal/models"
)

// OrganizationDoc is the denormalized organization sub-object
type OrganizationDoc struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// LanguageDoc is one denormalized language requirement
type LanguageDoc struct {
	Language         string `json:"language"`
	RequirementLevel string `json:"requirement_level"`
	ProficiencyLevel string `json:"proficiency_level,omitempty"`
}

// AdvertisementDocument is the search-index shape of a job advertisement,
// denormalized with its organization and language requirements plus the
// derived activity fields.
type AdvertisementDocument struct {
	PostNumber string `json:"post_number"`
	PostName   string `json:"post_name"`

	Organization OrganizationDoc `json:"organization"`

	DatePosted          time.Time `json:"date_posted"`
	ApplicationDeadline time.Time `json:"application_deadline"`

	ContractType     string `json:"contract_type"`
	ContractDuration string `json:"contract_duration,omitempty"`
	Renewable        bool   `json:"renewable"`

	LocationRegion  string `json:"location_region,omitempty"`
	LocationCountry string `json:"location_country,omitempty"`
	LocationCity    string `json:"location_city,omitempty"`
	WorkArrangement string `json:"work_arrangement"`

	ThematicArea  string `json:"thematic_area,omitempty"`
	PositionLevel string `json:"position_level,omitempty"`

	BriefDescription string   `json:"brief_description,omitempty"`
	Tags             []string `json:"tags,omitempty"`

	LanguageRequirements []LanguageDoc `json:"language_requirements,omitempty"`

	IsActive          bool `json:"is_active"`
	DaysUntilDeadline int  `json:"days_until_deadline"`

	SourceURL string    `json:"source_url"`
	IndexedAt time.Time `json:"indexed_at"`
}

// NewAdvertisementDocument builds the denormalized index document
func NewAdvertisementDocument(ad *models.JobAdvertisement, org *models.Organization) *AdvertisementDocument {
	doc := &AdvertisementDocument{
		PostNumber:          ad.PostNumber,
		PostName:            ad.PostName,
		DatePosted:          ad.DatePosted,
		ApplicationDeadline: ad.ApplicationDeadline,
		ContractType:        ad.ContractType,
		ContractDuration:    ad.ContractDuration,
		Renewable:           ad.Renewable,
		LocationRegion:      ad.LocationRegion,
		LocationCountry:     ad.LocationCountry,
		LocationCity:        ad.LocationCity,
		WorkArrangement:     ad.WorkArrangement,
		ThematicArea:        ad.ThematicArea,
		PositionLevel:       ad.PositionLevel,
		BriefDescription:    ad.BriefDescription,
		Tags:                ad.Tags,
		IsActive:            ad.IsActive(),
		DaysUntilDeadline:   ad.DaysUntilDeadline(),
		SourceURL:           ad.SourceURL,
		IndexedAt:           time.Now(),
	}

	if org != nil {
		doc.Organization = OrganizationDoc{
			ID:           org.ID,
			Name:         org.Name,
			Abbreviation: org.Abbreviation,
		}
	}

	for _, lang := range ad.LanguageRequirements {
		doc.LanguageRequirements = append(doc.LanguageRequirements, LanguageDoc{
			Language:         lang.Language,
			RequirementLevel: lang.RequirementLevel,
			ProficiencyLevel: lang.ProficiencyLevel,
		})
	}

	return doc
}
