package models

import "time"

// Allowed values for the enumerated advertisement fields. Validation is
// case-insensitive after trimming; values outside the list fall back to the
// documented default with a logged substitution.
var (
	ContractTypes = []string{"consultant", "temporary", "fixed_term", "internship", "volunteering", "other"}

	WorkArrangements = []string{"on-site", "remote", "hybrid"}

	PositionLevels = []string{
		"consultancy",
		"g-2", "g-3", "g-4", "g-5", "g-6", "g-7",
		"internship",
		"no-1", "no-2", "no-3", "no-4",
		"p-1", "p-2", "p-3", "p-4", "p-5",
		"d-1", "d-2",
		"other",
	}

	RequirementLevels = []string{"required", "preferred"}

	ProficiencyLevels = []string{"basic", "intermediate", "advanced", "fluent", "native"}
)

const (
	DefaultContractType     = "other"
	DefaultWorkArrangement  = "on-site"
	DefaultRequirementLevel = "preferred"
)

// LanguageRequirement is a child of JobAdvertisement, stored embedded so the
// parent's lifecycle owns it.
type LanguageRequirement struct {
	Language         string `json:"language" validate:"required"`
	RequirementLevel string `json:"requirement_level"`
	ProficiencyLevel string `json:"proficiency_level,omitempty"`
}

// JobAdvertisement is the structured, validated posting produced by the
// extraction stage. Keyed by post number, created exactly once per
// successfully extracted RawJobData.
type JobAdvertisement struct {
	PostNumber string `json:"post_number"`
	PostName   string `json:"post_name"`

	OrganizationID string `json:"organization_id"`

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

	BriefDescription              string   `json:"brief_description,omitempty"`
	MainSkillsCompetencies        string   `json:"main_skills_competencies,omitempty"`
	TechnicalSkills               string   `json:"technical_skills,omitempty"`
	MinimumAcademicQualifications string   `json:"minimum_academic_qualifications,omitempty"`
	MinimumExperience             string   `json:"minimum_experience,omitempty"`
	Tags                          []string `json:"tags,omitempty"`

	LanguageRequirements []LanguageRequirement `json:"language_requirements,omitempty"`

	SourceURL string    `json:"source_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the application deadline has not yet passed.
func (a *JobAdvertisement) IsActive() bool {
	return !a.ApplicationDeadline.Before(startOfDay(time.Now()))
}

// DaysUntilDeadline returns whole days until the deadline, negative once it
// has passed.
func (a *JobAdvertisement) DaysUntilDeadline() int {
	return int(startOfDay(a.ApplicationDeadline).Sub(startOfDay(time.Now())).Hours() / 24)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
