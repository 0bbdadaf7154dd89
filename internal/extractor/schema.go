package extractor

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// ExtractionResult is the raw JSON shape expected back from the model.
// Every field is nullable at the boundary; the model's enum adherence is
// never trusted, the normalization pass enforces the allow-lists.
type ExtractionResult struct {
	OrganizationName    *string `json:"organization_name"`
	PostNumber          *string `json:"post_number"`
	DatePosted          *string `json:"date_posted"`
	ApplicationDeadline *string `json:"application_deadline"`
	PostName            *string `json:"post_name"`

	ContractType     *string `json:"contract_type"`
	ContractDuration *string `json:"contract_duration"`
	Renewable        *bool   `json:"renewable"`

	LocationRegion  *string `json:"location_region"`
	LocationCountry *string `json:"location_country"`
	LocationCity    *string `json:"location_city"`
	WorkArrangement *string `json:"work_arrangement"`

	ThematicArea  *string `json:"thematic_area"`
	PositionLevel *string `json:"position_level"`

	BriefDescription              *string  `json:"brief_description"`
	MainSkillsCompetencies        *string  `json:"main_skills_competencies"`
	TechnicalSkills               *string  `json:"technical_skills"`
	MinimumAcademicQualifications *string  `json:"minimum_academic_qualifications"`
	MinimumExperience             *string  `json:"minimum_experience"`
	Tags                          []string `json:"tags"`

	LanguageRequirements []ExtractedLanguage `json:"language_requirements"`
}

// ExtractedLanguage is one language requirement as returned by the model
type ExtractedLanguage struct {
	Language         *string `json:"language"`
	RequirementLevel *string `json:"requirement_level"`
	ProficiencyLevel *string `json:"proficiency_level"`
}

// StructuredResult is the normalized, allow-list-conformant extraction
// output. Produced only by the normalization pass; Validate asserts the
// invariants it guarantees.
type StructuredResult struct {
	PostName         string `validate:"required"`
	OrganizationName string `validate:"required"`

	DatePosted          time.Time `validate:"required"`
	ApplicationDeadline time.Time `validate:"required"`

	ContractType     string `validate:"required,oneof=consultant temporary fixed_term internship volunteering other"`
	ContractDuration string
	Renewable        bool

	LocationRegion  string
	LocationCountry string
	LocationCity    string
	WorkArrangement string `validate:"required,oneof=on-site remote hybrid"`

	ThematicArea  string
	PositionLevel string `validate:"omitempty,oneof=consultancy g-2 g-3 g-4 g-5 g-6 g-7 internship no-1 no-2 no-3 no-4 p-1 p-2 p-3 p-4 p-5 d-1 d-2 other"`

	BriefDescription              string
	MainSkillsCompetencies        string
	TechnicalSkills               string
	MinimumAcademicQualifications string
	MinimumExperience             string
	Tags                          []string

	Languages []NormalizedLanguage `validate:"dive"`
}

// NormalizedLanguage is one validated language requirement
type NormalizedLanguage struct {
	Language         string `validate:"required"`
	RequirementLevel string `validate:"required,oneof=required preferred"`
	ProficiencyLevel string `validate:"omitempty,oneof=basic intermediate advanced fluent native"`
}

// Validate checks the normalized result against the allow-lists
func (r *StructuredResult) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
