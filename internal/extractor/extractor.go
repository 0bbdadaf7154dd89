package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/interfaces"
	"github.com/ternarybob/laboro/internal/models"
)

// ErrMalformedJSON is returned when the model response does not parse as a
// single JSON object. Retryable.
var ErrMalformedJSON = errors.New("model response is not valid JSON")

// DeadlineFallbackDays is added to the processing time when the model could
// not extract an application deadline.
const DeadlineFallbackDays = 30

// Extractor turns a downloaded raw posting into a structured advertisement
// via a schema-constrained model prompt.
type Extractor struct {
	llm    interfaces.LLMService
	orgs   interfaces.OrganizationStorage
	logger arbor.ILogger
	now    func() time.Time
}

// New creates an Extractor
func New(llm interfaces.LLMService, orgs interfaces.OrganizationStorage, logger arbor.ILogger) *Extractor {
	return &Extractor{
		llm:    llm,
		orgs:   orgs,
		logger: logger,
		now:    time.Now,
	}
}

// Extract runs the model over the raw posting body and returns the validated
// advertisement together with its resolved organization. Nothing is persisted
// here; the caller owns the write.
func (e *Extractor) Extract(ctx context.Context, raw *models.RawJobData) (*models.JobAdvertisement, *models.Organization, error) {
	messages := []interfaces.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildPrompt(raw.PostContent)},
	}

	response, err := e.llm.Chat(ctx, messages)
	if err != nil {
		return nil, nil, fmt.Errorf("extraction model call failed: %w", err)
	}

	var result ExtractionResult
	if err := json.Unmarshal([]byte(cleanMarkdownFences(response)), &result); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	normalized := e.normalize(raw, &result)
	if err := normalized.Validate(); err != nil {
		return nil, nil, fmt.Errorf("extraction result failed validation: %w", err)
	}

	org, err := e.orgs.GetOrCreate(ctx, normalized.OrganizationName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve organization %q: %w", normalized.OrganizationName, err)
	}

	ad := &models.JobAdvertisement{
		PostNumber:                    raw.PostNumber,
		PostName:                      normalized.PostName,
		OrganizationID:                org.ID,
		DatePosted:                    normalized.DatePosted,
		ApplicationDeadline:           normalized.ApplicationDeadline,
		ContractType:                  normalized.ContractType,
		ContractDuration:              normalized.ContractDuration,
		Renewable:                     normalized.Renewable,
		LocationRegion:                normalized.LocationRegion,
		LocationCountry:               normalized.LocationCountry,
		LocationCity:                  normalized.LocationCity,
		WorkArrangement:               normalized.WorkArrangement,
		ThematicArea:                  normalized.ThematicArea,
		PositionLevel:                 normalized.PositionLevel,
		BriefDescription:              normalized.BriefDescription,
		MainSkillsCompetencies:        normalized.MainSkillsCompetencies,
		TechnicalSkills:               normalized.TechnicalSkills,
		MinimumAcademicQualifications: normalized.MinimumAcademicQualifications,
		MinimumExperience:             normalized.MinimumExperience,
		Tags:                          normalized.Tags,
		SourceURL:                     raw.SourceURL,
	}

	for _, lang := range normalized.Languages {
		ad.LanguageRequirements = append(ad.LanguageRequirements, models.LanguageRequirement{
			Language:         lang.Language,
			RequirementLevel: lang.RequirementLevel,
			ProficiencyLevel: lang.ProficiencyLevel,
		})
	}

	return ad, org, nil
}

// normalize applies the allow-list and fallback policies to the raw model
// output, folding in the raw record's values where the model came up empty.
func (e *Extractor) normalize(raw *models.RawJobData, result *ExtractionResult) *StructuredResult {
	pn := raw.PostNumber

	orgName := stringOr(result.OrganizationName, raw.OrganizationName)
	if orgName == "" {
		orgName = models.UnknownOrganizationName
	}

	return &StructuredResult{
		PostName:         stringOr(result.PostName, raw.PostName),
		OrganizationName: orgName,

		DatePosted:          normalizeDate(e.logger, pn, "date_posted", result.DatePosted, dateOnly(raw.CrawledAt)),
		ApplicationDeadline: normalizeDate(e.logger, pn, "application_deadline", result.ApplicationDeadline, dateOnly(e.now().AddDate(0, 0, DeadlineFallbackDays))),

		ContractType:     normalizeEnum(e.logger, pn, "contract_type", result.ContractType, models.ContractTypes, models.DefaultContractType),
		ContractDuration: stringOr(result.ContractDuration, ""),
		Renewable:        boolOr(result.Renewable, false),

		LocationRegion:  stringOr(result.LocationRegion, ""),
		LocationCountry: stringOr(result.LocationCountry, raw.LocationCountry),
		LocationCity:    stringOr(result.LocationCity, raw.LocationCity),
		WorkArrangement: normalizeEnum(e.logger, pn, "work_arrangement", result.WorkArrangement, models.WorkArrangements, models.DefaultWorkArrangement),

		ThematicArea:  stringOr(result.ThematicArea, ""),
		PositionLevel: normalizeEnum(e.logger, pn, "position_level", result.PositionLevel, models.PositionLevels, ""),

		BriefDescription:              stringOr(result.BriefDescription, ""),
		MainSkillsCompetencies:        stringOr(result.MainSkillsCompetencies, ""),
		TechnicalSkills:               stringOr(result.TechnicalSkills, ""),
		MinimumAcademicQualifications: stringOr(result.MinimumAcademicQualifications, ""),
		MinimumExperience:             stringOr(result.MinimumExperience, ""),
		Tags:                          result.Tags,

		Languages: normalizeLanguages(e.logger, pn, result.LanguageRequirements),
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
