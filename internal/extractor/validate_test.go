package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/models"
)

func strPtr(s string) *string { return &s }

func TestNormalizeEnum(t *testing.T) {
	logger := arbor.NewLogger()

	tests := []struct {
		name     string
		value    *string
		allowed  []string
		fallback string
		want     string
	}{
		{
			name:     "exact match",
			value:    strPtr("remote"),
			allowed:  models.WorkArrangements,
			fallback: models.DefaultWorkArrangement,
			want:     "remote",
		},
		{
			name:     "case and whitespace are normalized",
			value:    strPtr("  Fixed_Term "),
			allowed:  models.ContractTypes,
			fallback: models.DefaultContractType,
			want:     "fixed_term",
		},
		{
			name:     "value outside allow-list falls back",
			value:    strPtr("Freelance"),
			allowed:  models.ContractTypes,
			fallback: models.DefaultContractType,
			want:     "other",
		},
		{
			name:     "absent value falls back",
			value:    nil,
			allowed:  models.WorkArrangements,
			fallback: models.DefaultWorkArrangement,
			want:     "on-site",
		},
		{
			name:     "absent position level stays empty",
			value:    nil,
			allowed:  models.PositionLevels,
			fallback: "",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeEnum(logger, "12345", "field", tt.value, tt.allowed, tt.fallback)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	logger := arbor.NewLogger()
	fallback := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	got := normalizeDate(logger, "12345", "date_posted", strPtr("2024-03-15"), fallback)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got)

	assert.Equal(t, fallback, normalizeDate(logger, "12345", "date_posted", nil, fallback))
	assert.Equal(t, fallback, normalizeDate(logger, "12345", "date_posted", strPtr("March 15th"), fallback))
	assert.Equal(t, fallback, normalizeDate(logger, "12345", "date_posted", strPtr("15/03/2024"), fallback))
}

func TestNormalizeLanguages(t *testing.T) {
	logger := arbor.NewLogger()

	entries := []ExtractedLanguage{
		{Language: strPtr("English"), RequirementLevel: strPtr("required"), ProficiencyLevel: strPtr("Fluent")},
		{Language: strPtr("French"), RequirementLevel: strPtr("nice to have"), ProficiencyLevel: nil},
		{Language: nil, RequirementLevel: strPtr("required")},
		{Language: strPtr("  "), RequirementLevel: strPtr("required")},
	}

	got := normalizeLanguages(logger, "12345", entries)
	assert.Len(t, got, 2, "entries without a language name are dropped")

	assert.Equal(t, "English", got[0].Language)
	assert.Equal(t, "required", got[0].RequirementLevel)
	assert.Equal(t, "fluent", got[0].ProficiencyLevel)

	assert.Equal(t, "preferred", got[1].RequirementLevel, "invalid requirement level falls back")
	assert.Empty(t, got[1].ProficiencyLevel)
}

func TestStructuredResultValidate(t *testing.T) {
	valid := &StructuredResult{
		PostName:            "Programme Officer",
		OrganizationName:    "UNDP",
		DatePosted:          time.Now(),
		ApplicationDeadline: time.Now(),
		ContractType:        "fixed_term",
		WorkArrangement:     "on-site",
		PositionLevel:       "p-3",
		Languages: []NormalizedLanguage{
			{Language: "English", RequirementLevel: "required", ProficiencyLevel: "fluent"},
		},
	}
	assert.NoError(t, valid.Validate())

	invalid := *valid
	invalid.ContractType = "freelance"
	assert.Error(t, invalid.Validate())
}
