package extractor

import (
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/models"
)

// normalizeEnum matches a model-supplied value against an allow-list,
// case-insensitively after trimming. A miss substitutes the fallback and logs
// the correction; it is never a hard failure.
func normalizeEnum(logger arbor.ILogger, postNumber, field string, value *string, allowed []string, fallback string) string {
	if value != nil {
		candidate := strings.ToLower(strings.TrimSpace(*value))
		for _, a := range allowed {
			if candidate == a {
				return a
			}
		}
	}

	raw := ""
	if value != nil {
		raw = *value
	}
	logger.Warn().
		Str("post_number", postNumber).
		Str("field", field).
		Str("value", raw).
		Str("fallback", fallback).
		Msg("Extracted value outside allow-list, substituting default")

	return fallback
}

// normalizeDate parses a strict YYYY-MM-DD date, substituting the fallback
// when the value is absent or unparseable.
func normalizeDate(logger arbor.ILogger, postNumber, field string, value *string, fallback time.Time) time.Time {
	if value != nil {
		if t, err := time.Parse("2006-01-02", strings.TrimSpace(*value)); err == nil {
			return t
		}
	}

	raw := ""
	if value != nil {
		raw = *value
	}
	logger.Warn().
		Str("post_number", postNumber).
		Str("field", field).
		Str("value", raw).
		Str("fallback", fallback.Format("2006-01-02")).
		Msg("Extracted date missing or unparseable, substituting fallback")

	return fallback
}

// normalizeLanguages validates each language entry independently. Entries
// without a language name are dropped silently.
func normalizeLanguages(logger arbor.ILogger, postNumber string, entries []ExtractedLanguage) []NormalizedLanguage {
	var out []NormalizedLanguage
	for _, entry := range entries {
		if entry.Language == nil || strings.TrimSpace(*entry.Language) == "" {
			continue
		}

		out = append(out, NormalizedLanguage{
			Language:         strings.TrimSpace(*entry.Language),
			RequirementLevel: normalizeEnum(logger, postNumber, "requirement_level", entry.RequirementLevel, models.RequirementLevels, models.DefaultRequirementLevel),
			ProficiencyLevel: normalizeEnum(logger, postNumber, "proficiency_level", entry.ProficiencyLevel, models.ProficiencyLevels, ""),
		})
	}
	return out
}

func stringOr(value *string, fallback string) string {
	if value != nil && strings.TrimSpace(*value) != "" {
		return strings.TrimSpace(*value)
	}
	return fallback
}

func boolOr(value *bool, fallback bool) bool {
	if value != nil {
		return *value
	}
	return fallback
}
