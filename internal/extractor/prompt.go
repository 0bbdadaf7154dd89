package extractor

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// BodyCap bounds the posting body submitted to the model. Content beyond the
// cap is not seen by the model.
const BodyCap = 8000

const systemPrompt = `You are a data extraction assistant for United Nations job postings. ` +
	`You respond with a single JSON object and nothing else: no prose, no markdown fences, no explanations. ` +
	`Use null for any field you cannot determine from the posting. Never invent values. ` +
	`All dates must be in ISO format (YYYY-MM-DD).`

const promptTemplate = `Extract the following fields from the job posting below and return them as a single JSON object.

Fields:
- organization_name: name of the hiring organization
- post_number: the posting's reference number if stated
- date_posted: publication date (YYYY-MM-DD or null)
- application_deadline: application deadline (YYYY-MM-DD or null)
- post_name: the job title
- contract_type: one of [consultant, temporary, fixed_term, internship, volunteering, other]
- contract_duration: free-text duration of the contract
- renewable: true if the contract is renewable, false otherwise
- location_region: geographic region
- location_country: country
- location_city: city
- work_arrangement: one of [on-site, remote, hybrid]
- thematic_area: the posting's thematic or programme area
- position_level: one of [consultancy, g-2, g-3, g-4, g-5, g-6, g-7, internship, no-1, no-2, no-3, no-4, p-1, p-2, p-3, p-4, p-5, d-1, d-2, other]
- brief_description: 2-3 sentence summary of the role
- main_skills_competencies: main skills and competencies required
- technical_skills: technical skills required
- minimum_academic_qualifications: minimum academic qualifications
- minimum_experience: minimum professional experience
- language_requirements: array of {language, requirement_level (required|preferred), proficiency_level (basic|intermediate|advanced|fluent|native|null)}
- tags: array of short keyword tags describing the posting

Job posting:
---
%s
---`

// buildPrompt renders the extraction prompt with the body truncated to BodyCap
func buildPrompt(body string) string {
	return fmt.Sprintf(promptTemplate, truncate(body, BodyCap))
}

// truncate cuts s to at most max bytes, backing off so a multi-byte rune is
// never split at the cap.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// cleanMarkdownFences strips a wrapping ```json fence if the model added one
// despite the instructions.
func cleanMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
