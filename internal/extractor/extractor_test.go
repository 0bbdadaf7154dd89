package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/interfaces"
	"github.com/ternarybob/laboro/internal/models"
)

type fakeLLM struct {
	response string
	err      error
	messages []interfaces.Message
}

func (f *fakeLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) Close() error { return nil }

type fakeOrgStorage struct {
	created map[string]*models.Organization
}

func newFakeOrgStorage() *fakeOrgStorage {
	return &fakeOrgStorage{created: make(map[string]*models.Organization)}
}

func (f *fakeOrgStorage) GetOrCreate(ctx context.Context, name string) (*models.Organization, error) {
	if org, ok := f.created[name]; ok {
		return org, nil
	}
	org := &models.Organization{ID: "org-" + name, Name: name, Abbreviation: name}
	f.created[name] = org
	return org, nil
}

func (f *fakeOrgStorage) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	for _, org := range f.created {
		if org.ID == id {
			return org, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func testRawJob() *models.RawJobData {
	return &models.RawJobData{
		PostNumber:       "12345",
		SourceURL:        "https://unjobs.org/vacancies/12345",
		PostName:         "Programme Officer",
		PostContent:      "The UNDP seeks a Programme Officer in Nairobi.",
		OrganizationName: "UNDP",
		LocationCountry:  "Kenya",
		LocationCity:     "Nairobi",
		Status:           models.RawJobStatusDownloaded,
		CrawledAt:        time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC),
	}
}

const modelResponse = `{
	"organization_name": "UNDP",
	"post_name": "Programme Officer",
	"date_posted": "2024-01-08",
	"application_deadline": "2024-02-01",
	"contract_type": "fixed_term",
	"work_arrangement": "on-site",
	"position_level": "p-3",
	"language_requirements": [
		{"language": "English", "requirement_level": "required", "proficiency_level": "fluent"}
	],
	"tags": ["programme", "development"]
}`

func TestExtractHappyPath(t *testing.T) {
	llm := &fakeLLM{response: modelResponse}
	orgs := newFakeOrgStorage()
	e := New(llm, orgs, arbor.NewLogger())

	ad, org, err := e.Extract(context.Background(), testRawJob())
	require.NoError(t, err)

	assert.Equal(t, "12345", ad.PostNumber)
	assert.Equal(t, "Programme Officer", ad.PostName)
	assert.Equal(t, "UNDP", org.Name)
	assert.Equal(t, org.ID, ad.OrganizationID)
	assert.Equal(t, "fixed_term", ad.ContractType)
	assert.Equal(t, "p-3", ad.PositionLevel)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), ad.ApplicationDeadline)
	require.Len(t, ad.LanguageRequirements, 1)
	assert.Equal(t, "English", ad.LanguageRequirements[0].Language)
	assert.Equal(t, []string{"programme", "development"}, ad.Tags)
}

func TestExtractStripsMarkdownFences(t *testing.T) {
	llm := &fakeLLM{response: "```json\n" + modelResponse + "\n```"}
	e := New(llm, newFakeOrgStorage(), arbor.NewLogger())

	_, _, err := e.Extract(context.Background(), testRawJob())
	require.NoError(t, err)
}

func TestExtractMalformedJSON(t *testing.T) {
	llm := &fakeLLM{response: "I could not process this posting."}
	e := New(llm, newFakeOrgStorage(), arbor.NewLogger())

	_, _, err := e.Extract(context.Background(), testRawJob())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedJSON))
}

func TestExtractAllowListFallback(t *testing.T) {
	llm := &fakeLLM{response: `{"post_name": "Officer", "contract_type": "Freelance", "work_arrangement": "office"}`}
	e := New(llm, newFakeOrgStorage(), arbor.NewLogger())

	ad, _, err := e.Extract(context.Background(), testRawJob())
	require.NoError(t, err)
	assert.Equal(t, "other", ad.ContractType)
	assert.Equal(t, "on-site", ad.WorkArrangement)
}

func TestExtractDateFallbacks(t *testing.T) {
	llm := &fakeLLM{response: `{"post_name": "Officer", "date_posted": null, "application_deadline": null}`}
	e := New(llm, newFakeOrgStorage(), arbor.NewLogger())
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	ad, _, err := e.Extract(context.Background(), testRawJob())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), ad.DatePosted, "date_posted falls back to the crawl date")
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), ad.ApplicationDeadline, "deadline falls back to now + 30 days")
}

func TestExtractOrganizationFallbackChain(t *testing.T) {
	llm := &fakeLLM{response: `{"post_name": "Officer"}`}
	orgs := newFakeOrgStorage()
	e := New(llm, orgs, arbor.NewLogger())

	raw := testRawJob()
	raw.OrganizationName = ""

	_, org, err := e.Extract(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, models.UnknownOrganizationName, org.Name)
}

func TestExtractBodyTruncation(t *testing.T) {
	llm := &fakeLLM{response: modelResponse}
	e := New(llm, newFakeOrgStorage(), arbor.NewLogger())

	raw := testRawJob()
	raw.PostContent = strings.Repeat("x", BodyCap+5000)

	_, _, err := e.Extract(context.Background(), raw)
	require.NoError(t, err)

	require.Len(t, llm.messages, 2)
	userPrompt := llm.messages[1].Content
	assert.LessOrEqual(t, len(userPrompt), BodyCap+len(promptTemplate)+100)
}
