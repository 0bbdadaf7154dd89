package parser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingHTML(ids ...string) string {
	html := "<html><body><article>"
	for _, id := range ids {
		html += fmt.Sprintf(`<div class="job" id="%s"><a class="jtitle" href="/vacancies/%s">Posting %s</a></div>`, id, id, id)
	}
	html += "</article></body></html>"
	return html
}

func TestParseListingOrderAndLinks(t *testing.T) {
	html := listingHTML("111", "222", "333")

	candidates, err := ParseListing(html, "https://unjobs.org")
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, "111", candidates[0].Identifier)
	assert.Equal(t, "https://unjobs.org/vacancies/111", candidates[0].SourceURL)
	assert.Equal(t, "333", candidates[2].Identifier)
}

func TestParseListingSkipsMalformedEntries(t *testing.T) {
	html := `<html><body><article>
		<div class="job" id="111"><a class="jtitle" href="/vacancies/111">ok</a></div>
		<div class="job" id=""><a class="jtitle" href="/vacancies/x">no id</a></div>
		<div class="job" id="333"><span>no link</span></div>
	</article></body></html>`

	candidates, err := ParseListing(html, "https://unjobs.org")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "111", candidates[0].Identifier)
}

func TestApplyCursorStopRule(t *testing.T) {
	candidates := []Candidate{
		{Identifier: "A"}, {Identifier: "B"}, {Identifier: "X"}, {Identifier: "C"}, {Identifier: "D"},
	}

	got := ApplyCursor(candidates, "X")
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Identifier)
	assert.Equal(t, "B", got[1].Identifier)
}

func TestApplyCursorNoMatch(t *testing.T) {
	candidates := []Candidate{{Identifier: "A"}, {Identifier: "B"}}

	assert.Len(t, ApplyCursor(candidates, "Z"), 2)
	assert.Len(t, ApplyCursor(candidates, ""), 2)
}

func TestPageURL(t *testing.T) {
	assert.Equal(t, "https://unjobs.org", PageURL("https://unjobs.org", 1))
	assert.Equal(t, "https://unjobs.org/page/2", PageURL("https://unjobs.org", 2))
	assert.Equal(t, "https://unjobs.org/page/5", PageURL("https://unjobs.org/", 5))
}
