package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageSize is the number of postings the source renders per listing page.
// Fewer new candidates than this means the last page was reached. The value
// is tied to the source's current rendering, not a published contract.
const PageSize = 25

// ListingSelector marks a rendered listing page as ready
const ListingSelector = "article div.job"

// Candidate is one posting discovered on a listing page
type Candidate struct {
	Identifier string
	SourceURL  string
}

// ParseListing extracts ordered posting candidates from a listing page,
// most-recent-first as rendered by the source. Relative links are resolved
// against baseURL.
func ParseListing(html, baseURL string) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	var candidates []Candidate
	doc.Find("article div.job[id]").Each(func(_ int, s *goquery.Selection) {
		identifier, _ := s.Attr("id")
		identifier = strings.TrimSpace(identifier)
		if identifier == "" {
			return
		}

		href, ok := s.Find("a.jtitle").First().Attr("href")
		if !ok {
			return
		}

		link, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}

		candidates = append(candidates, Candidate{
			Identifier: identifier,
			SourceURL:  base.ResolveReference(link).String(),
		})
	})

	return candidates, nil
}

// ApplyCursor truncates candidates at the first occurrence of the cursor's
// last-seen identifier. The match itself and everything after it are dropped.
func ApplyCursor(candidates []Candidate, lastSeenIdentifier string) []Candidate {
	if lastSeenIdentifier == "" {
		return candidates
	}
	for i, c := range candidates {
		if c.Identifier == lastSeenIdentifier {
			return candidates[:i]
		}
	}
	return candidates
}

// PageURL builds the listing URL for a 1-based page number. The first page is
// the base URL itself.
func PageURL(baseURL string, page int) string {
	if page <= 1 {
		return baseURL
	}
	return fmt.Sprintf("%s/page/%d", strings.TrimRight(baseURL, "/"), page)
}
