package parser

import (
	"errors"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// DetailSelector marks a rendered posting page as ready
const DetailSelector = "div.fp-snippet"

// ErrMissingTitle is returned when no title element is found on a posting
// page. Usually the site shape changed; a transient render glitch looks the
// same, so callers retry it within the stage budget.
var ErrMissingTitle = errors.New("posting title not found")

// Category labels the source uses on posting pages
const (
	labelOrganization = "Organization"
	labelCountry      = "Country"
	labelCity         = "City"
)

// Detail is the parsed content of a single posting page
type Detail struct {
	Title      string
	Body       string
	Categories map[string]string
}

// Organization returns the organization category value, empty if absent
func (d *Detail) Organization() string {
	return d.Categories[labelOrganization]
}

// Country returns the country category value, empty if absent
func (d *Detail) Country() string {
	return d.Categories[labelCountry]
}

// City returns the city category value, empty if absent
func (d *Detail) City() string {
	return d.Categories[labelCity]
}

// ParseDetail extracts title, normalized body and the category map from a
// posting page. The body keeps headings and lists but loses layout markup.
func ParseDetail(html, baseURL string) (*Detail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse posting page: %w", err)
	}

	titleSel := doc.Find(".container > table > tbody > tr > td > h2").First()
	title := strings.TrimSpace(titleSel.Text())
	if title == "" {
		return nil, ErrMissingTitle
	}

	body, err := normalizeBody(doc, baseURL)
	if err != nil {
		return nil, err
	}

	return &Detail{
		Title:      title,
		Body:       body,
		Categories: parseCategories(doc),
	}, nil
}

func normalizeBody(doc *goquery.Document, baseURL string) (string, error) {
	snippet := doc.Find("div.fp-snippet").First()
	if snippet.Length() == 0 {
		return "", nil
	}

	snippetHTML, err := goquery.OuterHtml(snippet)
	if err != nil {
		return "", fmt.Errorf("failed to serialize posting body: %w", err)
	}

	converter := md.NewConverter(baseURL, true, nil)
	markdown, err := converter.ConvertString(snippetHTML)
	if err != nil {
		return "", fmt.Errorf("failed to convert posting body to markdown: %w", err)
	}

	return strings.TrimSpace(markdown), nil
}

// parseCategories builds (label, value) pairs from the posting's list-group.
// Entries without the "Label: Value" shape are ignored.
func parseCategories(doc *goquery.Document) map[string]string {
	categories := make(map[string]string)
	doc.Find(".list-group li.list-group-item").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		label, value, found := strings.Cut(text, ":")
		if !found {
			return
		}
		label = strings.TrimSpace(label)
		value = strings.TrimSpace(value)
		if label == "" || value == "" {
			return
		}
		categories[label] = value
	})
	return categories
}
