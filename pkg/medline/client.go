// Package medline fetches consumer health topic summaries from the
// MedlinePlus web service and condenses them with a language model.
// Batch runs checkpoint per disease so interrupted jobs resume where
// they stopped.
package medline

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DefaultBaseURL is the MedlinePlus web service search endpoint.
const DefaultBaseURL = "https://wsearch.nlm.nih.gov/ws/query"

// DefaultTimeout bounds each web service request.
const DefaultTimeout = 15 * time.Second

// Topic is one health topic hit from the web service.
type Topic struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// Client talks to the MedlinePlus web service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a MedlinePlus client. An empty baseURL selects the
// public endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

type searchResult struct {
	XMLName xml.Name `xml:"nlmSearchResult"`
	List    struct {
		Documents []document `xml:"document"`
	} `xml:"list"`
}

type document struct {
	URL      string    `xml:"url,attr"`
	Contents []content `xml:"content"`
}

type content struct {
	Name string `xml:"name,attr"`
	Raw  string `xml:",innerxml"`
}

// Search queries health topics for a term and returns up to max hits.
func (c *Client) Search(ctx context.Context, term string, max int) ([]Topic, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	if max <= 0 {
		max = 1
	}

	params := url.Values{}
	params.Set("db", "healthTopics")
	params.Set("term", term)
	params.Set("rettype", "brief")
	params.Set("retmax", fmt.Sprintf("%d", max))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("medline request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("medline returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	var parsed searchResult
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse medline response: %w", err)
	}

	topics := make([]Topic, 0, len(parsed.List.Documents))
	for _, doc := range parsed.List.Documents {
		t := Topic{URL: doc.URL}
		for _, field := range doc.Contents {
			switch field.Name {
			case "title":
				t.Title = CleanText(field.Raw)
			case "FullSummary":
				t.Summary = CleanText(field.Raw)
			case "snippet":
				if t.Summary == "" {
					t.Summary = CleanText(field.Raw)
				}
			}
		}
		if t.Title != "" || t.Summary != "" {
			topics = append(topics, t)
		}
		if len(topics) >= max {
			break
		}
	}
	return topics, nil
}

var (
	tagPattern = regexp.MustCompile(`<[^>]+>`)
	wsPattern  = regexp.MustCompile(`\s+`)
)

// CleanText strips markup from a web service field: tags removed,
// entities unescaped, whitespace collapsed. Fields arrive double
// escaped with highlight spans inside.
func CleanText(raw string) string {
	s := html.UnescapeString(raw)
	s = html.UnescapeString(s)
	s = tagPattern.ReplaceAllString(s, " ")
	s = wsPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
