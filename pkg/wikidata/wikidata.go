// Package wikidata enriches diseases with public descriptions, images,
// and Wikipedia links via the Wikidata SPARQL endpoint. Lookups are
// optional enrichment: callers ignore errors rather than failing a
// diagnosis on external availability.
package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/soundprediction/sympto/pkg/types"
)

// DefaultEndpoint is the public Wikidata SPARQL endpoint.
const DefaultEndpoint = "https://query.wikidata.org/sparql"

// DefaultTimeout bounds each SPARQL request.
const DefaultTimeout = 10 * time.Second

const userAgent = "sympto/1.0 (https://github.com/soundprediction/sympto)"

var qidPattern = regexp.MustCompile(`^Q\d+$`)

// ValidQID reports whether s looks like a Wikidata entity identifier.
func ValidQID(s string) bool {
	return qidPattern.MatchString(s)
}

// Client queries the Wikidata SPARQL endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithEndpoint overrides the SPARQL endpoint, mainly for tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient creates a Wikidata client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		http:     &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// DiseaseInfo looks up a disease by its English label and returns its
// description, image, and English Wikipedia article when found. A nil
// result with a nil error means the label resolved to nothing; query
// failures are returned so callers can log them.
func (c *Client) DiseaseInfo(ctx context.Context, label string) (*types.DiseaseInfo, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, nil
	}

	query := fmt.Sprintf(`
SELECT ?desc ?image ?article WHERE {
  ?item rdfs:label "%s"@en .
  OPTIONAL { ?item schema:description ?desc . FILTER(LANG(?desc) = "en") }
  OPTIONAL { ?item wdt:P18 ?image . }
  OPTIONAL {
    ?article schema:about ?item ;
             schema:isPartOf <https://en.wikipedia.org/> .
  }
} LIMIT 1`, escapeLabel(label))

	bindings, err := c.run(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("wikidata lookup failed for %q: %w", label, err)
	}
	if len(bindings) == 0 {
		return nil, nil
	}

	info := &types.DiseaseInfo{}
	b := bindings[0]
	if v, ok := b["desc"]; ok {
		info.Description = v.Value
	}
	if v, ok := b["image"]; ok {
		info.ImageURL = v.Value
	}
	if v, ok := b["article"]; ok {
		info.WikipediaURL = v.Value
	}
	if info.Description == "" && info.ImageURL == "" && info.WikipediaURL == "" {
		return nil, nil
	}
	return info, nil
}

// EntityID resolves a disease label to its Wikidata Q-identifier. The
// empty string is returned when the label resolves to nothing valid.
func (c *Client) EntityID(ctx context.Context, label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", nil
	}

	query := fmt.Sprintf(`
SELECT ?item WHERE {
  ?item rdfs:label "%s"@en .
} LIMIT 1`, escapeLabel(label))

	bindings, err := c.run(ctx, query)
	if err != nil {
		return "", fmt.Errorf("wikidata lookup failed for %q: %w", label, err)
	}
	if len(bindings) == 0 {
		return "", nil
	}

	v, ok := bindings[0]["item"]
	if !ok {
		return "", nil
	}
	qid := v.Value[strings.LastIndex(v.Value, "/")+1:]
	if !ValidQID(qid) {
		return "", nil
	}
	return qid, nil
}

func (c *Client) run(ctx context.Context, query string) ([]map[string]struct {
	Value string `json:"value"`
}, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikidata returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var parsed sparqlResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	return parsed.Results.Bindings, nil
}

func escapeLabel(label string) string {
	label = strings.ReplaceAll(label, `\`, ``)
	return strings.ReplaceAll(label, `"`, ``)
}
