package research

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/martin/clipforge/internal/fetch"
	"github.com/martin/clipforge/internal/types"
)

const wikipediaEndpoint = "https://en.wikipedia.org/api/rest_v1/page/summary/"

// WikipediaConnector fetches the encyclopedia summary for a topic.
type WikipediaConnector struct {
	client *http.Client
}

// NewWikipediaConnector creates a Wikipedia connector.
func NewWikipediaConnector(timeout time.Duration) *WikipediaConnector {
	return &WikipediaConnector{client: &http.Client{Timeout: timeout}}
}

// Kind identifies this connector as an encyclopedia source.
func (c *WikipediaConnector) Kind() types.SourceKind { return types.SourceEncyclopedia }

type wikiSummary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Type    string `json:"type"`
	Content struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Search returns the summary of the page matching the topic. A single
// high-confidence snippet is worth more here than many weak ones.
func (c *WikipediaConnector) Search(ctx context.Context, topic string) ([]types.Snippet, error) {
	title := strings.ReplaceAll(strings.TrimSpace(topic), " ", "_")
	req, err := http.NewRequestWithContext(ctx, "GET", wikipediaEndpoint+url.PathEscape(title), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create wikipedia request: %w", err)
	}
	req.Header.Set("User-Agent", fetch.DefaultUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no wikipedia page for %q", topic)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read wikipedia response: %w", err)
	}

	var summary wikiSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse wikipedia response: %w", err)
	}
	if summary.Extract == "" {
		return nil, fmt.Errorf("wikipedia summary for %q is empty", topic)
	}
	// Disambiguation pages list alternatives instead of describing the topic.
	if summary.Type == "disambiguation" {
		return nil, fmt.Errorf("wikipedia page for %q is a disambiguation page", topic)
	}

	return []types.Snippet{{
		Source: types.SourceEncyclopedia,
		Title:  summary.Title,
		Body:   truncateBody(summary.Extract),
		URL:    summary.Content.Desktop.Page,
		Score:  1.0,
	}}, nil
}
