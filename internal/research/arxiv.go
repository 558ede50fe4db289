package research

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/martin/clipforge/internal/fetch"
	"github.com/martin/clipforge/internal/types"
)

const arxivEndpoint = "http://export.arxiv.org/api/query"

// ArxivConnector queries the arXiv Atom API for academic abstracts.
type ArxivConnector struct {
	client *http.Client
}

// NewArxivConnector creates an arXiv connector.
func NewArxivConnector(timeout time.Duration) *ArxivConnector {
	return &ArxivConnector{client: &http.Client{Timeout: timeout}}
}

// Kind identifies this connector as an academic source.
func (c *ArxivConnector) Kind() types.SourceKind { return types.SourceAcademic }

// atomFeed mirrors the subset of the arXiv Atom response we consume.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title   string     `xml:"title"`
	Summary string     `xml:"summary"`
	Links   []atomLink `xml:"link"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// Search returns abstracts of papers matching the topic.
func (c *ArxivConnector) Search(ctx context.Context, topic string) ([]types.Snippet, error) {
	params := url.Values{}
	params.Set("search_query", fmt.Sprintf("all:%s", topic))
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", maxPerSource))
	params.Set("sortBy", "relevance")

	req, err := http.NewRequestWithContext(ctx, "GET", arxivEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create arxiv request: %w", err)
	}
	req.Header.Set("User-Agent", fetch.DefaultUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read arxiv response: %w", err)
	}

	return ParseArxivFeed(body)
}

// FetchDocument retrieves the full abstract page behind a snippet. This is
// the connector's optional document capability; callers reach it through a
// DocumentFetcher assertion.
func (c *ArxivConnector) FetchDocument(ctx context.Context, snippet types.Snippet) (string, error) {
	if snippet.URL == "" {
		return "", fmt.Errorf("snippet %q has no document URL", snippet.Title)
	}

	opts := fetch.DefaultOptions()
	opts.Timeout = c.client.Timeout
	res, err := fetch.URL(ctx, snippet.URL, opts)
	if err != nil {
		return "", fmt.Errorf("fetch arxiv page: %w", err)
	}

	text, err := fetch.ExtractMainText(res.HTML, fetch.ArticleSelectors())
	if err != nil {
		return "", fmt.Errorf("extract arxiv page text: %w", err)
	}
	return text, nil
}

// ParseArxivFeed decodes an arXiv Atom feed into snippets.
func ParseArxivFeed(data []byte) ([]types.Snippet, error) {
	var feed atomFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse arxiv feed: %w", err)
	}

	snippets := make([]types.Snippet, 0, len(feed.Entries))
	for i, entry := range feed.Entries {
		title := strings.Join(strings.Fields(entry.Title), " ")
		summary := strings.Join(strings.Fields(entry.Summary), " ")
		if title == "" || summary == "" {
			continue
		}
		snippets = append(snippets, types.Snippet{
			Source: types.SourceAcademic,
			Title:  title,
			Body:   truncateBody(summary),
			URL:    entryURL(entry),
			Score:  rankScore(i, len(feed.Entries)),
		})
	}
	return snippets, nil
}

func entryURL(entry atomEntry) string {
	for _, l := range entry.Links {
		if l.Rel == "alternate" {
			return l.Href
		}
	}
	if len(entry.Links) > 0 {
		return entry.Links[0].Href
	}
	return ""
}
