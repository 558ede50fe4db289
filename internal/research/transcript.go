package research

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/martin/clipforge/internal/fetch"
	"github.com/martin/clipforge/internal/types"
)

// TranscriptConnector finds explainer videos on the topic and pulls text from
// their watch pages. Search descriptions stand in when a page yields nothing.
type TranscriptConnector struct {
	svc          *customsearch.Service
	cx           string
	fetchTimeout time.Duration
	useBrowser   bool
}

// NewTranscriptConnector creates a video transcript connector backed by
// Custom Search restricted to youtube.com.
func NewTranscriptConnector(ctx context.Context, apiKey, cx string, fetchTimeout time.Duration, useBrowser bool) (*TranscriptConnector, error) {
	if apiKey == "" || cx == "" {
		return nil, fmt.Errorf("search API key and engine ID are required")
	}
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &TranscriptConnector{
		svc:          svc,
		cx:           cx,
		fetchTimeout: fetchTimeout,
		useBrowser:   useBrowser,
	}, nil
}

// Kind identifies this connector as a transcript source.
func (c *TranscriptConnector) Kind() types.SourceKind { return types.SourceTranscript }

// Search finds videos about the topic and extracts description text.
func (c *TranscriptConnector) Search(ctx context.Context, topic string) ([]types.Snippet, error) {
	query := fmt.Sprintf("site:youtube.com %s explained", topic)
	resp, err := c.svc.Cse.List().Context(ctx).Cx(c.cx).Q(query).Num(maxPerSource).Do()
	if err != nil {
		return nil, fmt.Errorf("video search failed: %w", err)
	}

	var snippets []types.Snippet
	for i, item := range resp.Items {
		body := c.pageText(ctx, item.Link)
		if body == "" {
			body = item.Snippet
		}
		if body == "" {
			continue
		}
		snippets = append(snippets, types.Snippet{
			Source: types.SourceTranscript,
			Title:  item.Title,
			Body:   truncateBody(body),
			URL:    item.Link,
			Score:  rankScore(i, len(resp.Items)),
		})
	}
	return snippets, nil
}

// pageText fetches a watch page and extracts whatever description or
// transcript text is present server-side. Watch pages render mostly
// client-side, so the browser fallback does the real work when enabled.
func (c *TranscriptConnector) pageText(ctx context.Context, url string) string {
	opts := fetch.DefaultOptions()
	opts.Timeout = c.fetchTimeout

	res, err := fetch.URL(ctx, url, opts)
	if err != nil {
		return ""
	}

	text, err := fetch.ExtractMainText(res.HTML, fetch.TranscriptSelectors())
	if err != nil {
		return ""
	}

	if c.useBrowser && fetch.ShouldUseBrowser(text) {
		html, err := fetch.WithBrowser(ctx, url, c.fetchTimeout, false)
		if err != nil {
			return text
		}
		if rendered, err := fetch.ExtractMainText(html, fetch.TranscriptSelectors()); err == nil && len(rendered) > len(text) {
			return rendered
		}
	}
	return text
}
