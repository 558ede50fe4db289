package research

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/martin/clipforge/internal/types"
)

// WebConnector queries Google Custom Search for general web results.
type WebConnector struct {
	svc *customsearch.Service
	cx  string
}

// NewWebConnector creates a web search connector.
func NewWebConnector(ctx context.Context, apiKey, cx string) (*WebConnector, error) {
	if apiKey == "" || cx == "" {
		return nil, fmt.Errorf("search API key and engine ID are required")
	}
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &WebConnector{svc: svc, cx: cx}, nil
}

// Kind identifies this connector as a general web source.
func (c *WebConnector) Kind() types.SourceKind { return types.SourceWeb }

// Search returns web results for the topic, ordered as the engine ranks them.
func (c *WebConnector) Search(ctx context.Context, topic string) ([]types.Snippet, error) {
	query := fmt.Sprintf("%s facts explained", topic)
	resp, err := c.svc.Cse.List().Context(ctx).Cx(c.cx).Q(query).Num(maxPerSource).Do()
	if err != nil {
		return nil, fmt.Errorf("web search failed: %w", err)
	}

	snippets := make([]types.Snippet, 0, len(resp.Items))
	for i, item := range resp.Items {
		if item.Title == "" && item.Snippet == "" {
			continue
		}
		snippets = append(snippets, types.Snippet{
			Source: types.SourceWeb,
			Title:  item.Title,
			Body:   truncateBody(item.Snippet),
			URL:    item.Link,
			Score:  rankScore(i, len(resp.Items)),
		})
	}
	return snippets, nil
}

// rankScore converts a result's position into a descending score in (0, 1].
func rankScore(index, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(total-index) / float64(total)
}
