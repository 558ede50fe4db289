// Package research gathers source material for a topic. Connectors query
// independent external sources in parallel; the stage merges, deduplicates,
// and ranks their results into a single bundle.
package research

import (
	"context"
	"unicode/utf8"

	"github.com/martin/clipforge/internal/types"
)

// Connector queries one external source for snippets about a topic.
type Connector interface {
	// Kind identifies the source for ranking and error reporting.
	Kind() types.SourceKind
	// Search returns snippets for the topic. Implementations must honor
	// ctx cancellation and return an error rather than blocking past it.
	Search(ctx context.Context, topic string) ([]types.Snippet, error)
}

// DocumentFetcher is an optional connector capability: fetching the full
// document behind a snippet. Callers must check for it with a type assertion;
// not every source has a document to fetch.
type DocumentFetcher interface {
	// FetchDocument returns the full text of the document the snippet
	// references, or an error if it cannot be retrieved.
	FetchDocument(ctx context.Context, snippet types.Snippet) (string, error)
}

// maxPerSource caps how many snippets a single connector contributes before
// merging, so one noisy source cannot crowd out the rest.
const maxPerSource = 6

// snippetBodyLimit truncates snippet bodies to keep prompts bounded.
const snippetBodyLimit = 1200

func truncateBody(s string) string {
	if len(s) <= snippetBodyLimit {
		return s
	}
	// Back up to a rune boundary so the cut never leaves invalid UTF-8.
	cut := snippetBodyLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
