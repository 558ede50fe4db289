package types

// SourceKind identifies a research connector variant.
type SourceKind string

// Supported research source kinds.
const (
	SourceWeb          SourceKind = "web"
	SourceAcademic     SourceKind = "academic"
	SourceEncyclopedia SourceKind = "encyclopedia"
	SourceTranscript   SourceKind = "transcript"
)

// Snippet is a single retrieved piece of source text plus metadata.
type Snippet struct {
	Source SourceKind `json:"source"`
	Title  string     `json:"title"`
	Body   string     `json:"body"`
	URL    string     `json:"url,omitempty"`
	Score  float64    `json:"score"`
}

// ResearchBundle is the ranked, deduplicated output of the research stage.
// It is immutable once produced; downstream stages consume it read-only.
type ResearchBundle struct {
	Topic    string    `json:"topic"`
	Snippets []Snippet `json:"snippets"`
}

// Keywords returns the distinct lowercased words longer than three characters
// found in snippet titles, capped at limit. Used for template/music matching.
func (b *ResearchBundle) Keywords(limit int) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, s := range b.Snippets {
		for _, w := range splitWords(s.Title) {
			if len(w) <= 3 || seen[w] {
				continue
			}
			seen[w] = true
			keywords = append(keywords, w)
			if len(keywords) >= limit {
				return keywords
			}
		}
	}
	return keywords
}

func splitWords(s string) []string {
	var words []string
	var current []rune
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			current = append(current, r)
		case r >= 'A' && r <= 'Z':
			current = append(current, r+('a'-'A'))
		default:
			if len(current) > 0 {
				words = append(words, string(current))
				current = nil
			}
		}
	}
	if len(current) > 0 {
		words = append(words, string(current))
	}
	return words
}
