package research

import (
	"sort"
	"strings"

	"github.com/martin/clipforge/internal/types"
)

// similarityThreshold is the token-overlap ratio above which two snippets are
// considered duplicates.
const similarityThreshold = 0.8

// sourcePriority orders sources by trust when ranking merged snippets.
// Encyclopedia entries are vetted summaries; transcripts are the noisiest.
var sourcePriority = map[types.SourceKind]float64{
	types.SourceEncyclopedia: 4,
	types.SourceAcademic:     3,
	types.SourceWeb:          2,
	types.SourceTranscript:   1,
}

// Merge deduplicates, ranks, and caps snippets from all connectors.
// Duplicates keep the copy from the higher-priority source.
func Merge(snippets []types.Snippet, limit int) []types.Snippet {
	sorted := make([]types.Snippet, len(snippets))
	copy(sorted, snippets)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sourcePriority[sorted[i].Source], sourcePriority[sorted[j].Source]
		if pi != pj {
			return pi > pj
		}
		return sorted[i].Score > sorted[j].Score
	})

	var merged []types.Snippet
	var kept [][]string
	for _, s := range sorted {
		tokens := tokenize(s.Title + " " + s.Body)
		dup := false
		for _, prev := range kept {
			if overlap(tokens, prev) >= similarityThreshold {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		merged = append(merged, s)
		kept = append(kept, tokens)
		if limit > 0 && len(merged) >= limit {
			break
		}
	}
	return merged
}

// tokenize lowercases and splits text into word tokens.
func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// overlap returns the fraction of tokens in a that also appear in b,
// measured against the smaller set.
func overlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(b))
	for _, t := range b {
		set[t] = true
	}
	common := 0
	seen := make(map[string]bool, len(a))
	for _, t := range a {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			common++
		}
	}
	smaller := len(seen)
	if len(set) < smaller {
		smaller = len(set)
	}
	if smaller == 0 {
		return 0
	}
	return float64(common) / float64(smaller)
}
