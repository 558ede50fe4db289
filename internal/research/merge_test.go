package research

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martin/clipforge/internal/types"
)

func TestMerge_Dedup(t *testing.T) {
	snippets := []types.Snippet{
		{Source: types.SourceWeb, Title: "Octopus camouflage explained", Body: "Skin cells change color instantly", Score: 0.9},
		{Source: types.SourceEncyclopedia, Title: "Octopus Camouflage Explained", Body: "skin cells change color instantly", Score: 1.0},
		{Source: types.SourceAcademic, Title: "Cephalopod neural control of chromatophores", Body: "A study of motor pathways", Score: 0.8},
	}

	merged := Merge(snippets, 10)
	require.Len(t, merged, 2)
	// The duplicate keeps the encyclopedia copy.
	assert.Equal(t, types.SourceEncyclopedia, merged[0].Source)
	assert.Equal(t, types.SourceAcademic, merged[1].Source)
}

func TestMerge_SourcePriorityOrdering(t *testing.T) {
	snippets := []types.Snippet{
		{Source: types.SourceTranscript, Title: "video one about volcanoes erupting", Score: 1.0},
		{Source: types.SourceWeb, Title: "article on magma chambers below ground", Score: 0.5},
		{Source: types.SourceEncyclopedia, Title: "volcano overview with eruption types", Score: 0.7},
	}

	merged := Merge(snippets, 10)
	require.Len(t, merged, 3)
	assert.Equal(t, types.SourceEncyclopedia, merged[0].Source)
	assert.Equal(t, types.SourceWeb, merged[1].Source)
	assert.Equal(t, types.SourceTranscript, merged[2].Source)
}

func TestMerge_Cap(t *testing.T) {
	snippets := []types.Snippet{
		{Source: types.SourceWeb, Title: "first result entirely distinct words", Score: 0.9},
		{Source: types.SourceWeb, Title: "second answer wholly different tokens", Score: 0.8},
		{Source: types.SourceWeb, Title: "third match unrelated vocabulary here", Score: 0.7},
	}
	assert.Len(t, Merge(snippets, 2), 2)
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil, 5))
}

func TestTruncateBody_RuneBoundary(t *testing.T) {
	// 1 ASCII byte then 3-byte runes: the byte limit lands mid-rune.
	body := "x" + strings.Repeat("火", 600)
	got := truncateBody(body)

	assert.LessOrEqual(t, len(got), snippetBodyLimit)
	assert.True(t, utf8.ValidString(got))
}

func TestTruncateBody_ShortInputUntouched(t *testing.T) {
	assert.Equal(t, "short body", truncateBody("short body"))
}

func TestOverlap(t *testing.T) {
	a := tokenize("octopus skin changes color")
	b := tokenize("octopus skin changes color fast")
	assert.InDelta(t, 1.0, overlap(a, b), 0.001)

	c := tokenize("deep sea hydrothermal vents")
	assert.Less(t, overlap(a, c), 0.3)
}
