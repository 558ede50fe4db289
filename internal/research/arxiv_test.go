package research

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martin/clipforge/internal/types"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>Chromatophore Control in
      Cephalopods</title>
    <summary>We study the neural pathways
      that drive rapid skin patterning.</summary>
    <link href="http://arxiv.org/abs/1234.5678v1" rel="alternate" type="text/html"/>
  </entry>
  <entry>
    <title>Another Paper</title>
    <summary>Second abstract text.</summary>
    <link href="http://arxiv.org/abs/9999.0001v2" rel="alternate" type="text/html"/>
  </entry>
</feed>`

func TestParseArxivFeed(t *testing.T) {
	snippets, err := ParseArxivFeed([]byte(sampleFeed))
	require.NoError(t, err)
	require.Len(t, snippets, 2)

	first := snippets[0]
	assert.Equal(t, types.SourceAcademic, first.Source)
	assert.Equal(t, "Chromatophore Control in Cephalopods", first.Title)
	assert.Equal(t, "We study the neural pathways that drive rapid skin patterning.", first.Body)
	assert.Equal(t, "http://arxiv.org/abs/1234.5678v1", first.URL)
	assert.Greater(t, first.Score, snippets[1].Score)
}

func TestParseArxivFeed_Empty(t *testing.T) {
	snippets, err := ParseArxivFeed([]byte(`<feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	require.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestParseArxivFeed_Malformed(t *testing.T) {
	_, err := ParseArxivFeed([]byte("not xml at all <"))
	assert.Error(t, err)
}
