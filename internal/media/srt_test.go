package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSRT(t *testing.T) {
	content := `1
00:00:00,000 --> 00:00:02,500
Wait until

2
00:00:02,500 --> 00:00:05,000
<font color='#FFFF00'>you hear this</font>
`
	captions, err := ParseSRT(content)
	require.NoError(t, err)
	require.Len(t, captions, 2)

	assert.Equal(t, 0.0, captions[0].Start)
	assert.Equal(t, 2.5, captions[0].End)
	assert.Equal(t, "Wait until", captions[0].Text)
	assert.Equal(t, "you hear this", captions[1].Text, "markup tags are stripped")
}

func TestParseSRT_MultiLineCue(t *testing.T) {
	content := `1
00:01:02,250 --> 00:01:04,000
first line
second line
`
	captions, err := ParseSRT(content)
	require.NoError(t, err)
	require.Len(t, captions, 1)
	assert.Equal(t, 62.25, captions[0].Start)
	assert.Equal(t, "first line second line", captions[0].Text)
}

func TestParseSRT_Empty(t *testing.T) {
	_, err := ParseSRT("nothing here")
	assert.Error(t, err)
}

func TestFormatSRT_RoundTrip(t *testing.T) {
	captions := ChunkWords([]Word{
		{Text: "Hello", Start: 0, End: 0.4},
		{Text: "world.", Start: 0.4, End: 0.9},
		{Text: "Subtitles", Start: 0.9, End: 1.6},
	})
	out := FormatSRT(captions)
	assert.Contains(t, out, "-->")
	assert.Contains(t, out, "#FFFF00")

	parsed, err := ParseSRT(out)
	require.NoError(t, err)
	assert.Len(t, parsed, len(captions))
}

func TestChunkWords(t *testing.T) {
	words := []Word{
		{Text: "the", Start: 0, End: 0.2},
		{Text: "quick", Start: 0.2, End: 0.5}, // pairs with "the"
		{Text: "incredible", Start: 0.5, End: 1.1}, // long, stands alone
		{Text: "fox,", Start: 1.1, End: 1.4},       // punctuation, stands alone
		{Text: "ran", Start: 1.4, End: 1.6},
	}
	captions := ChunkWords(words)
	require.Len(t, captions, 4)
	assert.Equal(t, "the quick", captions[0].Text)
	assert.Equal(t, 0.0, captions[0].Start)
	assert.Equal(t, 0.5, captions[0].End)
	assert.Equal(t, "incredible", captions[1].Text)
	assert.Equal(t, "fox,", captions[2].Text)
	assert.Equal(t, "ran", captions[3].Text)
}

func TestChunkWords_Empty(t *testing.T) {
	assert.Empty(t, ChunkWords(nil))
}

func TestEvenSplit(t *testing.T) {
	words := EvenSplit("one two three four", 8)
	require.Len(t, words, 4)
	assert.Equal(t, 0.0, words[0].Start)
	assert.Equal(t, 2.0, words[0].End)
	assert.Equal(t, 6.0, words[3].Start)
	assert.Equal(t, 8.0, words[3].End)
}

func TestEvenSplit_Empty(t *testing.T) {
	assert.Nil(t, EvenSplit("", 10))
	assert.Nil(t, EvenSplit("words", 0))
}
