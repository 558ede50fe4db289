package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTrack() SubtitleTrack {
	return SubtitleTrack{Captions: []Caption{
		{Start: 0, End: 2.5, Text: "Wait until"},
		{Start: 2.5, End: 5.0, Text: "you hear this"},
		{Start: 5.2, End: 8.0, Text: "one weird trick"},
	}}
}

func TestSubtitleTrack_Validate(t *testing.T) {
	track := validTrack()
	assert.NoError(t, track.Validate(8.0, 0.5))
}

func TestSubtitleTrack_Validate_Empty(t *testing.T) {
	var track SubtitleTrack
	assert.Error(t, track.Validate(10, 0.5))
}

func TestSubtitleTrack_Validate_Overlap(t *testing.T) {
	track := SubtitleTrack{Captions: []Caption{
		{Start: 0, End: 3, Text: "a"},
		{Start: 2.5, End: 5, Text: "b"},
	}}
	err := track.Validate(5, 0.5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlaps")
}

func TestSubtitleTrack_Validate_GapExceedsTolerance(t *testing.T) {
	track := SubtitleTrack{Captions: []Caption{
		{Start: 0, End: 2, Text: "a"},
		{Start: 4, End: 6, Text: "b"},
	}}
	err := track.Validate(6, 0.5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gap")
}

func TestSubtitleTrack_Validate_ShortOfNarrationEnd(t *testing.T) {
	track := SubtitleTrack{Captions: []Caption{
		{Start: 0, End: 2, Text: "a"},
	}}
	err := track.Validate(10, 0.5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "short of narration end")
}

func TestSubtitleTrack_Validate_InvertedCaption(t *testing.T) {
	track := SubtitleTrack{Captions: []Caption{
		{Start: 2, End: 1, Text: "a"},
	}}
	assert.Error(t, track.Validate(2, 0.5))
}
