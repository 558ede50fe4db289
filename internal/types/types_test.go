package types

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Terminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusQueued, false},
		{StatusResearching, false},
		{StatusScripting, false},
		{StatusProducing, false},
		{StatusSucceeded, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.Terminal())
		})
	}
}

func TestStageError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapStageError(StageResearch, KindTransientExternal, cause, "web search failed")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "web search failed")
	assert.NotContains(t, err.Error(), "connection reset")
}

func TestStageError_Transient(t *testing.T) {
	transient := NewStageError(StageProduction, KindTransientExternal, "tts timed out")
	assert.True(t, transient.Transient())

	permanent := NewStageError(StageScripting, KindMalformedOutput, "bad JSON")
	assert.False(t, permanent.Transient())
}

func TestResearchBundle_Keywords(t *testing.T) {
	bundle := ResearchBundle{
		Topic: "octopus camouflage",
		Snippets: []Snippet{
			{Title: "How Octopus Skin Changes Color"},
			{Title: "Octopus camouflage explained"},
			{Title: "The, and, for"},
		},
	}
	kw := bundle.Keywords(10)
	assert.Contains(t, kw, "octopus")
	assert.Contains(t, kw, "camouflage")
	assert.Contains(t, kw, "changes")
	assert.NotContains(t, kw, "the")
	assert.NotContains(t, kw, "and")

	// Duplicates collapse case-insensitively.
	count := 0
	for _, k := range kw {
		if k == "octopus" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestResearchBundle_Keywords_Limit(t *testing.T) {
	bundle := ResearchBundle{Snippets: []Snippet{
		{Title: "alpha bravo charlie delta echo foxtrot"},
	}}
	assert.Len(t, bundle.Keywords(3), 3)
}

func TestJob_Clone(t *testing.T) {
	job := &Job{
		ID:     uuid.New(),
		Topic:  "deep sea vents",
		Tone:   0.7,
		Models: map[string]string{"scripting": "gemini-2.0-flash"},
		Stage:  StageScripting,
		Status: StatusScripting,
		Research: &ResearchBundle{
			Topic:    "deep sea vents",
			Snippets: []Snippet{{Source: SourceWeb, Title: "Hydrothermal vents", Score: 0.9}},
		},
	}
	job.AddLog("research complete")

	clone := job.Clone()
	require.Equal(t, job, clone)

	clone.Models["scripting"] = "other"
	clone.Logs[0].Message = "mutated"
	clone.Research.Snippets[0].Title = "mutated"

	assert.Equal(t, "gemini-2.0-flash", job.Models["scripting"])
	assert.Equal(t, "research complete", job.Logs[0].Message)
	assert.Equal(t, "Hydrothermal vents", job.Research.Snippets[0].Title)
}
