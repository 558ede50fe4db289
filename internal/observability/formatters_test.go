package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/martin/clipforge/internal/types"
)

func TestPrintResearchBundle(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	bundle := &types.ResearchBundle{
		Topic: "octopus camouflage",
		Snippets: []types.Snippet{
			{Source: types.SourceEncyclopedia, Title: "Octopus", Score: 1.0},
			{Source: types.SourceWeb, Title: "How octopuses change color", Score: 0.8},
		},
	}

	p.PrintResearchBundle(bundle)
	output := buf.String()

	assert.Contains(t, output, "RESEARCH BUNDLE")
	assert.Contains(t, output, "octopus camouflage")
	assert.Contains(t, output, "encyclopedia")
	assert.Contains(t, output, "1.00")
}

func TestPrintResearchBundle_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResearchBundle(nil)

	assert.Empty(t, buf.String())
}

func TestPrintScript(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	script := &types.Script{
		Topic:    "volcanoes",
		ToneBand: "balanced",
		Beats: []types.Beat{
			{Role: types.RoleHook, Text: "Ever wondered what's inside a volcano?", Seconds: 5},
			{Role: types.RoleBody, Text: "Magma rises through cracks in the crust", Seconds: 25},
			{Role: types.RoleCTA, Text: "Follow for more science", Seconds: 5},
		},
	}

	p.PrintScript(script)
	output := buf.String()

	assert.Contains(t, output, "GENERATED SCRIPT")
	assert.Contains(t, output, "balanced")
	assert.Contains(t, output, "35.0s across 3 beats")
	assert.Contains(t, output, "hook")
}

func TestPrintSubtitleTrack(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	track := &types.SubtitleTrack{
		Captions: []types.Caption{
			{Start: 0, End: 2.5, Text: "Ever wondered"},
			{Start: 2.5, End: 5, Text: "what's inside a volcano?"},
		},
	}

	p.PrintSubtitleTrack(track)
	output := buf.String()

	assert.Contains(t, output, "SUBTITLE TRACK")
	assert.Contains(t, output, "Captions: 2")
	assert.Contains(t, output, "Ever wondered")
}

func TestPrintRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	video := &types.RenderedVideo{
		Path:      "/work/abc/final.mp4",
		Seconds:   42.5,
		SHA256:    "deadbeefdeadbeefdeadbeef",
		SizeBytes: 3 * 1024 * 1024,
	}

	p.PrintRenderSummary(video)
	output := buf.String()

	assert.Contains(t, output, "RENDERED VIDEO")
	assert.Contains(t, output, "final.mp4")
	assert.Contains(t, output, "42.5s")
	assert.Contains(t, output, "3.0 MB")
	assert.Contains(t, output, "deadbeefdeadbeef...")
}

func TestPrintRenderSummary_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRenderSummary(nil)

	assert.Contains(t, buf.String(), "NO VIDEO PRODUCED")
}

func TestPrintBox_LongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	bundle := &types.ResearchBundle{
		Topic: "a very long topic name that should be truncated to fit inside the box",
		Snippets: []types.Snippet{
			{Source: types.SourceWeb, Title: strings.Repeat("long ", 20), Score: 0.5},
		},
	}

	p.PrintResearchBundle(bundle)
	output := buf.String()

	assert.True(t, strings.Contains(output, "┌"))
	assert.True(t, strings.Contains(output, "└"))
	assert.True(t, strings.Contains(output, "│"))
}
