package scripting

import (
	"fmt"
	"strings"

	"github.com/martin/clipforge/internal/types"
)

// BuildScriptPrompt constructs the generation prompt from the research
// bundle, tone band, and duration bounds.
func BuildScriptPrompt(bundle *types.ResearchBundle, band ToneBand, minSeconds, maxSeconds float64) string {
	var sb strings.Builder

	sb.WriteString("You are an expert short-form video scriptwriter. Write a narration script about the topic below.\n\n")
	sb.WriteString(band.Modifier)
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Topic: %s\n\n", bundle.Topic))

	sb.WriteString("Source material:\n\"\"\"\n")
	for _, s := range bundle.Snippets {
		sb.WriteString(fmt.Sprintf("- [%s] %s: %s\n", s.Source, s.Title, s.Body))
	}
	sb.WriteString("\"\"\"\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n")
	sb.WriteString(`{
  "beats": [
    {"role": "hook", "text": "opening line", "seconds": 4.0},
    {"role": "body", "text": "main content", "seconds": 20.0},
    {"role": "cta", "text": "closing call to action", "seconds": 3.0}
  ]
}`)
	sb.WriteString("\n\nIMPORTANT:\n")
	sb.WriteString("- The first beat must be a \"hook\" and the last a \"cta\".\n")
	sb.WriteString(fmt.Sprintf("- Beat seconds must sum to between %.0f and %.0f.\n", minSeconds, maxSeconds))
	sb.WriteString("- Beat text contains ONLY spoken words for text-to-speech: no emojis, no stage directions, no hashtags.\n")
	sb.WriteString("- Ground every claim in the source material; do not invent facts.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n")

	return sb.String()
}

// strictRetrySuffix is appended when a first generation failed validation.
func strictRetrySuffix(reason string) string {
	return fmt.Sprintf("\n\nThe previous attempt was rejected: %s\nFollow the JSON structure and constraints EXACTLY this time.\n", reason)
}
