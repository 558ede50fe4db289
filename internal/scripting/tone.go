// Package scripting turns a research bundle into a structured narration
// script. A tone value in [0, 1] selects one of five bands that steer the
// prompt from pure entertainment toward pure education.
package scripting

// ToneBand describes one segment of the tone scale.
type ToneBand struct {
	Name     string // Stable identifier used in filenames and job records
	Label    string // Human-readable description
	Modifier string // Prompt fragment steering the writing style
}

// Band boundaries. Each band covers [lower, upper); the last band includes 1.0.
var toneBounds = []float64{0.2, 0.4, 0.6, 0.8}

var toneBands = []ToneBand{
	{
		Name:  "memey",
		Label: "Very Humorous/Memey",
		Modifier: `TONE: VERY HUMOROUS/MEMEY (Focus: Entertainment & Virality)
- Use internet slang, memes, and trending phrases heavily
- Focus on entertainment over education
- Use humor, jokes, and funny comparisons
- Reference popular culture and viral trends extensively
- Use casual, Gen-Z friendly language
- Priority: 90% fun/engagement, 10% information`,
	},
	{
		Name:  "humorous",
		Label: "Humorous with Some Info",
		Modifier: `TONE: HUMOROUS (Focus: Fun with Some Useful Info)
- Balance entertainment with some useful information
- Use casual, friendly language with regular humor
- Make facts entertaining and easy to digest
- Use engaging storytelling with funny elements
- Priority: 70% entertainment, 30% information`,
	},
	{
		Name:  "balanced",
		Label: "Balanced",
		Modifier: `TONE: BALANCED (Focus: Equal Entertainment & Information)
- Mix entertainment and information equally
- Use conversational but informative tone
- Include both fun facts and useful information
- Use relatable examples with moderate humor
- Priority: 50% entertainment, 50% information`,
	},
	{
		Name:  "informative",
		Label: "Informative with Some Fun",
		Modifier: `TONE: INFORMATIVE (Focus: Educational with Engagement)
- Focus on providing valuable, actionable information
- Use clear, educational language that's still engaging
- Include facts, tips, and useful insights
- Use professional but friendly tone
- Priority: 70% information, 30% entertainment`,
	},
	{
		Name:  "educational",
		Label: "Very Informative/Educational",
		Modifier: `TONE: VERY INFORMATIVE/EDUCATIONAL (Focus: Deep Knowledge)
- Focus entirely on educational, valuable content
- Use professional, authoritative language
- Include detailed facts, statistics, and expert insights
- Prioritize accuracy and depth of information
- Priority: 90% information, 10% engagement`,
	},
}

// BandFor maps a tone value in [0, 1] to its band. Values outside the range
// clamp to the nearest band.
func BandFor(tone float64) ToneBand {
	for i, upper := range toneBounds {
		if tone < upper {
			return toneBands[i]
		}
	}
	return toneBands[len(toneBands)-1]
}
