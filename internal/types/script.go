package types

import "strings"

// BeatRole tags the rhetorical function of a narration beat.
type BeatRole string

// Beat roles. Every script opens with a hook and closes with a call to action.
const (
	RoleHook BeatRole = "hook"
	RoleBody BeatRole = "body"
	RoleCTA  BeatRole = "cta"
)

// Beat is one segment of narration with a duration hint.
type Beat struct {
	Role    BeatRole `json:"role"`
	Text    string   `json:"text"`
	Seconds float64  `json:"seconds"`
}

// Script is the structured output of the content creation stage.
type Script struct {
	Topic    string `json:"topic"`
	ToneBand string `json:"tone_band"`
	Beats    []Beat `json:"beats"`
}

// TotalSeconds returns the sum of all beat duration hints.
func (s *Script) TotalSeconds() float64 {
	var total float64
	for _, b := range s.Beats {
		total += b.Seconds
	}
	return total
}

// NarrationText concatenates all beat text in order, separated by spaces.
func (s *Script) NarrationText() string {
	parts := make([]string, 0, len(s.Beats))
	for _, b := range s.Beats {
		if t := strings.TrimSpace(b.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
