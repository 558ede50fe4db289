package types

import "fmt"

// Caption is a single timed subtitle entry.
type Caption struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// SubtitleTrack is an ordered sequence of captions aligned to the narration.
type SubtitleTrack struct {
	Captions []Caption `json:"captions"`
}

// Validate checks the track invariant: captions sorted by start time,
// non-overlapping, and collectively covering [0, totalSeconds] with no gap
// larger than tolerance.
func (t *SubtitleTrack) Validate(totalSeconds, tolerance float64) error {
	if len(t.Captions) == 0 {
		return fmt.Errorf("subtitle track is empty")
	}
	prev := 0.0
	for i, c := range t.Captions {
		if c.End <= c.Start {
			return fmt.Errorf("caption %d: end %.3f not after start %.3f", i, c.End, c.Start)
		}
		if c.Start < prev {
			return fmt.Errorf("caption %d: overlaps previous (start %.3f < %.3f)", i, c.Start, prev)
		}
		if c.Start-prev > tolerance {
			return fmt.Errorf("caption %d: gap of %.3fs exceeds tolerance %.3fs", i, c.Start-prev, tolerance)
		}
		prev = c.End
	}
	if totalSeconds-prev > tolerance {
		return fmt.Errorf("track ends at %.3fs, %.3fs short of narration end %.3fs", prev, totalSeconds-prev, totalSeconds)
	}
	return nil
}

// MediaAssets references the externally stored inputs of composition.
// The referenced files are not owned by the job record.
type MediaAssets struct {
	NarrationPath    string  `json:"narration_path"`
	NarrationSeconds float64 `json:"narration_seconds"`
	TemplatePath     string  `json:"template_path"`
	MusicPath        string  `json:"music_path,omitempty"`
}

// RenderedVideo is the final artifact of a succeeded job.
type RenderedVideo struct {
	Path      string  `json:"path"`
	Seconds   float64 `json:"seconds"`
	SHA256    string  `json:"sha256"`
	SizeBytes int64   `json:"size_bytes"`
}
