package media

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/martin/clipforge/internal/types"
)

// ttsVoices are rotated per job for variety.
var ttsVoices = []string{"en-US-AriaNeural", "en-US-JennyNeural", "en-US-GuyNeural"}

// ttsRate speeds narration slightly; short-form audiences expect pace.
const ttsRate = "+15%"

// minNarrationBytes rejects truncated TTS output.
const minNarrationBytes = 1000

// ttsAttempts is how many times a narration synthesis is tried before the
// stage reports a transient failure.
const ttsAttempts = 3

var (
	emojiPattern   = regexp.MustCompile(`[\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}\x{FE0F}\x{200D}]`)
	nonSpokenChars = regexp.MustCompile(`[^\w\s.,!?'-]`)
	spaceRuns      = regexp.MustCompile(`\s+`)
)

// SanitizeNarration strips emojis, hashtags, and other characters that
// text-to-speech would read aloud or choke on.
func SanitizeNarration(text string) string {
	text = emojiPattern.ReplaceAllString(text, "")
	text = nonSpokenChars.ReplaceAllString(text, "")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Synthesizer produces narration audio from script text using edge-tts.
type Synthesizer struct {
	verbose bool
}

// NewSynthesizer creates a Synthesizer. It fails fast when edge-tts is not on
// PATH so jobs don't discover the missing tool mid-pipeline.
func NewSynthesizer(verbose bool) (*Synthesizer, error) {
	if _, err := exec.LookPath("edge-tts"); err != nil {
		return nil, fmt.Errorf("edge-tts not found on PATH (install with: pip install edge-tts)")
	}
	return &Synthesizer{verbose: verbose}, nil
}

// Synthesize renders the script's narration to an mp3 at outFile and returns
// its measured duration.
func (s *Synthesizer) Synthesize(ctx context.Context, script *types.Script, outFile string) (float64, error) {
	text := SanitizeNarration(script.NarrationText())
	if text == "" {
		return 0, types.NewStageError(types.StageProduction, types.KindMalformedOutput, "script has no speakable text after sanitization")
	}

	voice := ttsVoices[rand.Intn(len(ttsVoices))]
	if s.verbose {
		log.Printf("[TTS] voice=%s chars=%d", voice, len(text))
	}

	var lastErr error
	for attempt := 1; attempt <= ttsAttempts; attempt++ {
		cmd := exec.CommandContext(ctx, "edge-tts",
			"--voice", voice,
			"--rate", ttsRate,
			"--text", text,
			"--write-media", outFile,
		)
		lastErr = cmd.Run()
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		log.Printf("[TTS] attempt %d failed: %v", attempt, lastErr)
		select {
		case <-time.After(time.Duration(attempt) * 2 * time.Second):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if lastErr != nil {
		return 0, types.WrapStageError(types.StageProduction, types.KindTransientExternal, lastErr, "narration synthesis failed after %d attempts", ttsAttempts)
	}

	info, err := os.Stat(outFile)
	if err != nil || info.Size() < minNarrationBytes {
		return 0, types.NewStageError(types.StageProduction, types.KindTransientExternal, "narration file missing or truncated")
	}

	dur, err := Duration(ctx, outFile)
	if err != nil {
		return 0, types.WrapStageError(types.StageProduction, types.KindTransientExternal, err, "could not measure narration duration")
	}
	return dur, nil
}
