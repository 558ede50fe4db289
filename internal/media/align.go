package media

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/martin/clipforge/internal/types"
)

// Aligner produces a subtitle track aligned to narration audio. It prefers
// whisper transcription timing; when whisper is unavailable or yields
// nothing, it falls back to dividing the script text evenly.
type Aligner struct {
	model   string
	verbose bool
}

// NewAligner creates an Aligner using the given whisper model size.
func NewAligner(model string, verbose bool) *Aligner {
	if model == "" {
		model = "base"
	}
	return &Aligner{model: model, verbose: verbose}
}

// Align returns captions covering the narration. narrationText is the
// sanitized script text used for the fallback path.
func (a *Aligner) Align(ctx context.Context, audioFile, narrationText string, narrationSeconds float64) (*types.SubtitleTrack, error) {
	captions, err := a.transcribe(ctx, audioFile)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if a.verbose {
			log.Printf("[ALIGN] whisper unavailable (%v), splitting script evenly", err)
		}
		captions = ChunkWords(EvenSplit(narrationText, narrationSeconds))
	}
	if len(captions) == 0 {
		return nil, types.NewStageError(types.StageProduction, types.KindMalformedOutput, "no captions could be produced for narration")
	}

	track := &types.SubtitleTrack{Captions: captions}
	// Stretch the last caption to the narration end so validation's coverage
	// requirement holds even when transcription stops at the final word.
	last := &track.Captions[len(track.Captions)-1]
	if last.End < narrationSeconds {
		last.End = narrationSeconds
	}
	return track, nil
}

// transcribe runs the whisper CLI and parses its SRT output.
func (a *Aligner) transcribe(ctx context.Context, audioFile string) ([]types.Caption, error) {
	if _, err := exec.LookPath("whisper"); err != nil {
		return nil, fmt.Errorf("whisper not found on PATH")
	}

	outDir, err := os.MkdirTemp("", "align-*")
	if err != nil {
		return nil, fmt.Errorf("create transcription dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	cmd := exec.CommandContext(ctx,
		"whisper", audioFile,
		"--model", a.model,
		"--output_format", "srt",
		"--output_dir", outDir,
		"--language", "en",
		"--word_timestamps", "True",
		"--max_line_width", "18",
		"--max_line_count", "1",
	)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("whisper failed: %w", err)
	}

	// Whisper names its output after the audio file.
	base := strings.TrimSuffix(filepath.Base(audioFile), filepath.Ext(audioFile))
	data, err := os.ReadFile(filepath.Join(outDir, base+".srt"))
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}

	return ParseSRT(string(data))
}
