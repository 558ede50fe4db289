package media

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/martin/clipforge/internal/types"
)

// musicVolume ducks background music under the narration.
const musicVolume = 0.2

// durationTolerance allows the rendered file to differ slightly from the
// narration length due to codec frame alignment.
const durationTolerance = 1.5

// subtitleStyle is the libass force_style applied when burning captions.
const subtitleStyle = "Fontsize=24,Bold=0,Outline=3,Shadow=2,Alignment=2,PrimaryColour=&H0000FFFF,OutlineColour=&H00000000,MarginV=80"

// Composer renders the final vertical video with ffmpeg.
type Composer struct {
	verbose bool
}

// NewComposer creates a Composer. It fails fast when ffmpeg is missing.
func NewComposer(verbose bool) (*Composer, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found on PATH")
	}
	return &Composer{verbose: verbose}, nil
}

// Compose loops/trims the template to the narration length, burns the
// subtitle track in, lays the narration over it, then mixes in background
// music when assets include one. The result is re-probed before acceptance.
func (c *Composer) Compose(ctx context.Context, assets *types.MediaAssets, track *types.SubtitleTrack, outFile string) (*types.RenderedVideo, error) {
	workDir := filepath.Dir(outFile)
	srtFile := filepath.Join(workDir, "subs.srt")
	if err := os.WriteFile(srtFile, []byte(FormatSRT(track.Captions)), 0644); err != nil {
		return nil, types.WrapStageError(types.StageProduction, types.KindInternal, err, "write subtitle file")
	}
	defer func() { _ = os.Remove(srtFile) }()

	narrated := outFile
	if assets.MusicPath != "" {
		narrated = filepath.Join(workDir, "narrated.mp4")
	}

	if err := c.renderNarrated(ctx, assets, srtFile, narrated); err != nil {
		return nil, err
	}

	if assets.MusicPath != "" {
		if err := c.mixMusic(ctx, narrated, assets.MusicPath, outFile); err != nil {
			// Music is an enhancement; ship the narrated cut when mixing fails.
			log.Printf("[COMPOSE] music mix failed: %v", err)
			if renameErr := os.Rename(narrated, outFile); renameErr != nil {
				return nil, types.WrapStageError(types.StageProduction, types.KindInternal, renameErr, "recover narrated video")
			}
		} else {
			_ = os.Remove(narrated)
		}
	}

	seconds, err := Duration(ctx, outFile)
	if err != nil {
		return nil, types.WrapStageError(types.StageProduction, types.KindMalformedOutput, err, "rendered video is unreadable")
	}
	if math.Abs(seconds-assets.NarrationSeconds) > durationTolerance {
		return nil, types.NewStageError(types.StageProduction, types.KindMalformedOutput,
			"rendered duration %.1fs deviates from narration %.1fs", seconds, assets.NarrationSeconds)
	}

	sum, size, err := Fingerprint(outFile)
	if err != nil {
		return nil, types.WrapStageError(types.StageProduction, types.KindInternal, err, "fingerprint rendered video")
	}

	return &types.RenderedVideo{
		Path:      outFile,
		Seconds:   seconds,
		SHA256:    sum,
		SizeBytes: size,
	}, nil
}

// renderNarrated produces template video + burned subtitles + narration audio.
func (c *Composer) renderNarrated(ctx context.Context, assets *types.MediaAssets, srtFile, outFile string) error {
	filter := fmt.Sprintf(
		"scale=1080:1920:force_original_aspect_ratio=increase,crop=1080:1920,subtitles=%s:force_style='%s'",
		escapeSubtitlePath(srtFile), subtitleStyle,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-stream_loop", "-1",
		"-i", assets.TemplatePath,
		"-i", assets.NarrationPath,
		"-t", fmt.Sprintf("%.3f", assets.NarrationSeconds),
		"-vf", filter,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		outFile,
	)
	if c.verbose {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return types.WrapStageError(types.StageProduction, types.KindTransientExternal, err, "ffmpeg render failed")
	}
	return nil
}

// mixMusic ducks the music track under the narrated video's audio.
func (c *Composer) mixMusic(ctx context.Context, videoFile, musicFile, outFile string) error {
	filter := fmt.Sprintf(
		"[1:a]volume=%.2f[music];[0:a][music]amix=inputs=2:duration=first:normalize=0[out]",
		musicVolume,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", videoFile,
		"-stream_loop", "-1",
		"-i", musicFile,
		"-filter_complex", filter,
		"-map", "0:v",
		"-map", "[out]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outFile,
	)
	if c.verbose {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg music mix: %w", err)
	}
	return nil
}

// escapeSubtitlePath escapes a path for the ffmpeg subtitles filter.
func escapeSubtitlePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	return path
}
