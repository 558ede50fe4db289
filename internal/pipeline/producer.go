package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/martin/clipforge/internal/media"
	"github.com/martin/clipforge/internal/types"
)

// keywordLimit caps how many keywords feed asset matching.
const keywordLimit = 10

// MediaProducer implements the production stage with edge-tts, whisper, and
// ffmpeg via the media package.
type MediaProducer struct {
	synth        *media.Synthesizer
	aligner      *media.Aligner
	composer     *media.Composer
	templates    *media.Catalog
	music        *media.Catalog // nil when no music catalog is configured
	gapTolerance float64
}

// NewMediaProducer assembles the production stage. music may be nil.
func NewMediaProducer(synth *media.Synthesizer, aligner *media.Aligner, composer *media.Composer, templates, music *media.Catalog, gapTolerance float64) *MediaProducer {
	return &MediaProducer{
		synth:        synth,
		aligner:      aligner,
		composer:     composer,
		templates:    templates,
		music:        music,
		gapTolerance: gapTolerance,
	}
}

// Produce renders the job's script into a finished video inside workDir.
func (p *MediaProducer) Produce(ctx context.Context, job *types.Job, workDir string) (*types.MediaAssets, *types.SubtitleTrack, *types.RenderedVideo, error) {
	narrationPath := filepath.Join(workDir, "narration.mp3")
	seconds, err := p.synth.Synthesize(ctx, job.Script, narrationPath)
	if err != nil {
		return nil, nil, nil, err
	}

	keywords := p.keywords(job)
	assets := &types.MediaAssets{
		NarrationPath:    narrationPath,
		NarrationSeconds: seconds,
		TemplatePath:     p.templates.Select(keywords),
	}
	if p.music != nil {
		assets.MusicPath = p.music.Select(keywords)
	}

	narrationText := media.SanitizeNarration(job.Script.NarrationText())
	track, err := p.aligner.Align(ctx, narrationPath, narrationText, seconds)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := track.Validate(seconds, p.gapTolerance); err != nil {
		return nil, nil, nil, types.WrapStageError(types.StageProduction, types.KindMalformedOutput, err, "subtitle track rejected")
	}

	video, err := p.composer.Compose(ctx, assets, track, filepath.Join(workDir, "final.mp4"))
	if err != nil {
		return nil, nil, nil, err
	}
	return assets, track, video, nil
}

// keywords combines topic words with research title keywords.
func (p *MediaProducer) keywords(job *types.Job) []string {
	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(job.Topic)) {
		keywords = append(keywords, w)
	}
	if job.Research != nil {
		keywords = append(keywords, job.Research.Keywords(keywordLimit)...)
	}
	return keywords
}
