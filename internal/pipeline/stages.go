// Package pipeline provides the high-level orchestration for video
// generation: a persistent job state machine driving the research, scripting,
// and production stages through bounded workers.
package pipeline

import (
	"context"

	"github.com/martin/clipforge/internal/types"
)

// Researcher produces the source bundle for a topic.
type Researcher interface {
	Research(ctx context.Context, topic string) (*types.ResearchBundle, error)
}

// ScriptWriter turns a research bundle into a validated script.
type ScriptWriter interface {
	Write(ctx context.Context, bundle *types.ResearchBundle, tone float64, model string) (*types.Script, error)
}

// Producer renders a script into the final video inside workDir.
type Producer interface {
	Produce(ctx context.Context, job *types.Job, workDir string) (*types.MediaAssets, *types.SubtitleTrack, *types.RenderedVideo, error)
}

// ProgressEvent is a progress update emitted while a job runs.
type ProgressEvent struct {
	JobID   string       `json:"job_id"`
	Status  types.Status `json:"status"`
	Stage   types.Stage  `json:"stage"`
	Message string       `json:"message"`
}
