package scripting

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/martin/clipforge/internal/llm"
	"github.com/martin/clipforge/internal/schemas"
	"github.com/martin/clipforge/internal/types"
)

// Writer generates validated scripts from research bundles.
type Writer struct {
	client     llm.Client
	minSeconds float64
	maxSeconds float64
	verbose    bool
}

// NewWriter creates a script writer enforcing the given duration bounds.
func NewWriter(client llm.Client, minSeconds, maxSeconds float64, verbose bool) *Writer {
	return &Writer{
		client:     client,
		minSeconds: minSeconds,
		maxSeconds: maxSeconds,
		verbose:    verbose,
	}
}

// Write generates a script for the bundle at the given tone, using the named
// model. A structurally invalid or out-of-bounds script gets exactly one
// stricter regeneration before the stage fails.
func (w *Writer) Write(ctx context.Context, bundle *types.ResearchBundle, tone float64, model string) (*types.Script, error) {
	band := BandFor(tone)
	prompt := BuildScriptPrompt(bundle, band, w.minSeconds, w.maxSeconds)

	script, reason, err := w.attempt(ctx, prompt, model, bundle.Topic, band)
	if err != nil {
		return nil, err
	}
	if script != nil {
		return script, nil
	}

	if w.verbose {
		log.Printf("[SCRIPT] regenerating: %s", reason)
	}
	script, finalReason, err := w.attempt(ctx, prompt+strictRetrySuffix(reason), model, bundle.Topic, band)
	if err != nil {
		return nil, err
	}
	if script != nil {
		return script, nil
	}

	kind := types.KindMalformedOutput
	if isDurationReason(finalReason) {
		kind = types.KindDurationConstraint
	}
	return nil, types.NewStageError(types.StageScripting, kind, "script rejected after regeneration: %s", finalReason)
}

// attempt runs one generation. It returns (script, "", nil) on success,
// (nil, reason, nil) when the output was rejected, and a terminal error only
// when the model call itself failed.
func (w *Writer) attempt(ctx context.Context, prompt, model, topic string, band ToneBand) (*types.Script, string, error) {
	raw, err := w.client.GenerateJSON(ctx, model, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", types.WrapStageError(types.StageScripting, types.KindTransientExternal, err, "script generation call failed")
	}

	if err := schemas.ValidateJSONString(scriptSchema, raw); err != nil {
		return nil, fmt.Sprintf("schema validation: %v", err), nil
	}

	var script types.Script
	if err := json.Unmarshal([]byte(raw), &script); err != nil {
		return nil, fmt.Sprintf("JSON decode: %v", err), nil
	}
	script.Topic = topic
	script.ToneBand = band.Name

	if err := checkStructure(&script); err != nil {
		return nil, err.Error(), nil
	}

	total := script.TotalSeconds()
	if total < w.minSeconds || total > w.maxSeconds {
		return nil, fmt.Sprintf("duration %.1fs outside [%.0f, %.0f]", total, w.minSeconds, w.maxSeconds), nil
	}

	return &script, "", nil
}

// checkStructure enforces ordering rules the JSON schema cannot express.
func checkStructure(s *types.Script) error {
	if len(s.Beats) < 3 {
		return fmt.Errorf("script has %d beats, need at least 3", len(s.Beats))
	}
	if s.Beats[0].Role != types.RoleHook {
		return fmt.Errorf("first beat is %q, must be hook", s.Beats[0].Role)
	}
	if s.Beats[len(s.Beats)-1].Role != types.RoleCTA {
		return fmt.Errorf("last beat is %q, must be cta", s.Beats[len(s.Beats)-1].Role)
	}
	for i, b := range s.Beats[1 : len(s.Beats)-1] {
		if b.Role != types.RoleBody {
			return fmt.Errorf("beat %d is %q, middle beats must be body", i+1, b.Role)
		}
	}
	return nil
}

func isDurationReason(reason string) bool {
	return len(reason) > 8 && reason[:8] == "duration"
}
