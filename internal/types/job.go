package types

import (
	"time"

	"github.com/google/uuid"
)

// LogEntry is one timestamped progress message on a job's trail.
type LogEntry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Job is the unit of work: one topic turned into one video. A job is created
// by submission and mutated only by the orchestrator as stages complete.
// Stage outputs are owned by the job and immutable once set.
type Job struct {
	ID              uuid.UUID         `json:"id"`
	Topic           string            `json:"topic"`
	Tone            float64           `json:"tone"`
	Models          map[string]string `json:"models,omitempty"`
	Stage           Stage             `json:"stage"`
	Status          Status            `json:"status"`
	CancelRequested bool              `json:"cancel_requested"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	Logs            []LogEntry        `json:"logs,omitempty"`
	Error           *StageError       `json:"error,omitempty"`

	Research  *ResearchBundle `json:"research,omitempty"`
	Script    *Script         `json:"script,omitempty"`
	Subtitles *SubtitleTrack  `json:"subtitles,omitempty"`
	Assets    *MediaAssets    `json:"assets,omitempty"`
	Output    *RenderedVideo  `json:"output,omitempty"`
}

// AddLog appends a timestamped message to the job's progress trail.
func (j *Job) AddLog(message string) {
	j.Logs = append(j.Logs, LogEntry{At: time.Now().UTC(), Message: message})
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool { return j.Status.Terminal() }

// Clone returns a deep copy so store readers never share mutable state with
// the orchestrator's working copy.
func (j *Job) Clone() *Job {
	c := *j
	if j.Models != nil {
		c.Models = make(map[string]string, len(j.Models))
		for k, v := range j.Models {
			c.Models[k] = v
		}
	}
	if j.Logs != nil {
		c.Logs = append([]LogEntry(nil), j.Logs...)
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	if j.Error != nil {
		e := *j.Error
		c.Error = &e
	}
	if j.Research != nil {
		r := *j.Research
		r.Snippets = append([]Snippet(nil), j.Research.Snippets...)
		c.Research = &r
	}
	if j.Script != nil {
		s := *j.Script
		s.Beats = append([]Beat(nil), j.Script.Beats...)
		c.Script = &s
	}
	if j.Subtitles != nil {
		t := *j.Subtitles
		t.Captions = append([]Caption(nil), j.Subtitles.Captions...)
		c.Subtitles = &t
	}
	if j.Assets != nil {
		a := *j.Assets
		c.Assets = &a
	}
	if j.Output != nil {
		o := *j.Output
		c.Output = &o
	}
	return &c
}
