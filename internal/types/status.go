// Package types provides the shared data model for the video generation
// pipeline: jobs, research bundles, scripts, subtitle tracks, and media
// artifacts, plus the error taxonomy used across stages.
package types

// Status represents the lifecycle state of a job.
type Status string

// Job status values. Succeeded, Failed, and Cancelled are terminal.
const (
	StatusQueued      Status = "queued"
	StatusResearching Status = "researching"
	StatusScripting   Status = "scripting"
	StatusProducing   Status = "producing"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// Terminal reports whether the status is final and immutable.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Stage identifies one phase of the pipeline.
type Stage string

// Pipeline stages, executed strictly in this order for every job.
const (
	StageResearch   Stage = "research"
	StageScripting  Stage = "scripting"
	StageProduction Stage = "production"
)
