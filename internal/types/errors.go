package types

import "fmt"

// ErrorKind classifies a pipeline failure for retry policy and API exposure.
type ErrorKind string

// Error kinds surfaced to callers. Only TransientExternal is retried.
const (
	KindInvalidInput       ErrorKind = "invalid_input"
	KindNotFound           ErrorKind = "not_found"
	KindNotReady           ErrorKind = "not_ready"
	KindTransientExternal  ErrorKind = "transient_external"
	KindMalformedOutput    ErrorKind = "malformed_output"
	KindDurationConstraint ErrorKind = "duration_constraint"
	KindAllSourcesFailed   ErrorKind = "all_sources_failed"
	KindInternal           ErrorKind = "internal"
)

// StageError is the structured failure attached to a failed job. Only the
// originating stage, kind, and human-readable message are exposed to callers;
// wrapped internal detail stays server-side.
type StageError struct {
	Stage   Stage     `json:"stage"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	cause   error
}

// NewStageError creates a StageError for the given stage and kind.
func NewStageError(stage Stage, kind ErrorKind, format string, args ...any) *StageError {
	return &StageError{Stage: stage, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapStageError creates a StageError that preserves the underlying cause for
// logging while keeping Message as the caller-visible text.
func WrapStageError(stage Stage, kind ErrorKind, cause error, format string, args ...any) *StageError {
	return &StageError{Stage: stage, Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

func (e *StageError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *StageError) Unwrap() error { return e.cause }

// Transient reports whether the failure class should be retried.
func (e *StageError) Transient() bool { return e.Kind == KindTransientExternal }
