// Package server provides the HTTP REST API for the video pipeline.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/martin/clipforge/internal/types"
)

// ErrJobNotFound indicates the job ID has no record.
type ErrJobNotFound struct {
	JobID uuid.UUID
}

func (e *ErrJobNotFound) Error() string {
	return fmt.Sprintf("job not found: %s", e.JobID)
}

// ErrArtifactNotReady indicates the job exists but its video is not
// available yet.
type ErrArtifactNotReady struct {
	JobID  uuid.UUID
	Status string
}

func (e *ErrArtifactNotReady) Error() string {
	return fmt.Sprintf("video for job %s is not ready (status: %s)", e.JobID, e.Status)
}

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error. Pipeline
// errors map by kind: invalid input is the caller's fault, not-found and
// not-ready mirror the dedicated API error types.
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrJobNotFound:
		return http.StatusNotFound
	case *ErrArtifactNotReady:
		return http.StatusConflict
	case *ErrValidation:
		return http.StatusBadRequest
	}

	var stageErr *types.StageError
	if errors.As(err, &stageErr) {
		switch stageErr.Kind {
		case types.KindInvalidInput:
			return http.StatusBadRequest
		case types.KindNotFound:
			return http.StatusNotFound
		case types.KindNotReady:
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}
