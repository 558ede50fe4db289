package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/martin/clipforge/internal/db"
	"github.com/martin/clipforge/internal/scripting"
	"github.com/martin/clipforge/internal/types"
)

var validate = validator.New()

// CreateJobRequest is the body of POST /jobs.
type CreateJobRequest struct {
	Topic  string            `json:"topic" validate:"required,min=3,max=200"`
	Tone   float64           `json:"tone" validate:"gte=0,lte=1"`
	Models map[string]string `json:"models,omitempty"`
}

// handleCreateJob accepts a new job and returns 202 with its initial record.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		msg := "invalid request"
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msg = fmt.Sprintf("field %s failed %s validation", strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		s.errorResponse(w, http.StatusBadRequest, msg)
		return
	}

	job, err := s.orchestrator.Submit(r.Context(), req.Topic, req.Tone, req.Models)
	if err != nil {
		var stageErr *types.StageError
		if errors.As(err, &stageErr) && stageErr.Kind == types.KindInvalidInput {
			s.errorResponse(w, HTTPStatus(err), stageErr.Message)
			return
		}
		s.errorResponse(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusAccepted, job)
}

// handleListJobs returns all jobs, newest first.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.orchestrator.List(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	s.jsonResponse(w, http.StatusOK, jobs)
}

// handleGetJob returns a single job record.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.jobID(w, r)
	if !ok {
		return
	}

	job, err := s.orchestrator.Get(r.Context(), id)
	if err != nil {
		s.jobError(w, id, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

// handleDownload streams the finished video as an attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := s.jobID(w, r)
	if !ok {
		return
	}

	job, err := s.orchestrator.Get(r.Context(), id)
	if err != nil {
		s.jobError(w, id, err)
		return
	}
	if job.Status != types.StatusSucceeded || job.Output == nil {
		err := &ErrArtifactNotReady{JobID: id, Status: string(job.Status)}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if _, statErr := os.Stat(job.Output.Path); statErr != nil {
		s.errorResponse(w, http.StatusNotFound, "video file no longer exists")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadFilename(job)))
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeFile(w, r, job.Output.Path)
}

// handleCancelJob requests cooperative cancellation.
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.jobID(w, r)
	if !ok {
		return
	}

	job, err := s.orchestrator.Cancel(r.Context(), id)
	if err != nil {
		s.jobError(w, id, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

// handleEvents streams job progress as Server-Sent Events until the job
// reaches a terminal state or the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := s.jobID(w, r)
	if !ok {
		return
	}

	job, err := s.orchestrator.Get(r.Context(), id)
	if err != nil {
		s.jobError(w, id, err)
		return
	}

	// Subscribe before the snapshot so no transition between the two is lost.
	events, unsubscribe := s.orchestrator.Subscribe(id)
	defer unsubscribe()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	_ = sse.WriteEvent("status", job)
	if job.Terminal() {
		sse.WriteComplete(id.String(), string(job.Status))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			if err := sse.WriteEvent("progress", ev); err != nil {
				return
			}
			if ev.Status.Terminal() {
				sse.WriteComplete(id.String(), string(ev.Status))
				return
			}
		}
	}
}

// handleCleanup removes terminal jobs past the retention window.
func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := s.orchestrator.Cleanup(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "cleanup failed")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		verr := &ErrValidation{Field: "id", Message: "must be a UUID"}
		s.errorResponse(w, HTTPStatus(verr), verr.Error())
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) jobError(w http.ResponseWriter, id uuid.UUID, err error) {
	if errors.Is(err, db.ErrNotFound) {
		nf := &ErrJobNotFound{JobID: id}
		s.errorResponse(w, HTTPStatus(nf), nf.Error())
		return
	}
	s.errorResponse(w, http.StatusInternalServerError, err.Error())
}

// downloadFilename builds the attachment name from topic, tone band, and
// creation time.
func downloadFilename(job *types.Job) string {
	var safe []rune
	for _, r := range job.Topic {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			safe = append(safe, r)
		case r == ' ', r == '-', r == '_':
			safe = append(safe, '_')
		}
	}
	topic := strings.Trim(string(safe), "_")
	if len(topic) > 50 {
		topic = topic[:50]
	}
	band := scripting.BandFor(job.Tone).Name
	return fmt.Sprintf("clipforge_%s_%s_%s.mp4", topic, band, job.CreatedAt.Format("20060102_150405"))
}
