package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/martin/clipforge/internal/config"
	"github.com/martin/clipforge/internal/db"
	"github.com/martin/clipforge/internal/types"
)

// queueDepth bounds how many jobs can wait behind the workers.
const queueDepth = 64

// retryBackoff is the base delay between retries of a transient failure;
// attempt N waits N times this long.
const retryBackoff = 2 * time.Second

// stageStatus maps each stage to the status a job holds while running it.
var stageStatus = map[types.Stage]types.Status{
	types.StageResearch:   types.StatusResearching,
	types.StageScripting:  types.StatusScripting,
	types.StageProduction: types.StatusProducing,
}

// stageOrder is the fixed progression of the pipeline.
var stageOrder = []types.Stage{types.StageResearch, types.StageScripting, types.StageProduction}

// Orchestrator owns the job state machine. Every transition is persisted
// before the next stage starts, so a crash never loses completed work.
type Orchestrator struct {
	store      db.Store
	researcher Researcher
	writer     ScriptWriter
	producer   Producer
	cfg        *config.Config
	events     *broadcaster

	queue chan uuid.UUID
	wg    sync.WaitGroup
}

// NewOrchestrator wires the stages to the store.
func NewOrchestrator(store db.Store, researcher Researcher, writer ScriptWriter, producer Producer, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		store:      store,
		researcher: researcher,
		writer:     writer,
		producer:   producer,
		cfg:        cfg,
		events:     newBroadcaster(),
		queue:      make(chan uuid.UUID, queueDepth),
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) {
	for i := 0; i < o.cfg.MaxConcurrentJobs; i++ {
		o.wg.Add(1)
		go o.worker(ctx)
	}
}

// Wait blocks until all workers have exited.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Submit creates a queued job for the topic and enqueues it. Invalid input is
// rejected here, not just at the transport edge, with KindInvalidInput.
func (o *Orchestrator) Submit(ctx context.Context, topic string, tone float64, models map[string]string) (*types.Job, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, types.NewStageError("", types.KindInvalidInput, "topic must not be empty")
	}
	if tone < 0 || tone > 1 {
		return nil, types.NewStageError("", types.KindInvalidInput, "tone must be between 0 and 1")
	}

	now := time.Now().UTC()
	job := &types.Job{
		ID:        uuid.New(),
		Topic:     topic,
		Tone:      tone,
		Models:    models,
		Stage:     types.StageResearch,
		Status:    types.StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.AddLog(fmt.Sprintf("job created for topic %q", topic))

	if err := o.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("persist new job: %w", err)
	}

	select {
	case o.queue <- job.ID:
	default:
		// No worker will ever see this job; remove the record rather than
		// leave a queued entry that only a restart would pick up.
		if delErr := o.store.DeleteJob(ctx, job.ID); delErr != nil {
			log.Printf("[PIPELINE] remove unqueued job %s: %v", job.ID, delErr)
		}
		return nil, fmt.Errorf("job queue is full")
	}
	return job, nil
}

// Get returns the job by ID.
func (o *Orchestrator) Get(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	return o.store.GetJob(ctx, id)
}

// List returns all jobs, newest first.
func (o *Orchestrator) List(ctx context.Context) ([]*types.Job, error) {
	return o.store.ListJobs(ctx)
}

// Cancel requests cooperative cancellation. A queued job is cancelled
// immediately; a running job stops at its next stage boundary. Terminal jobs
// are left untouched and reported as already finished. The flag is set with a
// store-level atomic update so the worker's stage-output writes are never
// overwritten by a stale copy.
func (o *Orchestrator) Cancel(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	job, err := o.store.SetCancelRequested(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Terminal() {
		return job, nil
	}
	if job.Status == types.StatusQueued {
		o.finishCancelled(ctx, job)
	}
	return job, nil
}

// Cleanup removes terminal jobs older than the retention window and their
// work directories.
func (o *Orchestrator) Cleanup(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -o.cfg.RetentionDays)

	jobs, err := o.store.ListJobs(ctx)
	if err != nil {
		return 0, err
	}
	for _, job := range jobs {
		if job.Terminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			if err := os.RemoveAll(o.workDir(job.ID)); err != nil {
				log.Printf("[CLEANUP] remove work dir for %s: %v", job.ID, err)
			}
		}
	}
	return o.store.DeleteTerminalBefore(ctx, cutoff)
}

// Recover re-enqueues jobs that were mid-flight when the process stopped.
// Persisted stage outputs are kept, so a job resumes at its recorded stage
// rather than starting over.
func (o *Orchestrator) Recover(ctx context.Context) error {
	jobs, err := o.store.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("list jobs for recovery: %w", err)
	}

	for _, job := range jobs {
		if job.Terminal() {
			continue
		}
		if job.CancelRequested {
			o.finishCancelled(ctx, job)
			continue
		}
		job.Status = types.StatusQueued
		job.AddLog("re-queued after restart")
		job.UpdatedAt = time.Now().UTC()
		if err := o.store.UpdateJob(ctx, job); err != nil {
			return fmt.Errorf("re-queue job %s: %w", job.ID, err)
		}
		select {
		case o.queue <- job.ID:
		default:
			return fmt.Errorf("job queue full during recovery")
		}
		log.Printf("[RECOVER] re-queued job %s at stage %s", job.ID, job.Stage)
	}
	return nil
}

// Subscribe returns a stream of progress events for the job.
func (o *Orchestrator) Subscribe(id uuid.UUID) (<-chan ProgressEvent, func()) {
	return o.events.Subscribe(id)
}

func (o *Orchestrator) worker(ctx context.Context) {
	defer o.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-o.queue:
			o.runJob(ctx, id)
		}
	}
}

// runJob drives one job through its remaining stages. Each stage's output is
// persisted before the job advances; a stage whose output already exists is
// skipped, which is what makes restart recovery resume instead of redo.
func (o *Orchestrator) runJob(ctx context.Context, id uuid.UUID) {
	job, err := o.store.GetJob(ctx, id)
	if err != nil {
		log.Printf("[PIPELINE] load job %s: %v", id, err)
		return
	}
	if job.Terminal() {
		return
	}

	for _, stage := range stageOrder {
		if stageDone(job, stage) {
			continue
		}
		if job.CancelRequested {
			o.finishCancelled(ctx, job)
			return
		}
		if ctx.Err() != nil {
			// Shutdown mid-job: leave the job non-terminal for recovery.
			return
		}

		job.Stage = stage
		job.Status = stageStatus[stage]
		o.logAndPersist(ctx, job, fmt.Sprintf("%s stage started", stage))

		if err := o.runStage(ctx, job, stage); err != nil {
			if ctx.Err() != nil {
				return
			}
			o.finishFailed(ctx, job, stage, err)
			return
		}
		// logAndPersist merges the stored cancel flag, so a request made
		// during the stage takes effect at the next boundary check.
		o.logAndPersist(ctx, job, fmt.Sprintf("%s stage complete", stage))
	}

	now := time.Now().UTC()
	job.Status = types.StatusSucceeded
	job.CompletedAt = &now
	o.logAndPersist(ctx, job, "job succeeded")
}

// runStage executes one stage, retrying transient failures.
func (o *Orchestrator) runStage(ctx context.Context, job *types.Job, stage types.Stage) error {
	var lastErr error
	for attempt := 0; attempt <= o.cfg.StageRetries; attempt++ {
		if attempt > 0 {
			o.logAndPersist(ctx, job, fmt.Sprintf("%s retry %d/%d", stage, attempt, o.cfg.StageRetries))
			select {
			case <-time.After(time.Duration(attempt) * retryBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = o.execStage(ctx, job, stage)
		if lastErr == nil {
			return nil
		}

		var stageErr *types.StageError
		if !errors.As(lastErr, &stageErr) || !stageErr.Transient() {
			return lastErr
		}
	}
	return lastErr
}

func (o *Orchestrator) execStage(ctx context.Context, job *types.Job, stage types.Stage) error {
	switch stage {
	case types.StageResearch:
		bundle, err := o.researcher.Research(ctx, job.Topic)
		if err != nil {
			return err
		}
		job.Research = bundle
		return nil

	case types.StageScripting:
		script, err := o.writer.Write(ctx, job.Research, job.Tone, o.modelFor(job, "scripting"))
		if err != nil {
			return err
		}
		job.Script = script
		return nil

	case types.StageProduction:
		workDir := o.workDir(job.ID)
		if err := os.MkdirAll(workDir, 0755); err != nil {
			return types.WrapStageError(types.StageProduction, types.KindInternal, err, "create work dir")
		}
		assets, track, video, err := o.producer.Produce(ctx, job, workDir)
		if err != nil {
			return err
		}
		// The script stage bounds estimated beat durations; the rendered file
		// is what actually has to fit.
		if video.Seconds < o.cfg.MinVideoSeconds || video.Seconds > o.cfg.MaxVideoSeconds {
			return types.NewStageError(types.StageProduction, types.KindDurationConstraint,
				"rendered video is %.1fs, outside [%.0f, %.0f]", video.Seconds, o.cfg.MinVideoSeconds, o.cfg.MaxVideoSeconds)
		}
		job.Assets = assets
		job.Subtitles = track
		job.Output = video
		return nil

	default:
		return types.NewStageError(stage, types.KindInternal, "unknown stage")
	}
}

func (o *Orchestrator) modelFor(job *types.Job, stage string) string {
	if m, ok := job.Models[stage]; ok && m != "" {
		return m
	}
	switch stage {
	case "research":
		return config.DefaultResearchModel
	default:
		return config.DefaultScriptingModel
	}
}

func (o *Orchestrator) workDir(id uuid.UUID) string {
	return filepath.Join(o.cfg.WorkDir, id.String())
}

func (o *Orchestrator) finishCancelled(ctx context.Context, job *types.Job) {
	now := time.Now().UTC()
	job.Status = types.StatusCancelled
	job.CompletedAt = &now
	o.logAndPersist(ctx, job, "job cancelled")
}

func (o *Orchestrator) finishFailed(ctx context.Context, job *types.Job, stage types.Stage, err error) {
	var stageErr *types.StageError
	if !errors.As(err, &stageErr) {
		stageErr = types.WrapStageError(stage, types.KindInternal, err, "%v", err)
	}

	now := time.Now().UTC()
	job.Status = types.StatusFailed
	job.Error = stageErr
	job.CompletedAt = &now
	o.logAndPersist(ctx, job, fmt.Sprintf("job failed: %s", stageErr.Message))
}

// logAndPersist appends a log entry, persists the job, and notifies
// subscribers. The stored CancelRequested flag is merged in first so a
// cancellation set by another goroutine is never overwritten. Persistence
// failures are logged; the in-memory job keeps running so a flaky store
// degrades to lost progress, not lost jobs.
func (o *Orchestrator) logAndPersist(ctx context.Context, job *types.Job, message string) {
	if stored, err := o.store.GetJob(ctx, job.ID); err == nil && stored.CancelRequested {
		job.CancelRequested = true
	}
	job.AddLog(message)
	job.UpdatedAt = time.Now().UTC()
	if err := o.store.UpdateJob(ctx, job); err != nil {
		log.Printf("[PIPELINE] persist job %s: %v", job.ID, err)
	}
	o.events.Publish(job.ID, ProgressEvent{
		JobID:   job.ID.String(),
		Status:  job.Status,
		Stage:   job.Stage,
		Message: message,
	})
}

func stageDone(job *types.Job, stage types.Stage) bool {
	switch stage {
	case types.StageResearch:
		return job.Research != nil
	case types.StageScripting:
		return job.Script != nil
	case types.StageProduction:
		return job.Output != nil
	}
	return false
}
