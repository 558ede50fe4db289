package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martin/clipforge/internal/config"
	"github.com/martin/clipforge/internal/db"
	"github.com/martin/clipforge/internal/types"
)

type stubResearcher struct {
	calls int32
	err   error
	errs  []error // per-call errors; nil entries succeed
	block chan struct{}
}

func (s *stubResearcher) Research(ctx context.Context, topic string) (*types.ResearchBundle, error) {
	call := atomic.AddInt32(&s.calls, 1)
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.errs != nil && int(call) <= len(s.errs) && s.errs[call-1] != nil {
		return nil, s.errs[call-1]
	}
	if s.err != nil {
		return nil, s.err
	}
	return &types.ResearchBundle{
		Topic:    topic,
		Snippets: []types.Snippet{{Source: types.SourceWeb, Title: "a fact", Score: 1}},
	}, nil
}

type stubWriter struct {
	calls int32
	err   error
}

func (s *stubWriter) Write(ctx context.Context, bundle *types.ResearchBundle, tone float64, model string) (*types.Script, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return &types.Script{
		Topic:    bundle.Topic,
		ToneBand: "balanced",
		Beats: []types.Beat{
			{Role: types.RoleHook, Text: "hook", Seconds: 5},
			{Role: types.RoleBody, Text: "body", Seconds: 25},
			{Role: types.RoleCTA, Text: "cta", Seconds: 5},
		},
	}, nil
}

type stubProducer struct {
	calls   int32
	err     error
	seconds float64 // rendered duration; 0 means 35
}

func (s *stubProducer) Produce(ctx context.Context, job *types.Job, workDir string) (*types.MediaAssets, *types.SubtitleTrack, *types.RenderedVideo, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, nil, nil, s.err
	}
	sec := s.seconds
	if sec == 0 {
		sec = 35
	}
	return &types.MediaAssets{NarrationPath: "n.mp3", NarrationSeconds: sec, TemplatePath: "t.mp4"},
		&types.SubtitleTrack{Captions: []types.Caption{{Start: 0, End: sec, Text: "hook body cta"}}},
		&types.RenderedVideo{Path: "final.mp4", Seconds: sec, SHA256: "ab", SizeBytes: 1}, nil
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		WorkDir:           t.TempDir(),
		MinVideoSeconds:   30,
		MaxVideoSeconds:   90,
		MaxConcurrentJobs: 2,
		StageRetries:      2,
		RetentionDays:     7,
	}
}

func newTestOrchestrator(t *testing.T, r Researcher, w ScriptWriter, p Producer) (*Orchestrator, db.Store) {
	store := db.NewMemoryStore()
	return NewOrchestrator(store, r, w, p, testConfig(t)), store
}

// waitTerminal polls until the job reaches a terminal state.
func waitTerminal(t *testing.T, store db.Store, id uuid.UUID) *types.Job {
	t.Helper()
	// Generous deadline: a transient-retry path waits through 2s+4s of backoff.
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), id)
		require.NoError(t, err)
		if job.Terminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal state")
	return nil
}

func TestOrchestrator_HappyPath(t *testing.T) {
	researcher := &stubResearcher{}
	writer := &stubWriter{}
	producer := &stubProducer{}
	o, store := newTestOrchestrator(t, researcher, writer, producer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	job, err := o.Submit(ctx, "octopus camouflage", 0.5, nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusQueued, job.Status)

	final := waitTerminal(t, store, job.ID)
	assert.Equal(t, types.StatusSucceeded, final.Status)
	assert.NotNil(t, final.Research)
	assert.NotNil(t, final.Script)
	assert.NotNil(t, final.Output)
	assert.NotNil(t, final.CompletedAt)
	assert.Nil(t, final.Error)
	assert.Equal(t, int32(1), researcher.calls)
	assert.Equal(t, int32(1), writer.calls)
	assert.Equal(t, int32(1), producer.calls)
}

func TestOrchestrator_TransientRetry(t *testing.T) {
	transient := types.NewStageError(types.StageResearch, types.KindTransientExternal, "flaky upstream")
	researcher := &stubResearcher{errs: []error{transient, transient, nil}}
	o, store := newTestOrchestrator(t, researcher, &stubWriter{}, &stubProducer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	job, err := o.Submit(ctx, "volcanoes", 0.5, nil)
	require.NoError(t, err)

	final := waitTerminal(t, store, job.ID)
	assert.Equal(t, types.StatusSucceeded, final.Status)
	assert.Equal(t, int32(3), researcher.calls, "two retries then success")
}

func TestOrchestrator_TransientExhausted(t *testing.T) {
	transient := types.NewStageError(types.StageResearch, types.KindTransientExternal, "still flaky")
	researcher := &stubResearcher{err: transient}
	o, store := newTestOrchestrator(t, researcher, &stubWriter{}, &stubProducer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	job, err := o.Submit(ctx, "volcanoes", 0.5, nil)
	require.NoError(t, err)

	final := waitTerminal(t, store, job.ID)
	assert.Equal(t, types.StatusFailed, final.Status)
	require.NotNil(t, final.Error)
	assert.Equal(t, types.KindTransientExternal, final.Error.Kind)
	assert.Equal(t, int32(3), researcher.calls, "initial attempt plus two retries")
}

func TestOrchestrator_PermanentFailureNotRetried(t *testing.T) {
	writer := &stubWriter{err: types.NewStageError(types.StageScripting, types.KindMalformedOutput, "bad JSON twice")}
	o, store := newTestOrchestrator(t, &stubResearcher{}, writer, &stubProducer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	job, err := o.Submit(ctx, "volcanoes", 0.5, nil)
	require.NoError(t, err)

	final := waitTerminal(t, store, job.ID)
	assert.Equal(t, types.StatusFailed, final.Status)
	assert.Equal(t, int32(1), writer.calls)
	require.NotNil(t, final.Error)
	assert.Equal(t, types.StageScripting, final.Error.Stage)
	assert.Equal(t, types.KindMalformedOutput, final.Error.Kind)
	assert.NotNil(t, final.Research, "completed stage output is kept")
}

func TestOrchestrator_RenderedDurationOutOfBounds(t *testing.T) {
	// TTS can legitimately come out shorter than the script's estimates; the
	// rendered file is checked against the configured bounds, not the script.
	producer := &stubProducer{seconds: 12}
	o, store := newTestOrchestrator(t, &stubResearcher{}, &stubWriter{}, producer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	job, err := o.Submit(ctx, "volcanoes", 0.5, nil)
	require.NoError(t, err)

	final := waitTerminal(t, store, job.ID)
	assert.Equal(t, types.StatusFailed, final.Status)
	assert.Nil(t, final.Output, "out-of-bounds render is not kept as an artifact")
	require.NotNil(t, final.Error)
	assert.Equal(t, types.StageProduction, final.Error.Stage)
	assert.Equal(t, types.KindDurationConstraint, final.Error.Kind)
	assert.Equal(t, int32(1), producer.calls, "duration violations are not retried")
}

func TestOrchestrator_SubmitRejectsInvalidInput(t *testing.T) {
	o, store := newTestOrchestrator(t, &stubResearcher{}, &stubWriter{}, &stubProducer{})
	ctx := context.Background()

	tests := []struct {
		name  string
		topic string
		tone  float64
	}{
		{"empty topic", "", 0.5},
		{"whitespace topic", "   \t", 0.5},
		{"tone below zero", "volcanoes", -0.1},
		{"tone above one", "volcanoes", 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.Submit(ctx, tt.topic, tt.tone, nil)
			require.Error(t, err)

			var stageErr *types.StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, types.KindInvalidInput, stageErr.Kind)
		})
	}

	jobs, err := store.ListJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs, "rejected submissions leave no record")
}

func TestOrchestrator_SubmitQueueFullLeavesNoRecord(t *testing.T) {
	o, store := newTestOrchestrator(t, &stubResearcher{}, &stubWriter{}, &stubProducer{})
	ctx := context.Background()
	// No workers started, so the queue only drains on capacity.

	for i := 0; i < queueDepth; i++ {
		_, err := o.Submit(ctx, "volcanoes", 0.5, nil)
		require.NoError(t, err)
	}

	_, err := o.Submit(ctx, "one too many", 0.5, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue is full")

	jobs, err := store.ListJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, queueDepth, "the overflow submission is not persisted")
}

func TestOrchestrator_CancelQueued(t *testing.T) {
	o, store := newTestOrchestrator(t, &stubResearcher{}, &stubWriter{}, &stubProducer{})
	// No workers started: the job stays queued.

	ctx := context.Background()
	job, err := o.Submit(ctx, "volcanoes", 0.5, nil)
	require.NoError(t, err)

	cancelled, err := o.Cancel(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCancelled, cancelled.Status)

	stored, err := store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCancelled, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
}

func TestOrchestrator_CancelAtStageBoundary(t *testing.T) {
	block := make(chan struct{})
	researcher := &stubResearcher{block: block}
	writer := &stubWriter{}
	o, store := newTestOrchestrator(t, researcher, writer, &stubProducer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	job, err := o.Submit(ctx, "volcanoes", 0.5, nil)
	require.NoError(t, err)

	// Wait until the research stage is running, then request cancellation.
	require.Eventually(t, func() bool {
		j, err := store.GetJob(ctx, job.ID)
		return err == nil && j.Status == types.StatusResearching
	}, 5*time.Second, 10*time.Millisecond)

	_, err = o.Cancel(ctx, job.ID)
	require.NoError(t, err)
	close(block) // let research finish

	final := waitTerminal(t, store, job.ID)
	assert.Equal(t, types.StatusCancelled, final.Status)
	assert.NotNil(t, final.Research, "research output from the completed stage is kept")
	assert.Equal(t, int32(0), writer.calls, "no stage starts after the cancelled boundary")
}

func TestOrchestrator_CancelTerminalIsNoop(t *testing.T) {
	o, store := newTestOrchestrator(t, &stubResearcher{}, &stubWriter{}, &stubProducer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	job, err := o.Submit(ctx, "volcanoes", 0.5, nil)
	require.NoError(t, err)
	final := waitTerminal(t, store, job.ID)
	require.Equal(t, types.StatusSucceeded, final.Status)

	got, err := o.Cancel(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusSucceeded, got.Status)
}

func TestOrchestrator_RecoverResumesFromPersistedStage(t *testing.T) {
	store := db.NewMemoryStore()
	ctx := context.Background()

	// A job that crashed mid-scripting: research output persisted.
	interrupted := &types.Job{
		ID:        uuid.New(),
		Topic:     "volcanoes",
		Tone:      0.5,
		Stage:     types.StageScripting,
		Status:    types.StatusScripting,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		Research:  &types.ResearchBundle{Topic: "volcanoes", Snippets: []types.Snippet{{Title: "persisted"}}},
	}
	require.NoError(t, store.CreateJob(ctx, interrupted))

	researcher := &stubResearcher{}
	writer := &stubWriter{}
	o := NewOrchestrator(store, researcher, writer, &stubProducer{}, testConfig(t))

	require.NoError(t, o.Recover(ctx))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.Start(runCtx)

	final := waitTerminal(t, store, interrupted.ID)
	assert.Equal(t, types.StatusSucceeded, final.Status)
	assert.Equal(t, int32(0), researcher.calls, "research is not redone")
	assert.Equal(t, int32(1), writer.calls)
}

func TestOrchestrator_RecoverCancelsFlaggedJobs(t *testing.T) {
	store := db.NewMemoryStore()
	ctx := context.Background()

	flagged := &types.Job{
		ID:              uuid.New(),
		Topic:           "volcanoes",
		Stage:           types.StageResearch,
		Status:          types.StatusResearching,
		CancelRequested: true,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	require.NoError(t, store.CreateJob(ctx, flagged))

	o := NewOrchestrator(store, &stubResearcher{}, &stubWriter{}, &stubProducer{}, testConfig(t))
	require.NoError(t, o.Recover(ctx))

	job, err := store.GetJob(ctx, flagged.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCancelled, job.Status)
}

func TestOrchestrator_SubscribeReceivesEvents(t *testing.T) {
	o, store := newTestOrchestrator(t, &stubResearcher{}, &stubWriter{}, &stubProducer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job, err := o.Submit(ctx, "volcanoes", 0.5, nil)
	require.NoError(t, err)

	events, unsubscribe := o.Subscribe(job.ID)
	defer unsubscribe()

	var mu sync.Mutex
	var received []ProgressEvent
	done := make(chan struct{})
	go func() {
		for ev := range events {
			mu.Lock()
			received = append(received, ev)
			mu.Unlock()
			if ev.Status.Terminal() {
				close(done)
				return
			}
		}
	}()

	o.Start(ctx)
	waitTerminal(t, store, job.ID)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("no terminal event received")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, received)
	assert.Equal(t, types.StatusSucceeded, received[len(received)-1].Status)
}

func TestOrchestrator_Cleanup(t *testing.T) {
	o, store := newTestOrchestrator(t, &stubResearcher{}, &stubWriter{}, &stubProducer{})
	ctx := context.Background()

	old := &types.Job{
		ID:        uuid.New(),
		Topic:     "ancient history",
		Status:    types.StatusSucceeded,
		CreatedAt: time.Now().UTC().AddDate(0, 0, -30),
	}
	past := time.Now().UTC().AddDate(0, 0, -30)
	old.CompletedAt = &past
	require.NoError(t, store.CreateJob(ctx, old))

	removed, err := o.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.GetJob(ctx, old.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}
