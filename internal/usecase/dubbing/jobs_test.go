package dubbing

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/johnquangdev/video-dubber/errors"
	"github.com/johnquangdev/video-dubber/internal/domain/entities"
	"github.com/johnquangdev/video-dubber/internal/infrastructure/cache"
	"github.com/johnquangdev/video-dubber/pkg/credentials"
)

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]entities.DubJob
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: map[uuid.UUID]entities.DubJob{}}
}

func (r *memJobRepo) CreateDubJob(ctx context.Context, job *entities.DubJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *memJobRepo) GetDubJobByID(ctx context.Context, id uuid.UUID) (*entities.DubJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

func (r *memJobRepo) ListDubJobs(ctx context.Context, status entities.DubJobStatus, limit int) ([]entities.DubJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.DubJob
	for _, j := range r.jobs {
		if status == "" || j.Status == status {
			out = append(out, j)
		}
	}
	return out, nil
}

func (r *memJobRepo) UpdateDubJob(ctx context.Context, job *entities.DubJob) error {
	return r.CreateDubJob(ctx, job)
}

func (r *memJobRepo) UpdateDubJobStage(ctx context.Context, id uuid.UUID, stage entities.DubStage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.jobs[id]
	job.Stage = stage
	r.jobs[id] = job
	return nil
}

type memTranscriptRepo struct {
	mu    sync.Mutex
	saved map[uuid.UUID]*entities.Transcript
}

func (r *memTranscriptRepo) SaveTranscript(ctx context.Context, t *entities.Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saved == nil {
		r.saved = map[uuid.UUID]*entities.Transcript{}
	}
	r.saved[t.DubJobID] = t
	return nil
}

func (r *memTranscriptRepo) GetTranscriptByDubJobID(ctx context.Context, id uuid.UUID) (*entities.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved[id], nil
}

type memArtifacts struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (a *memArtifacts) Put(ctx context.Context, name string, data []byte, contentType string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[name] = data
	return nil
}

func (a *memArtifacts) URL(ctx context.Context, name string) (string, error) {
	return "https://cdn.test/" + name, nil
}

type staticSource struct {
	providers *fakeProviders
}

func (s staticSource) For(credentials.Overrides) Providers {
	return s.providers
}

type runnerFunc func(ctx context.Context, req Request) (*Result, error)

func (f runnerFunc) Run(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}

func completedRun(ctx context.Context, req Request) (*Result, error) {
	if _, err := io.ReadAll(req.Video); err != nil {
		return nil, err
	}
	req.Progress(entities.DubStageMux, 80)
	segs := []entities.Segment{{Start: 0, End: 1, Text: "hi", Speaker: "S0"}}
	return &Result{
		SourceLanguage: "en",
		Segments:       segs,
		Translation:    &entities.Translation{Language: req.TargetLanguage, Segments: segs},
		Speakers:       []string{"S0"},
		Files: map[string][]byte{
			ArtifactOutput:    []byte("mp4"),
			ArtifactTargetSRT: []byte("srt"),
		},
	}, nil
}

type jobFixture struct {
	svc         JobService
	jobs        *memJobRepo
	transcripts *memTranscriptRepo
	artifacts   *memArtifacts
	providers   *fakeProviders
}

func newJobFixture(t *testing.T, runner Runner, workers int) *jobFixture {
	t.Helper()
	store := cache.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	f := &jobFixture{
		jobs:        newMemJobRepo(),
		transcripts: &memTranscriptRepo{},
		artifacts:   &memArtifacts{},
		providers:   newFakeProviders(twoSpeakerTranscript(), "[]"),
	}
	f.svc = NewJobService(runner, staticSource{f.providers}, f.jobs, f.transcripts, f.artifacts,
		cache.NewProgressTracker(store), JobOptions{Workers: workers, WorkDir: t.TempDir()}, nil)
	return f
}

func (f *jobFixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.svc.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestJobService_SubmitCompletes(t *testing.T) {
	f := newJobFixture(t, runnerFunc(completedRun), 2)
	ctx := context.Background()

	job, err := f.svc.Submit(ctx, SubmitRequest{Video: strings.NewReader("video"), TargetLanguage: "fr"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != entities.DubJobStatusPending {
		t.Fatalf("expected pending snapshot, got %s", job.Status)
	}
	f.drain(t)

	status, err := f.svc.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Job.Status != entities.DubJobStatusCompleted || status.Job.SourceLanguage != "en" || status.Job.SegmentCount != 1 {
		t.Fatalf("unexpected job %+v", status.Job)
	}
	if status.Progress.Percent != 100 || status.Progress.Stage != string(entities.DubStageDone) {
		t.Fatalf("unexpected progress %+v", status.Progress)
	}

	key := ObjectKey(job.ID, ArtifactOutput)
	if string(f.artifacts.objects[key]) != "mp4" {
		t.Fatalf("output not published under %s", key)
	}
	if status.URLs[ArtifactOutput] != "https://cdn.test/"+key {
		t.Fatalf("unexpected urls %v", status.URLs)
	}
	if f.transcripts.saved[job.ID] == nil {
		t.Fatal("expected transcript to be saved")
	}
}

func TestJobService_MissingKeyRejectsSubmit(t *testing.T) {
	f := newJobFixture(t, runnerFunc(completedRun), 1)
	f.providers.missing = map[credentials.Key]bool{credentials.AssemblyAIKey: true}

	_, err := f.svc.Submit(context.Background(), SubmitRequest{Video: strings.NewReader("video"), TargetLanguage: "fr"})
	if !apperrors.HasCode(err, apperrors.ErrorCode_CONFIGURATION) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(f.jobs.jobs) != 0 {
		t.Fatal("no job must be created")
	}
}

func TestJobService_TimedOutRun(t *testing.T) {
	runner := runnerFunc(func(ctx context.Context, req Request) (*Result, error) {
		return nil, apperrors.ErrTimedOut("transcription", context.DeadlineExceeded)
	})
	f := newJobFixture(t, runner, 1)
	ctx := context.Background()

	job, err := f.svc.Submit(ctx, SubmitRequest{Video: strings.NewReader("video"), TargetLanguage: "fr"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.drain(t)

	status, err := f.svc.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Job.Status != entities.DubJobStatusTimedOut || status.Job.LastError == nil {
		t.Fatalf("expected timed out job, got %+v", status.Job)
	}
	if len(status.URLs) != 0 || len(f.artifacts.objects) != 0 {
		t.Fatal("failed runs must not publish artifacts")
	}
}

func TestJobService_WorkerPoolBound(t *testing.T) {
	var running, peak int32
	runner := runnerFunc(func(ctx context.Context, req Request) (*Result, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return completedRun(ctx, req)
	})
	f := newJobFixture(t, runner, 2)

	for i := 0; i < 5; i++ {
		if _, err := f.svc.Submit(context.Background(), SubmitRequest{Video: strings.NewReader("v"), TargetLanguage: "fr"}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	f.drain(t)

	if peak > 2 {
		t.Fatalf("expected at most 2 concurrent runs, saw %d", peak)
	}
	completed, err := f.svc.List(context.Background(), entities.DubJobStatusCompleted, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(completed) != 5 {
		t.Fatalf("expected 5 completed jobs, got %d", len(completed))
	}
}

func TestJobService_GetUnknown(t *testing.T) {
	f := newJobFixture(t, runnerFunc(completedRun), 1)

	_, err := f.svc.Get(context.Background(), uuid.New())
	if !apperrors.HasCode(err, apperrors.ErrorCode_NOT_FOUND) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestJobService_RejectsAfterShutdown(t *testing.T) {
	f := newJobFixture(t, runnerFunc(completedRun), 1)
	f.drain(t)

	_, err := f.svc.Submit(context.Background(), SubmitRequest{Video: strings.NewReader("v"), TargetLanguage: "fr"})
	if err == nil {
		t.Fatal("expected submit after shutdown to fail")
	}
}

func TestContentType(t *testing.T) {
	cases := map[string]string{
		"output.mp4": "video/mp4",
		"target.srt": "application/x-subrip",
		"dubbed.wav": "audio/wav",
		"notes.bin":  "application/octet-stream",
	}
	for name, want := range cases {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}
