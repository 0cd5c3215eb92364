package dubbing

import (
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/video-dubber/errors"
	"github.com/johnquangdev/video-dubber/internal/domain/entities"
	"github.com/johnquangdev/video-dubber/internal/domain/repositories"
	"github.com/johnquangdev/video-dubber/internal/infrastructure/cache"
	"github.com/johnquangdev/video-dubber/internal/infrastructure/media"
	"github.com/johnquangdev/video-dubber/pkg/credentials"
	"github.com/johnquangdev/video-dubber/pkg/jobcontext"
)

const finalizeTimeout = 10 * time.Second

var errShuttingDown = errors.New("service is shutting down")

// Runner executes one dubbing run
type Runner interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// ProviderSource binds provider clients to a request's key overrides
type ProviderSource interface {
	For(overrides credentials.Overrides) Providers
}

// ArtifactStore publishes finished artifacts
type ArtifactStore interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) error
	URL(ctx context.Context, objectName string) (string, error)
}

// ProgressStore records the live position of each run
type ProgressStore interface {
	Report(ctx context.Context, dubID, stage string, percent int) error
	Get(ctx context.Context, dubID string) (cache.Progress, bool, error)
}

// SubmitRequest is an asynchronous dubbing request
type SubmitRequest struct {
	Video          io.Reader
	TargetLanguage string
	Speakers       map[string]entities.SpeakerConfig
	DefaultSpeaker *entities.SpeakerConfig
	Subtitles      SubtitleOptions
	Overrides      credentials.Overrides
}

// DubStatus is a job with its live progress and download links
type DubStatus struct {
	Job      *entities.DubJob
	Progress cache.Progress
	URLs     map[string]string
}

// JobService accepts dubbing requests and runs them on a bounded worker pool
type JobService interface {
	Submit(ctx context.Context, req SubmitRequest) (*entities.DubJob, error)
	Get(ctx context.Context, id uuid.UUID) (*DubStatus, error)
	List(ctx context.Context, status entities.DubJobStatus, limit int) ([]entities.DubJob, error)
	Shutdown(ctx context.Context) error
}

// JobOptions tune the worker pool
type JobOptions struct {
	Workers    int
	RunTimeout time.Duration
	WorkDir    string
}

type jobService struct {
	runner      Runner
	providers   ProviderSource
	jobs        repositories.DubJobRepository
	transcripts repositories.TranscriptRepository
	artifacts   ArtifactStore
	progress    ProgressStore
	opts        JobOptions
	logger      *zap.Logger

	workerSlots chan int // Worker pool: a slot id per concurrent run
	workerWg    sync.WaitGroup
	baseCtx     context.Context
	cancel      context.CancelFunc
	mu          sync.Mutex
	closed      bool
}

// NewJobService constructs the dub job service
func NewJobService(
	runner Runner,
	providers ProviderSource,
	jobs repositories.DubJobRepository,
	transcripts repositories.TranscriptRepository,
	artifacts ArtifactStore,
	progress ProgressStore,
	opts JobOptions,
	logger *zap.Logger,
) JobService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	slots := make(chan int, opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		slots <- i
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &jobService{
		runner:      runner,
		providers:   providers,
		jobs:        jobs,
		transcripts: transcripts,
		artifacts:   artifacts,
		progress:    progress,
		opts:        opts,
		logger:      logger,
		workerSlots: slots,
		baseCtx:     ctx,
		cancel:      cancel,
	}
}

// Submit checks the request, spools the video and queues the run.
// Missing provider keys are reported here rather than after queuing.
func (s *jobService) Submit(ctx context.Context, req SubmitRequest) (*entities.DubJob, error) {
	if req.TargetLanguage == "" {
		return nil, apperrors.ErrValidation("target language is required")
	}
	if req.Video == nil {
		return nil, apperrors.ErrValidation("video is required")
	}

	providers := s.providers.For(req.Overrides)
	if _, err := providers.Transcriber(); err != nil {
		return nil, err
	}
	if _, err := providers.Chat(); err != nil {
		return nil, err
	}

	spool, err := media.NewWorkspace(s.opts.WorkDir)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}
	if _, err := spool.WriteFrom(ArtifactInput, req.Video); err != nil {
		spool.Close()
		return nil, apperrors.ErrInternal(err)
	}

	job := entities.NewDubJob(req.TargetLanguage)
	if err := s.jobs.CreateDubJob(ctx, job); err != nil {
		spool.Close()
		return nil, apperrors.ErrDBQueryFailed("create dub job", err)
	}
	s.reportProgress(ctx, job.ID, entities.DubStageQueued, 0)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		spool.Close()
		s.fail(job, errShuttingDown)
		return nil, apperrors.ErrInternal(errShuttingDown)
	}
	s.workerWg.Add(1)
	s.mu.Unlock()

	// The worker owns job from here on; callers get a snapshot
	queued := *job
	go s.process(job, spool, req, providers)

	if s.logger != nil {
		s.logger.Info("📥 Dub job queued",
			zap.String("dub_id", queued.ID.String()),
			zap.String("target_language", queued.TargetLanguage),
		)
	}
	return &queued, nil
}

func (s *jobService) process(job *entities.DubJob, spool *media.Workspace, req SubmitRequest, providers Providers) {
	defer s.workerWg.Done()
	defer spool.Close()

	// Acquire a worker slot - blocks while every worker is busy
	var workerID int
	select {
	case workerID = <-s.workerSlots:
	case <-s.baseCtx.Done():
		s.fail(job, errShuttingDown)
		return
	}
	defer func() { s.workerSlots <- workerID }()

	ctx, cancel := jobcontext.RunBegin(s.baseCtx, job.ID, workerID, s.opts.RunTimeout)
	defer cancel()

	job.MarkAsRunning()
	if err := s.jobs.UpdateDubJob(ctx, job); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to mark dub job running", zap.String("dub_id", job.ID.String()), zap.Error(err))
	}

	if s.logger != nil {
		s.logger.Info("🔒 Acquired worker slot",
			zap.String("dub_id", job.ID.String()),
			zap.Int("worker_id", workerID),
		)
	}

	video, err := spool.Open(ArtifactInput)
	if err != nil {
		s.fail(job, apperrors.ErrInternal(err))
		return
	}
	defer video.Close()

	result, err := s.runner.Run(ctx, Request{
		Video:          video,
		TargetLanguage: req.TargetLanguage,
		Speakers:       req.Speakers,
		DefaultSpeaker: req.DefaultSpeaker,
		Subtitles:      req.Subtitles,
		Providers:      providers,
		Progress: func(stage entities.DubStage, percent int) {
			s.stage(ctx, job, stage, percent)
		},
	})
	if err != nil {
		s.fail(job, err)
		return
	}

	job.SourceLanguage = result.SourceLanguage
	job.SegmentCount = len(result.Segments)
	job.Degraded = result.Translation != nil && result.Translation.Degraded

	if result.Translation != nil {
		transcript := entities.NewTranscript(job.ID, result.Segments, *result.Translation, result.SourceLanguage)
		if err := s.transcripts.SaveTranscript(ctx, transcript); err != nil && s.logger != nil {
			s.logger.Warn("⚠️ Failed to save transcript", zap.String("dub_id", job.ID.String()), zap.Error(err))
		}
	}

	s.stage(ctx, job, entities.DubStagePublish, 90)
	keys, err := s.publish(ctx, job.ID, result.Files)
	if err != nil {
		s.fail(job, err)
		return
	}

	job.MarkAsCompleted(keys)
	if err := s.jobs.UpdateDubJob(ctx, job); err != nil {
		s.fail(job, apperrors.ErrDBQueryFailed("complete dub job", err))
		return
	}
	s.reportProgress(ctx, job.ID, entities.DubStageDone, 100)

	if s.logger != nil {
		meta := jobcontext.GetRunMetadata(ctx)
		s.logger.Info("✅ Dub job completed",
			zap.String("dub_id", job.ID.String()),
			zap.Int("worker_id", meta.WorkerID),
			zap.Int("artifacts", len(keys)),
			zap.Duration("took", time.Since(meta.StartTime)),
		)
	}
}

// publish uploads every artifact under dubs/<id>/ and returns name -> object key
func (s *jobService) publish(ctx context.Context, dubID uuid.UUID, files map[string][]byte) (map[string]string, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	keys := make(map[string]string, len(files))
	for _, name := range names {
		key := ObjectKey(dubID, name)
		if err := s.artifacts.Put(ctx, key, files[name], ContentType(name)); err != nil {
			return nil, err
		}
		keys[name] = key
	}
	return keys, nil
}

func (s *jobService) stage(ctx context.Context, job *entities.DubJob, stage entities.DubStage, percent int) {
	if job.Stage != stage {
		job.MarkStage(stage)
		if err := s.jobs.UpdateDubJobStage(ctx, job.ID, stage); err != nil && s.logger != nil {
			s.logger.Warn("⚠️ Failed to record stage", zap.String("dub_id", job.ID.String()), zap.Error(err))
		}
	}
	s.reportProgress(ctx, job.ID, stage, percent)
}

func (s *jobService) reportProgress(ctx context.Context, dubID uuid.UUID, stage entities.DubStage, percent int) {
	if err := s.progress.Report(ctx, dubID.String(), string(stage), percent); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to report progress", zap.String("dub_id", dubID.String()), zap.Error(err))
	}
}

// fail records the terminal state. It uses its own context since the run's may be done.
func (s *jobService) fail(job *entities.DubJob, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	if apperrors.HasCode(err, apperrors.ErrorCode_TIMED_OUT) {
		job.MarkAsTimedOut(err.Error())
	} else {
		job.MarkAsFailed(err.Error())
	}
	if uerr := s.jobs.UpdateDubJob(ctx, job); uerr != nil && s.logger != nil {
		s.logger.Error("❌ Failed to record dub job failure", zap.String("dub_id", job.ID.String()), zap.Error(uerr))
	}

	if s.logger != nil {
		s.logger.Error("❌ Dub job failed",
			zap.String("dub_id", job.ID.String()),
			zap.String("status", string(job.Status)),
			zap.String("stage", string(job.Stage)),
			zap.Error(err),
		)
	}
}

// Get returns a job with its progress and, once completed, presigned download URLs
func (s *jobService) Get(ctx context.Context, id uuid.UUID) (*DubStatus, error) {
	job, err := s.jobs.GetDubJobByID(ctx, id)
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("get dub job", err)
	}
	if job == nil {
		return nil, apperrors.ErrDubNotFound(id.String())
	}

	status := &DubStatus{Job: job, URLs: map[string]string{}}

	progress, ok, err := s.progress.Get(ctx, id.String())
	if err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to read progress", zap.String("dub_id", id.String()), zap.Error(err))
	}
	if ok {
		status.Progress = progress
	} else {
		status.Progress = cache.Progress{Stage: string(job.Stage), UpdatedAt: job.UpdatedAt}
		if job.Status == entities.DubJobStatusCompleted {
			status.Progress.Percent = 100
		}
	}

	if job.Status == entities.DubJobStatusCompleted {
		for name, key := range job.Artifacts.Data() {
			url, err := s.artifacts.URL(ctx, key)
			if err != nil {
				return nil, err
			}
			status.URLs[name] = url
		}
	}
	return status, nil
}

// List returns the newest jobs, optionally filtered by status
func (s *jobService) List(ctx context.Context, status entities.DubJobStatus, limit int) ([]entities.DubJob, error) {
	jobs, err := s.jobs.ListDubJobs(ctx, status, limit)
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("list dub jobs", err)
	}
	return jobs, nil
}

// Shutdown stops accepting jobs and waits for running ones. When ctx
// expires first, running jobs are cancelled and ctx's error is returned.
func (s *jobService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}

// ObjectKey is the storage key of a published artifact
func ObjectKey(dubID uuid.UUID, name string) string {
	return path.Join("dubs", dubID.String(), name)
}

// ContentType maps an artifact name to its MIME type
func ContentType(name string) string {
	switch path.Ext(name) {
	case ".mp4":
		return "video/mp4"
	case ".wav":
		return "audio/wav"
	case ".srt":
		return "application/x-subrip"
	}
	return "application/octet-stream"
}
