package transcription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/video-dubber/errors"
	"github.com/johnquangdev/video-dubber/internal/domain/entities"
	pkgai "github.com/johnquangdev/video-dubber/pkg/ai"
)

// JobState is the lifecycle of one transcription job
type JobState string

const (
	JobStateUploading JobState = "uploading"
	JobStateCreated   JobState = "created"
	JobStatePolling   JobState = "polling"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
	JobStateTimedOut  JobState = "timed_out"
)

// Default poll cadence
const (
	DefaultPollInterval = 2 * time.Second
	DefaultPollAttempts = 300
)

// Provider is the transcription service the state machine drives
type Provider interface {
	Upload(ctx context.Context, audio io.Reader) (string, error)
	Submit(ctx context.Context, audioURL string) (pkgai.Transcript, error)
	Get(ctx context.Context, transcriptID string) (pkgai.Transcript, error)
}

// Options tune polling
type Options struct {
	PollInterval time.Duration
	PollAttempts int
}

// Result is the outcome of a transcription run
type Result struct {
	State        JobState
	TranscriptID string
	Language     string
	Segments     []entities.Segment
	Attempts     int
}

// Service transcribes raw audio into speaker-attributed segments
type Service interface {
	Transcribe(ctx context.Context, audio io.Reader) (*Result, error)
}

type transcriptionService struct {
	provider Provider
	opts     Options
	logger   *zap.Logger
}

var errStillProcessing = errors.New("transcript still processing")

// NewTranscriptionService creates a transcription service bound to one provider client
func NewTranscriptionService(provider Provider, opts Options, logger *zap.Logger) Service {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = DefaultPollAttempts
	}
	return &transcriptionService{
		provider: provider,
		opts:     opts,
		logger:   logger,
	}
}

// Transcribe uploads audio, creates a job and polls it to a terminal state.
// The returned Result is non-nil even on error and reports the state reached.
func (s *transcriptionService) Transcribe(ctx context.Context, audio io.Reader) (*Result, error) {
	result := &Result{State: JobStateUploading}

	uploadURL, err := s.provider.Upload(ctx, audio)
	if err != nil {
		result.State = JobStateFailed
		return result, s.fail(ctx, "upload", err)
	}

	transcript, err := s.provider.Submit(ctx, uploadURL)
	if err != nil {
		result.State = JobStateFailed
		return result, s.fail(ctx, "create", err)
	}
	result.State = JobStateCreated
	result.TranscriptID = transcript.ID

	if s.logger != nil {
		s.logger.Info("🎙️ Transcription job created",
			zap.String("transcript_id", transcript.ID),
		)
	}

	if transcript.Status == pkgai.TranscriptStatusError {
		result.State = JobStateFailed
		return result, jobError(transcript.Error)
	}

	result.State = JobStatePolling
	final, err := s.poll(ctx, transcript.ID, &result.Attempts)
	if err != nil {
		if isTimeout(err) {
			result.State = JobStateTimedOut
			if s.logger != nil {
				s.logger.Warn("⏱️ Transcription timed out",
					zap.String("transcript_id", transcript.ID),
					zap.Int("attempts", result.Attempts),
				)
			}
			return result, apperrors.ErrTimedOut("transcription", err)
		}
		result.State = JobStateFailed
		return result, s.fail(ctx, "poll", err)
	}

	result.State = JobStateCompleted
	result.Language = final.LanguageCode
	if result.Language == "" {
		result.Language = "auto"
	}
	result.Segments = ExtractSegments(final)

	if s.logger != nil {
		s.logger.Info("✅ Transcription completed",
			zap.String("transcript_id", transcript.ID),
			zap.String("language", result.Language),
			zap.Int("segments", len(result.Segments)),
			zap.Int("attempts", result.Attempts),
		)
	}
	return result, nil
}

// poll fetches the job until it completes, errors, or the attempt budget
// runs out. Every fetch, the first included, waits one PollInterval.
func (s *transcriptionService) poll(ctx context.Context, transcriptID string, attempts *int) (pkgai.Transcript, error) {
	var final pkgai.Transcript

	select {
	case <-time.After(s.opts.PollInterval):
	case <-ctx.Done():
		return pkgai.Transcript{}, ctx.Err()
	}

	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		*attempts++

		t, err := s.provider.Get(ctx, transcriptID)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return backoff.Permanent(err)
		}

		switch t.Status {
		case pkgai.TranscriptStatusCompleted:
			final = t
			return nil
		case pkgai.TranscriptStatusError:
			return backoff.Permanent(jobError(t.Error))
		default:
			return errStillProcessing
		}
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.opts.PollInterval), uint64(s.opts.PollAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, b); err != nil {
		return pkgai.Transcript{}, err
	}
	return final, nil
}

func (s *transcriptionService) fail(ctx context.Context, step string, err error) error {
	if isTimeout(err) && ctx.Err() != nil {
		return apperrors.ErrTimedOut("transcription "+step, err)
	}
	if s.logger != nil {
		s.logger.Error("❌ Transcription failed",
			zap.String("step", step),
			zap.Error(err),
		)
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.ErrUpstream("assemblyai", fmt.Errorf("%s: %w", step, err)).WithDetail("body", err.Error())
}

func jobError(msg string) error {
	if msg == "" {
		msg = "transcription job failed"
	}
	return apperrors.ErrUpstream("assemblyai", errors.New(msg)).WithDetail("body", msg)
}

func isTimeout(err error) bool {
	return errors.Is(err, errStillProcessing) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
