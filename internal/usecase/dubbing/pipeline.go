package dubbing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/video-dubber/errors"
	"github.com/johnquangdev/video-dubber/internal/domain/entities"
	"github.com/johnquangdev/video-dubber/internal/infrastructure/media"
	"github.com/johnquangdev/video-dubber/internal/usecase/assembly"
	"github.com/johnquangdev/video-dubber/internal/usecase/synthesis"
	"github.com/johnquangdev/video-dubber/internal/usecase/transcription"
	"github.com/johnquangdev/video-dubber/internal/usecase/translation"
	"github.com/johnquangdev/video-dubber/pkg/subtitle"
)

// Workspace artifact names
const (
	ArtifactInput       = "input.mp4"
	ArtifactInputAudio  = "input.wav"
	ArtifactDubbed      = "dubbed.wav"
	ArtifactMixed       = "mixed.wav"
	ArtifactOriginalSRT = "orig.srt"
	ArtifactTargetSRT   = "target.srt"
	ArtifactOutput      = "output.mp4"
)

// MediaEngine executes rendered media jobs inside a workspace
type MediaEngine interface {
	Run(ctx context.Context, ws *media.Workspace, operation string, args []string) error
}

// ProgressFunc receives stage transitions. Percent only grows within a run.
type ProgressFunc func(stage entities.DubStage, percent int)

// SubtitleOptions selects the subtitle tracks embedded in the output
type SubtitleOptions struct {
	Original bool
	Target   bool
}

// Request is one dubbing run
type Request struct {
	Video          io.Reader
	TargetLanguage string
	// Speakers configured by the caller; unconfigured speakers get DefaultSpeaker
	Speakers       map[string]entities.SpeakerConfig
	DefaultSpeaker *entities.SpeakerConfig
	Subtitles      SubtitleOptions
	Providers      Providers
	Progress       ProgressFunc
}

// Result is what a completed run produced
type Result struct {
	SourceLanguage string
	Segments       []entities.Segment
	Translation    *entities.Translation
	Speakers       []string
	// Files holds the publishable artifacts keyed by workspace name
	Files map[string][]byte
}

// Options tune the pipeline
type Options struct {
	WorkDir              string
	PollInterval         time.Duration
	PollAttempts         int
	SynthesisConcurrency int
}

// Pipeline runs the dubbing stages strictly in sequence
type Pipeline struct {
	engine MediaEngine
	opts   Options
	logger *zap.Logger
}

// NewPipeline creates a pipeline over a media engine
func NewPipeline(engine MediaEngine, opts Options, logger *zap.Logger) *Pipeline {
	return &Pipeline{engine: engine, opts: opts, logger: logger}
}

// Run extracts, transcribes, translates, synthesizes, mixes and muxes one
// video. Every fatal error aborts the run and no partial output is returned.
// The workspace is removed on every exit path.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if req.TargetLanguage == "" {
		return nil, apperrors.ErrValidation("target language is required")
	}
	if req.Video == nil {
		return nil, apperrors.ErrValidation("video is required")
	}
	if req.Providers == nil {
		return nil, apperrors.ErrInternal(errors.New("providers not configured"))
	}
	progress := req.Progress
	if progress == nil {
		progress = func(entities.DubStage, int) {}
	}

	// Keys for the first two stages are checked before any work
	transcriber, err := req.Providers.Transcriber()
	if err != nil {
		return nil, err
	}
	chat, err := req.Providers.Chat()
	if err != nil {
		return nil, err
	}

	ws, err := media.NewWorkspace(p.opts.WorkDir)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}
	defer ws.Close()

	started := time.Now()
	if p.logger != nil {
		p.logger.Info("🎬 Dubbing run started",
			zap.String("workspace", ws.ID),
			zap.String("target_language", req.TargetLanguage),
		)
	}

	if _, err := ws.WriteFrom(ArtifactInput, req.Video); err != nil {
		return nil, apperrors.ErrInternal(err)
	}

	// Extract
	progress(entities.DubStageExtract, 5)
	if err := p.media(ctx, ws, "extract", assembly.ExtractAudioArgs(ArtifactInput, ArtifactInputAudio)); err != nil {
		return nil, err
	}

	// Transcribe
	progress(entities.DubStageTranscribe, 10)
	transcript, err := p.transcribe(ctx, ws, transcriber)
	if err != nil {
		return nil, err
	}
	segments := transcript.Segments
	progress(entities.DubStageTranscribe, 25)

	// Translate
	if err := stageGate(ctx); err != nil {
		return nil, err
	}
	progress(entities.DubStageTranslate, 35)
	translated, err := translation.NewTranslationService(chat, p.logger).Translate(ctx, req.TargetLanguage, segments)
	if err != nil {
		return nil, err
	}
	progress(entities.DubStageTranslate, 50)

	// Synthesize
	if err := stageGate(ctx); err != nil {
		return nil, err
	}
	progress(entities.DubStageSynthesize, 60)
	speakers := entities.UniqueSpeakers(segments)
	configs := SpeakerConfigs(speakers, req.Speakers, req.DefaultSpeaker)
	parts, err := synthesis.NewSynthesisService(req.Providers, p.opts.SynthesisConcurrency, p.logger).
		Synthesize(ctx, translated.Segments, configs)
	if err != nil {
		return nil, err
	}

	// Mix
	progress(entities.DubStageMix, 70)
	dubMix, err := assembly.BuildDubMix(parts, ArtifactDubbed)
	if err != nil {
		return nil, err
	}
	for _, part := range parts {
		if err := ws.WriteFile(part.Filename, part.Audio); err != nil {
			return nil, apperrors.ErrInternal(err)
		}
	}
	if err := p.media(ctx, ws, "dub mix", dubMix.Args()); err != nil {
		return nil, err
	}
	ducking := assembly.BuildDuckingMix(ArtifactInputAudio, ArtifactDubbed, ArtifactMixed)
	if err := p.media(ctx, ws, "ducking", ducking.Args()); err != nil {
		return nil, err
	}

	// Mux
	progress(entities.DubStageMux, 80)
	files := make(map[string][]byte, 3)
	var tracks []assembly.SubtitleTrack
	if req.Subtitles.Original {
		srt := []byte(subtitle.FormatSegments(segments))
		if err := ws.WriteFile(ArtifactOriginalSRT, srt); err != nil {
			return nil, apperrors.ErrInternal(err)
		}
		files[ArtifactOriginalSRT] = srt
		tracks = append(tracks, assembly.SubtitleTrack{Path: ArtifactOriginalSRT, Language: assembly.OriginalSubtitleLanguage})
	}
	if req.Subtitles.Target {
		srt := []byte(subtitle.FormatSegments(translated.Segments))
		if err := ws.WriteFile(ArtifactTargetSRT, srt); err != nil {
			return nil, apperrors.ErrInternal(err)
		}
		files[ArtifactTargetSRT] = srt
		tracks = append(tracks, assembly.SubtitleTrack{Path: ArtifactTargetSRT, Language: req.TargetLanguage})
	}

	muxArgs, err := assembly.NewMuxPlan(ArtifactInput, ArtifactMixed, tracks, ArtifactOutput).Args()
	if err != nil {
		return nil, apperrors.ErrInternal(fmt.Errorf("invalid mux plan: %w", err))
	}
	if err := p.media(ctx, ws, "mux", muxArgs); err != nil {
		return nil, err
	}

	output, err := ws.ReadFile(ArtifactOutput)
	if err != nil {
		return nil, apperrors.ErrMediaEngine("mux", err)
	}
	files[ArtifactOutput] = output

	if p.logger != nil {
		p.logger.Info("✅ Dubbing run finished",
			zap.String("workspace", ws.ID),
			zap.String("source_language", transcript.Language),
			zap.Int("segments", len(segments)),
			zap.Int("speakers", len(speakers)),
			zap.Bool("degraded", translated.Degraded),
			zap.Duration("took", time.Since(started)),
		)
	}

	return &Result{
		SourceLanguage: transcript.Language,
		Segments:       segments,
		Translation:    translated,
		Speakers:       speakers,
		Files:          files,
	}, nil
}

func (p *Pipeline) transcribe(ctx context.Context, ws *media.Workspace, provider transcription.Provider) (*transcription.Result, error) {
	audio, err := ws.Open(ArtifactInputAudio)
	if err != nil {
		return nil, apperrors.ErrMediaEngine("extract", err)
	}
	defer audio.Close()

	svc := transcription.NewTranscriptionService(provider, transcription.Options{
		PollInterval: p.opts.PollInterval,
		PollAttempts: p.opts.PollAttempts,
	}, p.logger)
	return svc.Transcribe(ctx, audio)
}

// media runs one engine job; a job killed by the run deadline reports TimedOut
func (p *Pipeline) media(ctx context.Context, ws *media.Workspace, operation string, args []string) error {
	if err := stageGate(ctx); err != nil {
		return err
	}
	if err := p.engine.Run(ctx, ws, operation, args); err != nil {
		if ctx.Err() != nil {
			return apperrors.ErrTimedOut(operation, ctx.Err())
		}
		return err
	}
	return nil
}

// stageGate stops the run between stages once the context is done
func stageGate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return apperrors.ErrTimedOut("dubbing", err)
	}
	return nil
}

// SpeakerConfigs returns a config for every speaker: the caller's when
// present, else the fallback template, else the built-in default
func SpeakerConfigs(speakers []string, configured map[string]entities.SpeakerConfig, fallback *entities.SpeakerConfig) map[string]entities.SpeakerConfig {
	configs := make(map[string]entities.SpeakerConfig, len(speakers))
	for _, spk := range speakers {
		if cfg, ok := configured[spk]; ok {
			cfg.Speaker = spk
			configs[spk] = cfg
			continue
		}
		if fallback != nil {
			cfg := *fallback
			cfg.Speaker = spk
			configs[spk] = cfg
			continue
		}
		configs[spk] = entities.DefaultSpeakerConfig(spk)
	}
	return configs
}
