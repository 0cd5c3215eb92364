package synthesis

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/johnquangdev/video-dubber/errors"
	"github.com/johnquangdev/video-dubber/internal/domain/entities"
)

// Service resolves voices and synthesizes one clip per segment
type Service interface {
	Synthesize(ctx context.Context, segments []entities.Segment, configs map[string]entities.SpeakerConfig) ([]entities.SynthesizedPart, error)
}

type synthesisService struct {
	providers   Providers
	resolver    *VoiceResolver
	concurrency int
	logger      *zap.Logger
}

// NewSynthesisService creates a synthesis service. Concurrency below 1 means sequential.
func NewSynthesisService(providers Providers, concurrency int, logger *zap.Logger) Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &synthesisService{
		providers:   providers,
		resolver:    NewVoiceResolver(providers, logger),
		concurrency: concurrency,
		logger:      logger,
	}
}

// Synthesize validates configs and credentials up front, resolves each
// speaker's voice once, then dispatches the segments. Parts come back in
// segment order regardless of completion order. The first failure cancels
// the remaining calls and no parts are returned.
func (s *synthesisService) Synthesize(ctx context.Context, segments []entities.Segment, configs map[string]entities.SpeakerConfig) ([]entities.SynthesizedPart, error) {
	if len(segments) == 0 {
		return []entities.SynthesizedPart{}, nil
	}

	for _, seg := range segments {
		if _, ok := configs[seg.Speaker]; !ok {
			return nil, missingConfig(seg.Speaker)
		}
	}

	speakers := entities.UniqueSpeakers(segments)
	synths, err := s.synthesizers(speakers, configs)
	if err != nil {
		return nil, err
	}

	voices, err := s.resolver.Resolve(ctx, speakers, configs)
	if err != nil {
		return nil, err
	}

	parts, err := s.dispatch(ctx, segments, configs, voices, synths)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Synthesis failed", zap.Error(err))
		}
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("✅ Segments synthesized",
			zap.Int("parts", len(parts)),
			zap.Int("speakers", len(speakers)),
			zap.Int("concurrency", s.concurrency),
		)
	}
	return parts, nil
}

// synthesizers fetches one client per provider in use so a missing key
// fails the run before any provider call
func (s *synthesisService) synthesizers(speakers []string, configs map[string]entities.SpeakerConfig) (map[entities.VoiceProvider]SpeechSynthesizer, error) {
	synths := make(map[entities.VoiceProvider]SpeechSynthesizer)
	needClone := false
	for _, spk := range speakers {
		cfg := configs[spk]
		if err := cfg.Validate(); err != nil {
			return nil, apperrors.ErrValidation(fmt.Sprintf("speaker %s: %v", spk, err)).WithDetail("speaker", spk)
		}
		if cfg.NeedsClone() {
			needClone = true
		}
		if _, ok := synths[cfg.Provider]; ok {
			continue
		}
		synth, err := s.providers.Synthesizer(cfg.Provider)
		if err != nil {
			return nil, err
		}
		synths[cfg.Provider] = synth
	}
	if needClone {
		if _, err := s.providers.Cloner(); err != nil {
			return nil, err
		}
	}
	return synths, nil
}

func (s *synthesisService) dispatch(
	ctx context.Context,
	segments []entities.Segment,
	configs map[string]entities.SpeakerConfig,
	voices entities.ResolvedVoices,
	synths map[entities.VoiceProvider]SpeechSynthesizer,
) ([]entities.SynthesizedPart, error) {
	parts := make([]entities.SynthesizedPart, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, seg := range segments {
		i, seg := i, seg
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cfg := configs[seg.Speaker]
			audio, err := synths[cfg.Provider].Speak(gctx, seg.Text, voices[seg.Speaker])
			if err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}
			parts[i] = entities.SynthesizedPart{
				Filename: PartFilename(i),
				Audio:    audio,
				Start:    seg.Start,
				Duration: ProbeDuration(audio),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

// PartFilename is the workspace name of the clip for segment i
func PartFilename(i int) string {
	return fmt.Sprintf("seg_%d.wav", i)
}
