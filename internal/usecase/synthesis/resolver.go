package synthesis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/video-dubber/errors"
	"github.com/johnquangdev/video-dubber/internal/domain/entities"
)

// VoiceResolver maps each speaker config to the voice id used for synthesis
type VoiceResolver struct {
	providers Providers
	now       func() time.Time
	logger    *zap.Logger
}

// NewVoiceResolver creates a resolver
func NewVoiceResolver(providers Providers, logger *zap.Logger) *VoiceResolver {
	return &VoiceResolver{
		providers: providers,
		now:       time.Now,
		logger:    logger,
	}
}

// ResolveOne returns the voice id for a single config. Clone configs upload
// the sample and create a new provider voice on every call; all other
// configs resolve without side effects.
func (r *VoiceResolver) ResolveOne(ctx context.Context, cfg entities.SpeakerConfig) (string, error) {
	if cfg.NeedsClone() {
		if len(cfg.Sample) == 0 {
			return "", apperrors.ErrValidation(fmt.Sprintf("speaker %s: %v", cfg.Speaker, entities.ErrMissingVoiceSample)).
				WithDetail("speaker", cfg.Speaker)
		}
		cloner, err := r.providers.Cloner()
		if err != nil {
			return "", err
		}

		name := CloneName(cfg.Speaker, r.now())
		voiceID, err := cloner.CloneVoice(ctx, name, cfg.SampleName, cfg.Sample)
		if err != nil {
			return "", err
		}

		if r.logger != nil {
			r.logger.Info("🧬 Voice cloned",
				zap.String("speaker", cfg.Speaker),
				zap.String("voice_name", name),
				zap.String("voice_id", voiceID),
			)
		}
		return voiceID, nil
	}

	if cfg.VoiceID != "" {
		return cfg.VoiceID, nil
	}
	return cfg.Provider.DefaultVoice(), nil
}

// Resolve resolves each listed speaker exactly once
func (r *VoiceResolver) Resolve(ctx context.Context, speakers []string, configs map[string]entities.SpeakerConfig) (entities.ResolvedVoices, error) {
	voices := make(entities.ResolvedVoices, len(speakers))
	for _, spk := range speakers {
		if _, done := voices[spk]; done {
			continue
		}
		cfg, ok := configs[spk]
		if !ok {
			return nil, missingConfig(spk)
		}
		voiceID, err := r.ResolveOne(ctx, cfg)
		if err != nil {
			return nil, err
		}
		voices[spk] = voiceID
	}
	return voices, nil
}

// CloneName is the provider-side name of a cloned voice
func CloneName(speaker string, at time.Time) string {
	return fmt.Sprintf("Clone_%s_%d", speaker, at.UnixMilli())
}

func missingConfig(speaker string) error {
	return apperrors.ErrValidation(fmt.Sprintf("no voice configured for speaker %s", speaker)).
		WithDetail("speaker", speaker)
}
