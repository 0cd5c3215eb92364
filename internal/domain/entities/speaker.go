package entities

// VoiceStrategy selects how a speaker's voice is obtained
type VoiceStrategy string

const (
	VoiceStrategyClone  VoiceStrategy = "clone"  // Clone from a reference sample
	VoiceStrategyPreset VoiceStrategy = "preset" // Use a stock provider voice
)

// VoiceProvider names a text-to-speech provider
type VoiceProvider string

const (
	VoiceProviderOpenAI     VoiceProvider = "openai"
	VoiceProviderElevenLabs VoiceProvider = "elevenlabs"
)

// Default preset voices per provider
const (
	DefaultOpenAIVoice     = "alloy"
	DefaultElevenLabsVoice = "Rachel"
)

// IsValid checks if the strategy is known
func (s VoiceStrategy) IsValid() bool {
	return s == VoiceStrategyClone || s == VoiceStrategyPreset
}

// IsValid checks if the provider is known
func (p VoiceProvider) IsValid() bool {
	return p == VoiceProviderOpenAI || p == VoiceProviderElevenLabs
}

// DefaultVoice returns the stock voice used when no voice id is configured
func (p VoiceProvider) DefaultVoice() string {
	if p == VoiceProviderElevenLabs {
		return DefaultElevenLabsVoice
	}
	return DefaultOpenAIVoice
}

// SpeakerConfig describes how one speaker label is voiced
type SpeakerConfig struct {
	Speaker    string        `json:"speaker" validate:"required"`
	Strategy   VoiceStrategy `json:"strategy" validate:"required,oneof=clone preset"`
	Provider   VoiceProvider `json:"provider" validate:"required,oneof=openai elevenlabs"`
	VoiceID    string        `json:"voice_id,omitempty"`
	Sample     []byte        `json:"-"`
	SampleName string        `json:"-"`
}

// NeedsClone reports whether resolving this config uploads a sample
func (c SpeakerConfig) NeedsClone() bool {
	return c.Provider == VoiceProviderElevenLabs && c.Strategy == VoiceStrategyClone
}

// Validate checks the strategy, the provider and, for clones, the sample
func (c SpeakerConfig) Validate() error {
	if !c.Strategy.IsValid() {
		return ErrInvalidVoiceStrategy
	}
	if !c.Provider.IsValid() {
		return ErrInvalidVoiceProvider
	}
	if c.NeedsClone() && len(c.Sample) == 0 {
		return ErrMissingVoiceSample
	}
	return nil
}

// DefaultSpeakerConfig is used for speakers the caller did not configure
func DefaultSpeakerConfig(speaker string) SpeakerConfig {
	return SpeakerConfig{
		Speaker:  speaker,
		Strategy: VoiceStrategyPreset,
		Provider: VoiceProviderOpenAI,
		VoiceID:  DefaultOpenAIVoice,
	}
}

// ResolvedVoices maps a speaker label to the voice id used for synthesis
type ResolvedVoices map[string]string
