package synthesis

import (
	"context"

	"github.com/johnquangdev/video-dubber/internal/domain/entities"
)

// SpeechSynthesizer turns text into audio bytes with a given voice
type SpeechSynthesizer interface {
	Speak(ctx context.Context, text, voice string) ([]byte, error)
}

// VoiceCloner creates a new provider voice from a reference sample
type VoiceCloner interface {
	CloneVoice(ctx context.Context, name, sampleName string, sample []byte) (string, error)
}

// Providers hands out provider clients for one run. Implementations return a
// configuration error when the provider's credential cannot be resolved.
type Providers interface {
	Synthesizer(provider entities.VoiceProvider) (SpeechSynthesizer, error)
	Cloner() (VoiceCloner, error)
}
