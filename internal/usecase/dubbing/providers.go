package dubbing

import (
	"github.com/johnquangdev/video-dubber/internal/domain/entities"
	"github.com/johnquangdev/video-dubber/internal/usecase/synthesis"
	"github.com/johnquangdev/video-dubber/internal/usecase/transcription"
	"github.com/johnquangdev/video-dubber/internal/usecase/translation"
	pkgai "github.com/johnquangdev/video-dubber/pkg/ai"
	"github.com/johnquangdev/video-dubber/pkg/config"
	"github.com/johnquangdev/video-dubber/pkg/credentials"
)

// Providers hands out the provider clients of one run
type Providers interface {
	synthesis.Providers
	Transcriber() (transcription.Provider, error)
	Chat() (translation.ChatCompleter, error)
}

// ProviderFactory builds provider clients from resolved credentials
type ProviderFactory struct {
	resolver *credentials.Resolver
	cfg      *config.Config
}

// NewProviderFactory creates a factory over the process configuration
func NewProviderFactory(resolver *credentials.Resolver, cfg *config.Config) *ProviderFactory {
	return &ProviderFactory{resolver: resolver, cfg: cfg}
}

// For binds the factory to one request's key overrides
func (f *ProviderFactory) For(overrides credentials.Overrides) Providers {
	return &runProviders{factory: f, overrides: overrides}
}

type runProviders struct {
	factory   *ProviderFactory
	overrides credentials.Overrides
}

func (p *runProviders) key(k credentials.Key) (string, error) {
	return p.factory.resolver.Require(k, p.overrides)
}

func (p *runProviders) Transcriber() (transcription.Provider, error) {
	key, err := p.key(credentials.AssemblyAIKey)
	if err != nil {
		return nil, err
	}
	return pkgai.NewAssemblyAIClient(key, p.factory.cfg.AssemblyAI.BaseURL), nil
}

func (p *runProviders) Chat() (translation.ChatCompleter, error) {
	return p.openAI()
}

func (p *runProviders) Synthesizer(provider entities.VoiceProvider) (synthesis.SpeechSynthesizer, error) {
	switch provider {
	case entities.VoiceProviderElevenLabs:
		return p.elevenLabs()
	default:
		return p.openAI()
	}
}

func (p *runProviders) Cloner() (synthesis.VoiceCloner, error) {
	return p.elevenLabs()
}

func (p *runProviders) openAI() (*pkgai.OpenAIClient, error) {
	key, err := p.key(credentials.OpenAIKey)
	if err != nil {
		return nil, err
	}
	cfg := p.factory.cfg.OpenAI
	return pkgai.NewOpenAIClient(key, cfg.BaseURL, cfg.ChatModel, cfg.TTSModel), nil
}

func (p *runProviders) elevenLabs() (*pkgai.ElevenLabsClient, error) {
	key, err := p.key(credentials.ElevenLabsKey)
	if err != nil {
		return nil, err
	}
	cfg := p.factory.cfg.ElevenLabs
	return pkgai.NewElevenLabsClient(key, cfg.BaseURL, cfg.Model), nil
}
