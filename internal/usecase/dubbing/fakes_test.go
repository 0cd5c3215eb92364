package dubbing

import (
	"context"
	"io"
	"sync"

	apperrors "github.com/johnquangdev/video-dubber/errors"
	"github.com/johnquangdev/video-dubber/internal/domain/entities"
	"github.com/johnquangdev/video-dubber/internal/infrastructure/media"
	"github.com/johnquangdev/video-dubber/internal/usecase/synthesis"
	"github.com/johnquangdev/video-dubber/internal/usecase/transcription"
	"github.com/johnquangdev/video-dubber/internal/usecase/translation"
	pkgai "github.com/johnquangdev/video-dubber/pkg/ai"
	"github.com/johnquangdev/video-dubber/pkg/credentials"
)

// fakeEngine writes the output file named by the last argument of each job
type fakeEngine struct {
	mu     sync.Mutex
	ops    []string
	args   map[string][]string
	failOn string
	err    error
}

func (e *fakeEngine) Run(ctx context.Context, ws *media.Workspace, operation string, args []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ops = append(e.ops, operation)
	if e.args == nil {
		e.args = map[string][]string{}
	}
	e.args[operation] = args
	if operation == e.failOn {
		return e.err
	}
	return ws.WriteFile(args[len(args)-1], []byte(operation))
}

type fakeTranscriber struct {
	transcript pkgai.Transcript
}

func (f *fakeTranscriber) Upload(ctx context.Context, audio io.Reader) (string, error) {
	_, err := io.ReadAll(audio)
	return "https://cdn.test/upload", err
}

func (f *fakeTranscriber) Submit(ctx context.Context, audioURL string) (pkgai.Transcript, error) {
	return pkgai.Transcript{ID: "t-1", Status: pkgai.TranscriptStatusQueued}, nil
}

func (f *fakeTranscriber) Get(ctx context.Context, transcriptID string) (pkgai.Transcript, error) {
	return f.transcript, nil
}

type fakeChat struct {
	reply string
	calls int
}

func (f *fakeChat) CompleteJSON(ctx context.Context, system, user string, temperature float32) (string, error) {
	f.calls++
	return f.reply, nil
}

type fakeSpeaker struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeSpeaker) Speak(ctx context.Context, text, voice string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return []byte(voice + ":" + text), nil
}

type fakeProviders struct {
	transcriber *fakeTranscriber
	chat        *fakeChat
	speaker     *fakeSpeaker
	missing     map[credentials.Key]bool
}

func (p *fakeProviders) Transcriber() (transcription.Provider, error) {
	if p.missing[credentials.AssemblyAIKey] {
		return nil, apperrors.ErrConfiguration(credentials.AssemblyAIKey.String())
	}
	return p.transcriber, nil
}

func (p *fakeProviders) Chat() (translation.ChatCompleter, error) {
	if p.missing[credentials.OpenAIKey] {
		return nil, apperrors.ErrConfiguration(credentials.OpenAIKey.String())
	}
	return p.chat, nil
}

func (p *fakeProviders) Synthesizer(provider entities.VoiceProvider) (synthesis.SpeechSynthesizer, error) {
	if provider == entities.VoiceProviderElevenLabs && p.missing[credentials.ElevenLabsKey] {
		return nil, apperrors.ErrConfiguration(credentials.ElevenLabsKey.String())
	}
	return p.speaker, nil
}

func (p *fakeProviders) Cloner() (synthesis.VoiceCloner, error) {
	return nil, apperrors.ErrConfiguration(credentials.ElevenLabsKey.String())
}

func newFakeProviders(transcript pkgai.Transcript, reply string) *fakeProviders {
	return &fakeProviders{
		transcriber: &fakeTranscriber{transcript: transcript},
		chat:        &fakeChat{reply: reply},
		speaker:     &fakeSpeaker{},
	}
}

func twoSpeakerTranscript() pkgai.Transcript {
	return pkgai.Transcript{
		ID:           "t-1",
		Status:       pkgai.TranscriptStatusCompleted,
		LanguageCode: "en",
		Utterances: []pkgai.TranscriptUtterance{
			{Start: 0, End: 1500, Text: "Hello there", Speaker: "A"},
			{Start: 1800, End: 3200, Text: "General Kenobi", Speaker: "B"},
		},
	}
}
