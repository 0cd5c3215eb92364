package ai

import (
	"context"
	"io"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	apperrors "github.com/johnquangdev/video-dubber/errors"
)

const providerAssemblyAI = "assemblyai"

// TranscriptStatus mirrors the AssemblyAI job status
type TranscriptStatus string

const (
	TranscriptStatusQueued     TranscriptStatus = "queued"
	TranscriptStatusProcessing TranscriptStatus = "processing"
	TranscriptStatusCompleted  TranscriptStatus = "completed"
	TranscriptStatusError      TranscriptStatus = "error"
)

// TranscriptWord is a single recognized word. Times are milliseconds.
type TranscriptWord struct {
	Text    string
	Start   int64
	End     int64
	Speaker string
}

// TranscriptUtterance is a speaker-labeled turn. Times are milliseconds.
type TranscriptUtterance struct {
	Text    string
	Start   int64
	End     int64
	Speaker string
}

// Transcript is the provider-neutral view of an AssemblyAI transcript
type Transcript struct {
	ID           string
	Status       TranscriptStatus
	Error        string
	LanguageCode string
	Utterances   []TranscriptUtterance
	Words        []TranscriptWord
}

// AssemblyAIClient wraps the official SDK with the calls the pipeline needs
type AssemblyAIClient struct {
	sdk *aai.Client
}

// NewAssemblyAIClient creates an AssemblyAI client. An empty baseURL keeps the SDK default.
func NewAssemblyAIClient(apiKey, baseURL string) *AssemblyAIClient {
	opts := []aai.ClientOption{aai.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, aai.WithBaseURL(baseURL))
	}
	return &AssemblyAIClient{sdk: aai.NewClientWithOptions(opts...)}
}

// Upload sends raw audio and returns the upload URL
func (c *AssemblyAIClient) Upload(ctx context.Context, audio io.Reader) (string, error) {
	uploadURL, err := c.sdk.Upload(ctx, audio)
	if err != nil {
		return "", upstreamError(err)
	}
	return uploadURL, nil
}

// Submit creates a transcription job with diarization, punctuation,
// text formatting and language detection enabled
func (c *AssemblyAIClient) Submit(ctx context.Context, audioURL string) (Transcript, error) {
	params := &aai.TranscriptOptionalParams{
		SpeakerLabels:     aai.Bool(true),
		LanguageDetection: aai.Bool(true),
		Punctuate:         aai.Bool(true),
		FormatText:        aai.Bool(true),
	}

	transcript, err := c.sdk.Transcripts.SubmitFromURL(ctx, audioURL, params)
	if err != nil {
		return Transcript{}, upstreamError(err)
	}
	return convertTranscript(transcript), nil
}

// Get fetches the current state of a transcription job
func (c *AssemblyAIClient) Get(ctx context.Context, transcriptID string) (Transcript, error) {
	transcript, err := c.sdk.Transcripts.Get(ctx, transcriptID)
	if err != nil {
		return Transcript{}, upstreamError(err)
	}
	return convertTranscript(transcript), nil
}

func upstreamError(err error) error {
	return apperrors.ErrUpstream(providerAssemblyAI, err).WithDetail("body", err.Error())
}

// convertTranscript copies the SDK's pointer-heavy shape into plain values
func convertTranscript(t aai.Transcript) Transcript {
	out := Transcript{
		ID:           deref(t.ID),
		Status:       TranscriptStatus(t.Status),
		Error:        deref(t.Error),
		LanguageCode: string(t.LanguageCode),
	}

	if len(t.Utterances) > 0 {
		out.Utterances = make([]TranscriptUtterance, 0, len(t.Utterances))
		for _, u := range t.Utterances {
			out.Utterances = append(out.Utterances, TranscriptUtterance{
				Text:    deref(u.Text),
				Start:   derefInt(u.Start),
				End:     derefInt(u.End),
				Speaker: deref(u.Speaker),
			})
		}
	}

	if len(t.Words) > 0 {
		out.Words = make([]TranscriptWord, 0, len(t.Words))
		for _, w := range t.Words {
			out.Words = append(out.Words, TranscriptWord{
				Text:    deref(w.Text),
				Start:   derefInt(w.Start),
				End:     derefInt(w.End),
				Speaker: deref(w.Speaker),
			})
		}
	}

	return out
}

// MillisToSeconds converts provider millisecond offsets to seconds
func MillisToSeconds(ms int64) float64 {
	return float64(ms) / 1000.0
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
