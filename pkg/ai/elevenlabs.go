package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/johnquangdev/video-dubber/errors"
)

const (
	providerElevenLabs      = "elevenlabs"
	defaultElevenLabsURL    = "https://api.elevenlabs.io"
	defaultElevenLabsModel  = "eleven_multilingual_v2"
	elevenLabsStability     = 0.5
	elevenLabsSimilarity    = 0.8
	elevenLabsMaxErrorBytes = 4096
)

// ElevenLabsClient is a minimal client for voice cloning and speech synthesis
type ElevenLabsClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewElevenLabsClient creates an ElevenLabs client. Empty baseURL and model use the defaults.
func NewElevenLabsClient(apiKey, baseURL, model string) *ElevenLabsClient {
	if baseURL == "" {
		baseURL = defaultElevenLabsURL
	}
	if model == "" {
		model = defaultElevenLabsModel
	}
	return &ElevenLabsClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// VoiceSettings tune ElevenLabs synthesis
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// SpeechRequest is the payload for /v1/text-to-speech/{voice_id}
type SpeechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// AddVoiceResponse is the response of /v1/voices/add
type AddVoiceResponse struct {
	VoiceID string `json:"voice_id"`
}

// CloneVoice uploads a reference sample and returns the id of the new voice
func (c *ElevenLabsClient) CloneVoice(ctx context.Context, name, sampleName string, sample []byte) (string, error) {
	if sampleName == "" {
		sampleName = "sample.wav"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("name", name); err != nil {
		return "", err
	}
	part, err := mw.CreateFormFile("files", sampleName)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(sample); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/voices/add", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperrors.ErrUpstream(providerElevenLabs, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", statusError(resp)
	}

	var vr AddVoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return "", apperrors.ErrUpstream(providerElevenLabs, fmt.Errorf("decode voice response: %w", err))
	}
	if vr.VoiceID == "" {
		return "", apperrors.ErrUpstream(providerElevenLabs, fmt.Errorf("voice id missing in response"))
	}
	return vr.VoiceID, nil
}

// Speak synthesizes text with the given voice and returns WAV bytes
func (c *ElevenLabsClient) Speak(ctx context.Context, text, voiceID string) ([]byte, error) {
	reqBody := SpeechRequest{
		Text:    text,
		ModelID: c.model,
		VoiceSettings: VoiceSettings{
			Stability:       elevenLabsStability,
			SimilarityBoost: elevenLabsSimilarity,
		},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.ErrUpstream(providerElevenLabs, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, statusError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.ErrUpstream(providerElevenLabs, fmt.Errorf("read speech: %w", err))
	}
	return audio, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, elevenLabsMaxErrorBytes))
	return apperrors.ErrUpstreamStatus(providerElevenLabs, resp.StatusCode, strings.TrimSpace(string(body)))
}
