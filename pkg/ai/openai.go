package ai

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	apperrors "github.com/johnquangdev/video-dubber/errors"
)

const providerOpenAI = "openai"

// OpenAIClient covers chat translation and speech synthesis
type OpenAIClient struct {
	client    *openai.Client
	chatModel string
	ttsModel  string
}

// NewOpenAIClient creates an OpenAI client. An empty baseURL keeps the public API.
func NewOpenAIClient(apiKey, baseURL, chatModel, ttsModel string) *OpenAIClient {
	aiConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		aiConfig.BaseURL = baseURL
	}
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}
	if ttsModel == "" {
		ttsModel = "gpt-4o-mini-tts"
	}
	return &OpenAIClient{
		client:    openai.NewClientWithConfig(aiConfig),
		chatModel: chatModel,
		ttsModel:  ttsModel,
	}
}

// CompleteJSON runs a single system+user exchange in JSON object mode and
// returns the assistant content
func (c *OpenAIClient) CompleteJSON(ctx context.Context, system, user string, temperature float32) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.ErrUpstream(providerOpenAI, fmt.Errorf("empty response from openai"))
	}
	return resp.Choices[0].Message.Content, nil
}

// Speak synthesizes text with the given voice and returns WAV bytes
func (c *OpenAIClient) Speak(ctx context.Context, text, voice string) ([]byte, error) {
	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.ttsModel),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return nil, openAIError(err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, apperrors.ErrUpstream(providerOpenAI, fmt.Errorf("read speech: %w", err))
	}
	return audio, nil
}

func openAIError(err error) error {
	appErr := apperrors.ErrUpstream(providerOpenAI, err)
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return appErr.
			WithDetail("status", fmt.Sprintf("%d", apiErr.HTTPStatusCode)).
			WithDetail("body", apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return appErr.WithDetail("status", fmt.Sprintf("%d", reqErr.HTTPStatusCode))
	}
	return appErr
}
