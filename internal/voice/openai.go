package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient implements both voice stages against the OpenAI audio APIs:
// Whisper for transcription, the speech endpoint for synthesis.
type OpenAIClient struct {
	client   *openai.Client
	sttModel string
	ttsModel openai.SpeechModel
	ttsVoice openai.SpeechVoice
}

// OpenAIConfig configures the voice client.
type OpenAIConfig struct {
	APIKey   string
	STTModel string
	TTSModel string
	TTSVoice string
}

// NewOpenAIClient creates a new OpenAI voice client.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	sttModel := cfg.STTModel
	if sttModel == "" {
		sttModel = openai.Whisper1
	}

	ttsModel := openai.SpeechModel(cfg.TTSModel)
	if ttsModel == "" {
		ttsModel = openai.TTSModel1
	}

	ttsVoice := openai.SpeechVoice(cfg.TTSVoice)
	if ttsVoice == "" {
		ttsVoice = openai.VoiceNova
	}

	return &OpenAIClient{
		client:   openai.NewClient(cfg.APIKey),
		sttModel: sttModel,
		ttsModel: ttsModel,
		ttsVoice: ttsVoice,
	}, nil
}

// Transcribe transcribes the audio and returns the transcript text.
func (c *OpenAIClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.sttModel,
		Reader:   bytes.NewReader(audio),
		FilePath: "turn.webm", // extension hint only; bytes come from Reader
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// Synthesize renders the text as spoken audio (MP3).
func (c *OpenAIClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          c.ttsModel,
		Input:          text,
		Voice:          c.ttsVoice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized audio: %w", err)
	}

	if len(audio) == 0 {
		return nil, errors.New("empty audio returned from synthesis")
	}

	return audio, nil
}
