// Package speech wraps the OpenAI audio endpoints: text to speech for
// dialogue lines and Whisper transcription of learner recordings.
package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client talks to the OpenAI audio APIs.
type Client struct {
	api             openai.Client
	ttsModel        string
	transcribeModel string
}

// NewClient builds a speech client. Empty model names fall back to tts-1
// and whisper-1.
func NewClient(apiKey, ttsModel, transcribeModel string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("speech: api key must not be empty")
	}
	if ttsModel == "" {
		ttsModel = "tts-1"
	}
	if transcribeModel == "" {
		transcribeModel = "whisper-1"
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: timeout}))
	}

	return &Client{
		api:             openai.NewClient(reqOpts...),
		ttsModel:        ttsModel,
		transcribeModel: transcribeModel,
	}, nil
}

// Synthesize renders text with the given voice and returns MP3 bytes.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if !IsKnownVoice(voice) {
		return nil, fmt.Errorf("speech: unknown voice %q", voice)
	}

	res, err := c.api.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModel(c.ttsModel),
		Voice: openai.AudioSpeechNewParamsVoice(voice),
		Input: text,
		Speed: openai.Float(1.0),
	})
	if err != nil {
		return nil, fmt.Errorf("speech: synthesize: %w", err)
	}
	defer res.Body.Close()

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("speech: read audio body: %w", err)
	}
	return audio, nil
}

// Transcribe runs Whisper over an audio recording. filename hints the
// container format ("audio.m4a", "audio.webm"); language is a BCP-47 code
// and defaults to English.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error) {
	if language == "" {
		language = "en"
	}
	if filename == "" {
		filename = "audio.m4a"
	}

	tr, err := c.api.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model:    openai.AudioModel(c.transcribeModel),
		File:     openai.File(audio, filename, "application/octet-stream"),
		Language: openai.String(language),
	})
	if err != nil {
		return "", fmt.Errorf("speech: transcribe: %w", err)
	}
	return tr.Text, nil
}
