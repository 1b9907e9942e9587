package api

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/expresslang/express/internal/api/auth"
	"github.com/expresslang/express/internal/speech"
)

type transcribeRequest struct {
	Audio    string `json:"audio"`
	AudioURL string `json:"audio_url"`
	Language string `json:"language"`
}

type synthesizeRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Upload bool   `json:"upload"`
}

// decodeAudioPayload turns the request's base64 audio (with or without a
// data URL prefix) into raw bytes and picks a filename from the container
// hint baked into the payload.
func decodeAudioPayload(raw string) ([]byte, string, error) {
	encoded := raw
	if idx := strings.Index(encoded, "base64,"); idx >= 0 {
		encoded = encoded[idx+len("base64,"):]
	}
	if missing := len(encoded) % 4; missing != 0 {
		encoded += strings.Repeat("=", 4-missing)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode audio payload: %w", err)
	}

	filename := "audio.m4a"
	if strings.Contains(raw, "webm") {
		filename = "audio.webm"
	}
	return data, filename, nil
}

// transcribeAudio converts recorded speech to text. The audio arrives
// either as base64 in the body or as a URL to fetch.
func (s *Server) transcribeAudio(c echo.Context) error {
	ctx := c.Request().Context()

	var req transcribeRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	var (
		reader   io.Reader
		filename string
	)
	switch {
	case req.AudioURL != "":
		fetchReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.AudioURL, nil)
		if err != nil {
			return fail(c, http.StatusBadRequest, "Invalid audio_url")
		}
		resp, err := s.web.Do(fetchReq)
		if err != nil {
			return fmt.Errorf("failed to fetch audio url: %w", err)
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read audio url body: %w", err)
		}
		reader = bytes.NewReader(data)
		filename = "audio.m4a"
	case req.Audio != "":
		data, name, err := decodeAudioPayload(req.Audio)
		if err != nil {
			return fail(c, http.StatusBadRequest, "Invalid audio payload")
		}
		reader = bytes.NewReader(data)
		filename = name
	default:
		return fail(c, http.StatusBadRequest, "audio or audio_url is required")
	}

	text, err := s.speech.Transcribe(ctx, reader, filename, req.Language)
	if err != nil {
		return err
	}

	return success(c, map[string]interface{}{
		"transcription": text,
		"text":          text,
		"confidence":    0.95,
	})
}

// synthesizeSpeech renders text to MP3, stores it, and returns the public
// URL. Authenticated uploads land under the caller's folder.
func (s *Server) synthesizeSpeech(c echo.Context) error {
	ctx := c.Request().Context()

	var req synthesizeRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Text == "" {
		return fail(c, http.StatusBadRequest, "text is required")
	}
	if len(req.Text) > 1000 {
		return fail(c, http.StatusBadRequest, "text must be 1000 characters or fewer")
	}
	if req.Voice == "" {
		req.Voice = "nova"
	}
	if !speech.IsKnownVoice(req.Voice) {
		return fail(c, http.StatusBadRequest, "Unknown voice")
	}

	audio, err := s.speech.Synthesize(ctx, req.Text, req.Voice)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("audio/tts/%s.mp3", uuid.NewString())
	if req.Upload {
		if authID := auth.AuthID(c); authID != "" {
			path = fmt.Sprintf("audio/%s/%d.mp3", authID, time.Now().UnixNano())
		}
	}

	audioURL, err := s.uploader.Upload(ctx, path, audio, "audio/mpeg")
	if err != nil {
		return err
	}

	return success(c, map[string]interface{}{
		"audio_url": audioURL,
		"url":       audioURL,
	})
}
