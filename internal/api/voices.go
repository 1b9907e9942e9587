package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/expresslang/express/internal/speech"
)

func voiceSamplePath(voice string) string {
	return fmt.Sprintf("voice-samples/%s_sample.mp3", voice)
}

// voiceSamples returns the public URL of every pre-generated voice preview.
func (s *Server) voiceSamples(c echo.Context) error {
	samples := map[string]string{}
	for _, voice := range speech.AllVoices() {
		samples[voice] = s.uploader.PublicURL(voiceSamplePath(voice))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"samples": samples,
	})
}

// generateVoiceSamples synthesizes and stores a preview clip per voice.
// Run once at setup; reruns overwrite the clips in place.
func (s *Server) generateVoiceSamples(c echo.Context) error {
	ctx := c.Request().Context()

	samples := map[string]string{}
	for _, voice := range speech.AllVoices() {
		text := fmt.Sprintf("Hello, this is a preview of the %s voice. %s", voice, speech.VoiceDescriptions[voice])

		audio, err := s.speech.Synthesize(ctx, text, voice)
		if err != nil {
			return fmt.Errorf("failed to synthesize %s sample: %w", voice, err)
		}

		url, err := s.uploader.Upload(ctx, voiceSamplePath(voice), audio, "audio/mpeg")
		if err != nil {
			return fmt.Errorf("failed to upload %s sample: %w", voice, err)
		}
		samples[voice] = url
		log.Debug().Str("voice", voice).Str("url", url).Msg("generated voice sample")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Voice samples generated successfully",
		"samples": samples,
	})
}
