package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expresslang/express/internal/importer"
)

type parseImportRequest struct {
	Text string `json:"text"`
}

type saveImportBatchRequest struct {
	Conversations []importer.Parsed `json:"conversations"`
	CharacterName string            `json:"character_name"`
	SpeakerVoices map[string]string `json:"speaker_voices"`
}

// parseImport previews how pasted script text splits into conversations,
// without saving anything.
func (s *Server) parseImport(c echo.Context) error {
	var req parseImportRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Text == "" {
		return fail(c, http.StatusBadRequest, "text is required")
	}

	parsed := importer.Parse(req.Text)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   parsed,
		"count":  len(parsed),
	})
}

// saveImportBatch persists previewed conversations into the library and
// queues audio synthesis for their scripted turns.
func (s *Server) saveImportBatch(c echo.Context) error {
	var req saveImportBatchRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if len(req.Conversations) == 0 {
		return fail(c, http.StatusBadRequest, "conversations is required")
	}

	result, err := s.importer.SaveBatch(c.Request().Context(), req.Conversations, req.CharacterName, req.SpeakerVoices)
	if err != nil {
		return err
	}
	return success(c, result)
}
