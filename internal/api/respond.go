package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Envelope is the uniform response shape. Every endpoint wraps its payload
// in data with status "success", or returns status "error" with a message.
type Envelope struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Status: "success", Data: data})
}

func successWithMessage(c echo.Context, data interface{}, message string) error {
	return c.JSON(http.StatusOK, Envelope{Status: "success", Data: data, Message: message})
}

func fail(c echo.Context, code int, message string) error {
	return c.JSON(code, Envelope{Status: "error", Message: message})
}

// errorHandler renders every error, including echo's own HTTP errors, in
// the envelope shape so clients never see a bare {"message": ...}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	} else {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled request error")
	}

	if c.Request().Method == http.MethodHead {
		if err := c.NoContent(code); err != nil {
			log.Error().Err(err).Msg("failed to write error response")
		}
		return
	}
	if err := c.JSON(code, Envelope{Status: "error", Message: message}); err != nil {
		log.Error().Err(err).Msg("failed to write error response")
	}
}
