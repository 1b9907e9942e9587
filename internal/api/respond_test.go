package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func performError(t *testing.T, err error) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	errorHandler(err, c)

	var env Envelope
	if uerr := json.Unmarshal(rec.Body.Bytes(), &env); uerr != nil {
		t.Fatalf("response is not an envelope: %v", uerr)
	}
	return rec, env
}

func TestErrorHandlerWrapsHTTPError(t *testing.T) {
	rec, env := performError(t, echo.NewHTTPError(http.StatusNotFound, "Conversation not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "Conversation not found", env.Message)
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	rec, env := performError(t, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "Internal server error", env.Message)
	assert.NotContains(t, env.Message, "pq:")
}

func TestErrorHandlerNonStringHTTPErrorMessage(t *testing.T) {
	rec, env := performError(t, echo.NewHTTPError(http.StatusTooManyRequests, map[string]string{"reason": "slow down"}))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, http.StatusText(http.StatusTooManyRequests), env.Message)
}

func TestSuccessEnvelope(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := success(c, map[string]string{"hello": "world"})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var env Envelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "success", env.Status)
	assert.Empty(t, env.Message)
}
