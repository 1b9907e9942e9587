package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/expresslang/express/internal/progression"
	"github.com/expresslang/express/pkg/models"
)

type stubConversations struct {
	library []models.Conversation
}

func (s *stubConversations) LibraryOrdered(context.Context, string) ([]models.Conversation, error) {
	return s.library, nil
}

type stubCompletions struct{}

func (stubCompletions) CompletedIDs(context.Context, string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

type stubUsers struct{}

func (stubUsers) ByAuthID(context.Context, string) (*models.User, error) {
	return nil, nil
}

func performNext(t *testing.T, library []models.Conversation) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	s := &Server{resolver: progression.NewResolver(&stubConversations{library: library}, stubCompletions{}, stubUsers{})}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/conversations/next", nil)
	rec := httptest.NewRecorder()

	err := s.nextConversation(e.NewContext(req, rec))
	assert.NoError(t, err)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestNextConversationEmptyLibraryIsNotAnError(t *testing.T) {
	rec, body := performNext(t, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "No conversations available", body["message"])
	assert.Nil(t, body["data"])
}

func TestNextConversationProgressRidesBesideData(t *testing.T) {
	library := []models.Conversation{
		{ID: "c1", Scenario: "first day", DayNumber: 1, IsLibrary: true},
		{ID: "c2", Scenario: "second day", DayNumber: 2, IsLibrary: true},
	}
	rec, body := performNext(t, library)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])
	assert.NotNil(t, body["data"])
	progress, ok := body["progress"].(map[string]interface{})
	assert.True(t, ok)
	assert.EqualValues(t, 2, progress["total_days"])
}
