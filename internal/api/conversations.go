package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/expresslang/express/internal/ai"
	"github.com/expresslang/express/internal/api/auth"
	"github.com/expresslang/express/internal/conversation"
)

type generateConversationRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

type suggestionsRequest struct {
	UserInput     string `json:"user_input"`
	Context       string `json:"context"`
	KoreanThought string `json:"korean_thought"`
}

type feedbackRequest struct {
	UserInput        string `json:"user_input"`
	ExpectedResponse string `json:"expected_response"`
	Context          string `json:"context"`
}

// generateConversation serves a random library conversation for the
// requested topic. The topic and difficulty are echoed back so clients can
// keep their request state; when the library is empty or unreachable a
// canned conversation keeps the practice flow alive.
func (s *Server) generateConversation(c echo.Context) error {
	var req generateConversationRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Difficulty == "" {
		req.Difficulty = "intermediate"
	}

	conv, err := s.conversations.Random(c.Request().Context(), "")
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch random conversation, serving fallback")
		fallback := ai.FallbackConversation(req.Topic)
		return success(c, map[string]interface{}{
			"id":         "fallback",
			"dialogue":   fallback.Dialogue,
			"topic":      req.Topic,
			"difficulty": req.Difficulty,
			"created_at": time.Now().UTC(),
		})
	}

	return success(c, map[string]interface{}{
		"id":         conv.ID,
		"dialogue":   conv.Dialogue,
		"topic":      req.Topic,
		"difficulty": req.Difficulty,
		"scenario":   conv.Scenario,
		"created_at": conv.CreatedAt,
	})
}

// suggestExpressions returns alternative phrasings for the user's attempt.
func (s *Server) suggestExpressions(c echo.Context) error {
	var req suggestionsRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	suggestions, err := s.generator.Suggest(c.Request().Context(), req.UserInput, req.Context, req.KoreanThought)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate suggestions, serving fallback")
		suggestions = nil
	}
	if len(suggestions) == 0 {
		suggestions = ai.FallbackSuggestions()
	}

	return success(c, map[string]interface{}{
		"original":    req.UserInput,
		"suggestions": suggestions,
	})
}

// feedbackOnAttempt scores the user's response against the expected one.
func (s *Server) feedbackOnAttempt(c echo.Context) error {
	var req feedbackRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	evaluation, err := s.generator.Evaluate(c.Request().Context(), req.UserInput, req.ExpectedResponse, req.Context)
	if err != nil {
		log.Error().Err(err).Msg("failed to evaluate response, serving fallback")
		evaluation = ai.FallbackEvaluation()
	}

	return success(c, evaluation)
}

// randomConversation serves a random library conversation, narrowed to the
// caller's selected character when authenticated.
func (s *Server) randomConversation(c echo.Context) error {
	ctx := c.Request().Context()

	characterID := ""
	if authID := auth.AuthID(c); authID != "" {
		u, err := s.users.ByAuthID(ctx, authID)
		if err != nil {
			return err
		}
		if u != nil && u.CharacterID != nil {
			characterID = *u.CharacterID
		}
	}

	conv, err := s.conversations.Random(ctx, characterID)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			return fail(c, http.StatusNotFound, "No conversations available for this character")
		}
		return err
	}
	return success(c, conv)
}

// nextConversation resolves where the caller is in the day-by-day track.
// Progress and the all-completed flag ride beside data so clients can show
// track position without unpacking the conversation.
func (s *Server) nextConversation(c echo.Context) error {
	result, err := s.resolver.Next(c.Request().Context(), auth.AuthID(c))
	if err != nil {
		return err
	}
	if result.Empty {
		return successWithMessage(c, nil, "No conversations available")
	}

	payload := map[string]interface{}{
		"status":   "success",
		"data":     result.Conversation,
		"progress": result.Progress,
	}
	if result.AllCompleted {
		payload["all_completed"] = true
	}
	return c.JSON(http.StatusOK, payload)
}

func (s *Server) libraryConversations(c echo.Context) error {
	conversations, err := s.conversations.LibraryOrdered(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return success(c, conversations)
}

func (s *Server) conversationByID(c echo.Context) error {
	conv, err := s.conversations.ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Conversation not found")
		}
		return err
	}
	return success(c, conv)
}

// Topic is a suggested practice scenario.
type Topic struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
}

var conversationTopicList = []Topic{
	{ID: "neighbor_noise", Title: "Talking to a noisy neighbor", Description: "Politely addressing noise complaints", Difficulty: "intermediate"},
	{ID: "work_deadline", Title: "Requesting deadline extension", Description: "Professional communication about deadlines", Difficulty: "intermediate"},
	{ID: "restaurant_order", Title: "Restaurant order issue", Description: "Handling incorrect orders politely", Difficulty: "easy"},
	{ID: "job_interview", Title: "Job interview responses", Description: "Answering common interview questions", Difficulty: "hard"},
	{ID: "small_talk", Title: "Office small talk", Description: "Casual workplace conversations", Difficulty: "easy"},
	{ID: "appointment", Title: "Scheduling appointments", Description: "Making and changing appointments", Difficulty: "easy"},
	{ID: "feedback", Title: "Giving constructive feedback", Description: "Professional feedback to colleagues", Difficulty: "hard"},
	{ID: "networking", Title: "Networking event", Description: "Meeting new professional contacts", Difficulty: "intermediate"},
}

func (s *Server) conversationTopics(c echo.Context) error {
	return success(c, conversationTopicList)
}
