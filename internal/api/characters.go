package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/expresslang/express/internal/api/auth"
	"github.com/expresslang/express/internal/character"
)

type characterSelection struct {
	CharacterID string `json:"character_id"`
}

func (s *Server) listCharacters(c echo.Context) error {
	characters, err := s.characters.List(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, characters)
}

// selectCharacter picks a story character by id and resets the story clock
// to now. Progress tracking for the character starts at chapter one.
func (s *Server) selectCharacter(c echo.Context) error {
	identity := auth.GetIdentity(c)
	ctx := c.Request().Context()

	var req characterSelection
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.CharacterID == "" {
		return fail(c, http.StatusBadRequest, "character_id is required")
	}

	u, err := s.users.ByAuthID(ctx, identity.AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		name := strings.SplitN(identity.Email, "@", 2)[0]
		u, err = s.users.GetOrCreate(ctx, identity.AuthID, identity.Email, name)
		if err != nil {
			return err
		}
	}

	if _, err := s.users.SetCharacter(ctx, u.ID, req.CharacterID, time.Now().UTC()); err != nil {
		return err
	}
	if err := s.characters.InitProgress(ctx, u.ID, req.CharacterID); err != nil {
		return err
	}

	return successWithMessage(c, map[string]interface{}{
		"character_id": req.CharacterID,
		"user_id":      u.ID,
	}, "Character "+req.CharacterID+" selected")
}

func (s *Server) currentCharacter(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil || u.CharacterID == nil {
		return successWithMessage(c, nil, "No character selected")
	}

	ch, err := s.characters.ByID(ctx, *u.CharacterID)
	if err != nil {
		if errors.Is(err, character.ErrNotFound) {
			return successWithMessage(c, nil, "Character not found")
		}
		return err
	}
	return success(c, ch)
}

func (s *Server) characterProgress(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil || u.CharacterID == nil {
		return successWithMessage(c, nil, "No character selected")
	}

	progress, err := s.characters.Progress(ctx, u.ID, *u.CharacterID)
	if err != nil {
		return err
	}
	return success(c, progress)
}

// characterNextConversation resolves the next chapter in the caller's
// story track, or reports completion once every chapter is done.
func (s *Server) characterNextConversation(c echo.Context) error {
	ctx := c.Request().Context()
	authID := auth.AuthID(c)

	if authID != "" {
		u, err := s.users.ByAuthID(ctx, authID)
		if err != nil {
			return err
		}
		if u == nil {
			return fail(c, http.StatusNotFound, "User not found")
		}
		if u.CharacterID == nil {
			return successWithMessage(c, nil, "Please select a character first")
		}
	}

	result, err := s.resolver.Next(ctx, authID)
	if err != nil {
		return err
	}
	if result.Empty {
		return successWithMessage(c, nil, "No conversations available")
	}
	if result.AllCompleted {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "success",
			"data":      nil,
			"message":   "All chapters completed! Great job!",
			"completed": true,
		})
	}

	conv := result.Conversation
	return success(c, map[string]interface{}{
		"conversation_id": conv.ID,
		"scenario":        conv.Scenario,
		"day_number":      conv.DayNumber,
	})
}

type updateProgressRequest struct {
	ConversationID string `json:"conversation_id"`
}

// advanceCharacterProgress moves the story pointer forward after a
// conversation is finished.
func (s *Server) advanceCharacterProgress(c echo.Context) error {
	ctx := c.Request().Context()

	var req updateProgressRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.ConversationID == "" {
		return fail(c, http.StatusBadRequest, "conversation_id is required")
	}

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(c, http.StatusNotFound, "User not found")
	}

	progress, err := s.characters.Advance(ctx, u.ID, req.ConversationID)
	if err != nil {
		if errors.Is(err, character.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Conversation not found")
		}
		return err
	}

	return successWithMessage(c, map[string]interface{}{
		"chapters_completed": progress.ChaptersCompleted,
		"current_chapter":    progress.CurrentChapter,
	}, "Progress updated")
}
