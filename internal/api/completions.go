package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/expresslang/express/internal/api/auth"
	"github.com/expresslang/express/pkg/models"
)

type recordCompletionRequest struct {
	ConversationID       string   `json:"conversation_id"`
	SentencesPracticed   int      `json:"sentences_practiced"`
	CompletionPercentage *float64 `json:"completion_percentage"`
}

// recordCompletion marks a conversation done for the caller. First-time
// callers get a profile created on the spot so nothing is lost.
func (s *Server) recordCompletion(c echo.Context) error {
	identity := auth.GetIdentity(c)
	ctx := c.Request().Context()

	var req recordCompletionRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.ConversationID == "" {
		return fail(c, http.StatusBadRequest, "conversation_id is required")
	}
	percentage := 100.0
	if req.CompletionPercentage != nil {
		percentage = *req.CompletionPercentage
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

	if _, err := s.completions.Record(ctx, u.ID, req.ConversationID, req.SentencesPracticed, percentage); err != nil {
		return err
	}

	return success(c, map[string]interface{}{
		"conversation_id":       req.ConversationID,
		"sentences_practiced":   req.SentencesPracticed,
		"completion_percentage": percentage,
		"is_completed":          true,
	})
}

func (s *Server) myCompletions(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return listWithCount(c, []models.Completion{}, 0)
	}

	completions, err := s.completions.ListForUser(ctx, u.ID)
	if err != nil {
		return err
	}
	return listWithCount(c, completions, len(completions))
}

// availableConversations lists library conversations the caller has not
// completed. Unknown users see the whole library.
func (s *Server) availableConversations(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}

	var available []models.Conversation
	if u == nil {
		available, err = s.conversations.LibraryOrdered(ctx, "")
	} else {
		available, err = s.completions.Available(ctx, u.ID)
	}
	if err != nil {
		return err
	}
	return listWithCount(c, available, len(available))
}

// conversationsWithStatus lists every library conversation annotated with
// the caller's completion state, plus total and completed counts.
func (s *Server) conversationsWithStatus(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		library, err := s.conversations.LibraryOrdered(ctx, "")
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "success",
			"data":      library,
			"total":     len(library),
			"completed": 0,
		})
	}

	statuses, err := s.completions.WithStatus(ctx, u.ID)
	if err != nil {
		return err
	}
	completed := 0
	for _, st := range statuses {
		if st.Completed {
			completed++
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "success",
		"data":      statuses,
		"total":     len(statuses),
		"completed": completed,
	})
}

// resetCompletions wipes the caller's completion history and sentence
// totals so the track starts over from day one.
func (s *Server) resetCompletions(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return successWithMessage(c, nil, "No completions to reset")
	}

	deleted, err := s.completions.Reset(ctx, u.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":        "success",
		"message":       "All completions reset successfully",
		"deleted_count": deleted,
	})
}

func listWithCount(c echo.Context, items interface{}, count int) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   items,
		"count":  count,
	})
}
