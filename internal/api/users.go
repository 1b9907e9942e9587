package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/expresslang/express/internal/api/auth"
)

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type selectCharacterRequest struct {
	CharacterName string `json:"character_name"`
	StartDate     string `json:"character_start_date"`
}

// upsertProfile creates the user's profile after sign-up. Repeat calls are
// harmless and return the existing profile.
func (s *Server) upsertProfile(c echo.Context) error {
	identity := auth.GetIdentity(c)

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	email := identity.Email
	if email == "" {
		email = req.Email
	}
	name := req.Name
	if name == "" {
		name = identity.Name
	}

	profile, err := s.users.GetOrCreate(c.Request().Context(), identity.AuthID, email, name)
	if err != nil {
		return err
	}
	return success(c, profile)
}

// getProfile returns the caller's profile, creating it on first contact so
// clients never have to special-case a missing row.
func (s *Server) getProfile(c echo.Context) error {
	identity := auth.GetIdentity(c)
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, identity.AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		name := identity.Name
		if name == "" {
			name = strings.SplitN(identity.Email, "@", 2)[0]
		}
		u, err = s.users.GetOrCreate(ctx, identity.AuthID, identity.Email, name)
		if err != nil {
			return err
		}
	}
	return success(c, u)
}

// selectUserCharacter attaches a story character to the user's profile.
func (s *Server) selectUserCharacter(c echo.Context) error {
	identity := auth.GetIdentity(c)
	ctx := c.Request().Context()

	var req selectCharacterRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.CharacterName == "" {
		return fail(c, http.StatusBadRequest, "character_name is required")
	}

	u, err := s.users.ByAuthID(ctx, identity.AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(c, http.StatusNotFound, "User not found")
	}

	ch, err := s.characters.ByName(ctx, req.CharacterName)
	if err != nil {
		return fail(c, http.StatusNotFound, "Character '"+req.CharacterName+"' not found")
	}

	startDate := time.Now().UTC()
	if req.StartDate != "" {
		if parsed, perr := time.Parse(time.RFC3339, req.StartDate); perr == nil {
			startDate = parsed
		}
	}

	updated, err := s.users.SetCharacter(ctx, u.ID, ch.ID, startDate)
	if err != nil {
		return err
	}
	return success(c, updated)
}

// userCharacterPayload is the character view the home screen renders,
// including which story day the user is on relative to their start date.
type userCharacterPayload struct {
	CharacterName     string     `json:"character_name"`
	CharacterEmoji    string     `json:"character_emoji"`
	CharacterLocation string     `json:"character_location"`
	CharacterAgeGroup string     `json:"character_age_group"`
	CharacterGender   string     `json:"character_gender"`
	StartDate         *time.Time `json:"character_start_date"`
	DayNumber         int        `json:"day_number"`
}

func strOr(p *string, fallback string) string {
	if p == nil || *p == "" {
		return fallback
	}
	return *p
}

func (s *Server) currentUserCharacter(c echo.Context) error {
	identity := auth.GetIdentity(c)
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, identity.AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(c, http.StatusNotFound, "User not found")
	}
	if u.CharacterID == nil {
		return success(c, nil)
	}

	ch, err := s.characters.ByID(ctx, *u.CharacterID)
	if err != nil {
		return err
	}

	payload := userCharacterPayload{
		CharacterName:     ch.Name,
		CharacterEmoji:    strOr(ch.Emoji, "👤"),
		CharacterLocation: strOr(ch.Location, "new-york"),
		CharacterAgeGroup: strOr(ch.AgeGroup, "25-34"),
		CharacterGender:   strOr(ch.Gender, "neutral"),
		StartDate:         u.CharacterStartDate,
		DayNumber:         storyDayNumber(u.CharacterStartDate),
	}
	return success(c, payload)
}

// userStatsPayload aggregates practice stats with streak data for the main
// screen.
type userStatsPayload struct {
	TotalSentences         int        `json:"total_sentences"`
	TotalExpressions       int        `json:"total_expressions"`
	CompletedConversations int        `json:"completed_conversations"`
	CurrentStreak          int        `json:"current_streak"`
	LongestStreak          int        `json:"longest_streak"`
	LastPracticeDate       *time.Time `json:"last_practice_date,omitempty"`
	LastAppOpenDate        *time.Time `json:"last_app_open_date,omitempty"`
}

func (s *Server) userStats(c echo.Context) error {
	identity := auth.GetIdentity(c)
	ctx := c.Request().Context()

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

	stats, err := s.completions.Stats(ctx, u.ID)
	if err != nil {
		return err
	}
	completions, err := s.completions.ListForUser(ctx, u.ID)
	if err != nil {
		return err
	}
	expressions, err := s.expressions.ListForUser(ctx, u.ID, 0)
	if err != nil {
		return err
	}

	return success(c, userStatsPayload{
		TotalSentences:         stats.TotalSentences,
		TotalExpressions:       len(expressions),
		CompletedConversations: len(completions),
		CurrentStreak:          u.CurrentStreak,
		LongestStreak:          u.LongestStreak,
		LastPracticeDate:       stats.LastPracticeDate,
		LastAppOpenDate:        u.LastAppOpenDate,
	})
}
