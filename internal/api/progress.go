package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/expresslang/express/internal/api/auth"
)

type progressUpdateRequest struct {
	SentencesPracticed int `json:"sentences_practiced"`
	ExpressionsSaved   int `json:"expressions_saved"`
}

// userProgress returns the caller's aggregate stats. The user id in the
// path must match the authenticated identity; nobody reads anyone else's
// progress.
func (s *Server) userProgress(c echo.Context) error {
	identity := auth.GetIdentity(c)
	if c.Param("user_id") != identity.AuthID {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, identity.AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(c, http.StatusNotFound, "User not found")
	}

	stats, err := s.completions.Stats(ctx, u.ID)
	if err != nil {
		return err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	practicedToday := stats.LastPracticeDate != nil && stats.LastPracticeDate.UTC().Truncate(24*time.Hour).Equal(today)

	return success(c, map[string]interface{}{
		"user_id":            stats.UserID,
		"total_sentences":    stats.TotalSentences,
		"total_expressions":  stats.TotalExpressions,
		"current_streak":     stats.CurrentStreak,
		"longest_streak":     stats.LongestStreak,
		"last_practice_date": stats.LastPracticeDate,
		"practiced_today":    practicedToday,
	})
}

// adjustProgress applies client-side counted practice to the caller's
// stats, rolling the streak forward the same way a session completion does.
func (s *Server) adjustProgress(c echo.Context) error {
	identity := auth.GetIdentity(c)
	if c.Param("user_id") != identity.AuthID {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	ctx := c.Request().Context()

	var req progressUpdateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	u, err := s.users.ByAuthID(ctx, identity.AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(c, http.StatusNotFound, "User not found")
	}

	updated, err := s.completions.AdjustCounters(ctx, u.ID, req.SentencesPracticed, req.ExpressionsSaved)
	if err != nil {
		return err
	}
	return success(c, updated)
}

func (s *Server) streakStatus(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(c, http.StatusNotFound, "User not found")
	}

	status, err := s.completions.Streak(ctx, u.ID)
	if err != nil {
		return err
	}
	return success(c, status)
}

func (s *Server) leaderboard(c echo.Context) error {
	period := c.QueryParam("period")
	if period == "" {
		period = "week"
	}

	entries, err := s.completions.Leaderboard(c.Request().Context(), period)
	if err != nil {
		return err
	}
	return success(c, map[string]interface{}{
		"period":  period,
		"entries": entries,
	})
}
