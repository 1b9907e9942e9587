package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/expresslang/express/internal/api/auth"
	"github.com/expresslang/express/pkg/models"
)

type practiceCompleteRequest struct {
	SentencesPracticed int `json:"sentences_practiced"`
}

// completePractice logs a finished practice session and rolls the totals
// and streak forward.
func (s *Server) completePractice(c echo.Context) error {
	ctx := c.Request().Context()

	var req practiceCompleteRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(c, http.StatusNotFound, "User not found")
	}

	if err := s.completions.UpdateStats(ctx, u.ID, req.SentencesPracticed, 0); err != nil {
		return err
	}
	stats, err := s.completions.Stats(ctx, u.ID)
	if err != nil {
		return err
	}

	return success(c, map[string]interface{}{
		"stats":               stats,
		"sentences_practiced": req.SentencesPracticed,
	})
}

// dailyCheck records an app open and updates the open-day streak.
func (s *Server) dailyCheck(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(c, http.StatusNotFound, "User not found")
	}

	result, err := s.users.DailyCheck(ctx, u.ID)
	if err != nil {
		return err
	}
	return success(c, result)
}

func (s *Server) practiceStreak(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(c, http.StatusNotFound, "User not found")
	}

	return success(c, map[string]interface{}{
		"current_streak":     u.CurrentStreak,
		"longest_streak":     u.LongestStreak,
		"last_app_open_date": u.LastAppOpenDate,
	})
}

// practiceHistory returns the last N days of practice, newest first. The
// days_requested and days_practiced counters ride beside the log rows.
func (s *Server) practiceHistory(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(c, http.StatusNotFound, "User not found")
	}

	days := 30
	if raw := c.QueryParam("days"); raw != "" {
		if parsed, perr := strconv.Atoi(raw); perr == nil && parsed > 0 {
			days = parsed
		}
	}

	history, err := s.completions.History(ctx, u.ID, days)
	if err != nil {
		return err
	}
	if history == nil {
		history = []models.DailyPractice{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":         "success",
		"data":           history,
		"days_requested": days,
		"days_practiced": len(history),
	})
}
