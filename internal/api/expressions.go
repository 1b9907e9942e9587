package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/expresslang/express/internal/api/auth"
	"github.com/expresslang/express/pkg/models"
)

type saveExpressionRequest struct {
	Expression     string  `json:"expression"`
	Translation    string  `json:"translation"`
	Context        *string `json:"context"`
	Category       *string `json:"category"`
	ConversationID *string `json:"conversation_id"`
}

func (s *Server) saveExpression(c echo.Context) error {
	ctx := c.Request().Context()

	var req saveExpressionRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Expression == "" || req.Translation == "" {
		return fail(c, http.StatusBadRequest, "expression and translation are required")
	}

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(c, http.StatusNotFound, "User not found")
	}

	saved, err := s.expressions.Save(ctx, u.ID, req.Expression, req.Translation, req.Context, req.Category, req.ConversationID)
	if err != nil {
		return err
	}
	return success(c, saved)
}

func (s *Server) listExpressions(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(c, http.StatusNotFound, "User not found")
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, perr := strconv.Atoi(raw); perr == nil && parsed > 0 {
			limit = parsed
		}
	}

	expressions, err := s.expressions.ListForUser(ctx, u.ID, limit)
	if err != nil {
		return err
	}
	if expressions == nil {
		expressions = []models.SavedExpression{}
	}
	return success(c, expressions)
}

func (s *Server) searchExpressions(c echo.Context) error {
	ctx := c.Request().Context()

	query := c.QueryParam("q")
	if query == "" {
		return fail(c, http.StatusBadRequest, "q is required")
	}

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(c, http.StatusNotFound, "User not found")
	}

	matches, err := s.expressions.Search(ctx, u.ID, query)
	if err != nil {
		return err
	}
	if matches == nil {
		matches = []models.SavedExpression{}
	}
	return success(c, matches)
}

func (s *Server) deleteExpression(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := s.users.ByAuthID(ctx, auth.GetIdentity(c).AuthID)
	if err != nil {
		return err
	}
	if u == nil {
		return fail(c, http.StatusNotFound, "User not found")
	}

	deleted, err := s.expressions.Delete(ctx, c.Param("id"), u.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return fail(c, http.StatusNotFound, "Expression not found")
	}
	return successWithMessage(c, nil, "Expression deleted")
}
