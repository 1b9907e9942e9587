// Package expression manages the learner's saved expressions.
package expression

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/expresslang/express/pkg/models"
)

// Service reads and writes the saved_expressions table.
type Service struct {
	db *sql.DB
}

// NewService creates an expression service backed by db.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

const expressionColumns = `id, user_id, conversation_id, english_expression, korean_thought,
	context, category, mastery_level, practice_count, created_at`

func scanExpression(row interface{ Scan(...interface{}) error }) (*models.SavedExpression, error) {
	var e models.SavedExpression
	err := row.Scan(&e.ID, &e.UserID, &e.ConversationID, &e.EnglishExpression, &e.KoreanThought,
		&e.Context, &e.Category, &e.MasteryLevel, &e.PracticeCount, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Save stores an expression and bumps the user's expression counter.
func (s *Service) Save(ctx context.Context, userID, expression, translation string, note, category, conversationID *string) (*models.SavedExpression, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO saved_expressions
			(user_id, conversation_id, english_expression, korean_thought, context, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+expressionColumns,
		userID, conversationID, expression, translation, note, category)
	saved, err := scanExpression(row)
	if err != nil {
		return nil, fmt.Errorf("failed to save expression: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_stats (user_id, total_expressions, updated_at)
		VALUES ($1, 1, now())
		ON CONFLICT (user_id) DO UPDATE SET
			total_expressions = user_stats.total_expressions + 1,
			updated_at = now()`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to bump expression counter: %w", err)
	}

	return saved, nil
}

// ListForUser returns the user's saved expressions, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]models.SavedExpression, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+expressionColumns+`
		FROM saved_expressions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expressions: %w", err)
	}
	defer rows.Close()

	return collect(rows)
}

// Delete removes an expression owned by userID and decrements the counter.
// Returns false when no such expression exists.
func (s *Service) Delete(ctx context.Context, expressionID, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM saved_expressions WHERE id = $1 AND user_id = $2`,
		expressionID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete expression: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE user_stats SET total_expressions = GREATEST(0, total_expressions - 1), updated_at = now()
		WHERE user_id = $1`, userID)
	if err != nil {
		return true, fmt.Errorf("failed to decrement expression counter: %w", err)
	}
	return true, nil
}

// Search matches the user's expressions against both sides of the pair,
// case-insensitively.
func (s *Service) Search(ctx context.Context, userID, query string) ([]models.SavedExpression, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+expressionColumns+`
		FROM saved_expressions
		WHERE user_id = $1 AND (english_expression ILIKE $2 OR korean_thought ILIKE $2)
		ORDER BY created_at DESC`, userID, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search expressions: %w", err)
	}
	defer rows.Close()

	return collect(rows)
}

func collect(rows *sql.Rows) ([]models.SavedExpression, error) {
	expressions := []models.SavedExpression{}
	for rows.Next() {
		e, err := scanExpression(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expression: %w", err)
		}
		expressions = append(expressions, *e)
	}
	return expressions, rows.Err()
}
