// Package completion owns the completion ledger and the aggregate practice
// stats that hang off it.
package completion

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/expresslang/express/pkg/models"
)

// Service records conversation completions and keeps user stats current.
type Service struct {
	db *sql.DB
}

// NewService creates a completion service backed by db.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Record upserts a completion for (userID, conversationID). A repeat
// completion refreshes completed_at instead of inserting a duplicate. Stats
// are updated only after the completion row persists.
func (s *Service) Record(ctx context.Context, userID, conversationID string, sentencesPracticed int, completionPercentage float64) (*models.Completion, error) {
	var rec models.Completion
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO user_conversation_completions
			(user_id, conversation_id, sentences_practiced, completion_percentage, completed_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, conversation_id) DO UPDATE SET
			sentences_practiced = EXCLUDED.sentences_practiced,
			completion_percentage = EXCLUDED.completion_percentage,
			completed_at = now()
		RETURNING user_id, conversation_id, sentences_practiced, completion_percentage, completed_at`,
		userID, conversationID, sentencesPracticed, completionPercentage,
	).Scan(&rec.UserID, &rec.ConversationID, &rec.SentencesPracticed, &rec.CompletionPercentage, &rec.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}

	if err := s.UpdateStats(ctx, userID, sentencesPracticed, 1); err != nil {
		// The completion itself persisted; log and keep going so the
		// client still sees success, matching the write ordering rule.
		log.Error().Err(err).Str("user_id", userID).Msg("stats update failed after completion write")
	}

	return &rec, nil
}

// UpdateStats bumps the aggregate counters and daily practice log for a
// practice event happening now.
func (s *Service) UpdateStats(ctx context.Context, userID string, sentences, conversations int) error {
	today := time.Now()

	var current, longest int
	var lastPractice *time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT current_streak, longest_streak, last_practice_date
		FROM user_stats WHERE user_id = $1`, userID,
	).Scan(&current, &longest, &lastPractice)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to load user stats: %w", err)
	}

	streak := NextStreak(current, lastPractice, today)
	longest = LongestStreak(longest, streak)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_stats
			(user_id, total_sentences, current_streak, longest_streak, last_practice_date, updated_at)
		VALUES ($1, $2, $3, $4, $5::date, now())
		ON CONFLICT (user_id) DO UPDATE SET
			total_sentences = user_stats.total_sentences + EXCLUDED.total_sentences,
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_practice_date = EXCLUDED.last_practice_date,
			updated_at = now()`,
		userID, sentences, streak, longest, today.Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("failed to upsert user stats: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO daily_practice_log (user_id, practice_date, sentences_count, conversations_count)
		VALUES ($1, $2::date, $3, $4)
		ON CONFLICT (user_id, practice_date) DO UPDATE SET
			sentences_count = daily_practice_log.sentences_count + EXCLUDED.sentences_count,
			conversations_count = daily_practice_log.conversations_count + EXCLUDED.conversations_count`,
		userID, today.Format("2006-01-02"), sentences, conversations)
	if err != nil {
		return fmt.Errorf("failed to upsert daily practice log: %w", err)
	}

	return nil
}

// CompletedIDs returns the set of conversation ids the user has completed.
func (s *Service) CompletedIDs(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT conversation_id FROM user_conversation_completions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed ids: %w", err)
	}
	defer rows.Close()

	completed := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan completion row: %w", err)
		}
		completed[id] = true
	}
	return completed, rows.Err()
}

// ListForUser returns the user's completions, most recent first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.Completion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, conversation_id, sentences_practiced, completion_percentage, completed_at
		FROM user_conversation_completions
		WHERE user_id = $1
		ORDER BY completed_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	defer rows.Close()

	completions := []models.Completion{}
	for rows.Next() {
		var c models.Completion
		if err := rows.Scan(&c.UserID, &c.ConversationID, &c.SentencesPracticed, &c.CompletionPercentage, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

// ConversationStatus annotates a library conversation with the user's
// completion state.
type ConversationStatus struct {
	models.Conversation
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// WithStatus returns the eligible library set in store order, each item
// flagged with whether the user completed it.
func (s *Service) WithStatus(ctx context.Context, userID string) ([]ConversationStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.scenario, c.journal_context, c.difficulty_level, c.dialogue,
			c.day_number, c.time_of_day, c.location, c.description, c.character_id,
			c.is_library, c.imported, c.created_at,
			ucc.completed_at
		FROM conversations c
		LEFT JOIN user_conversation_completions ucc
			ON ucc.conversation_id = c.id AND ucc.user_id = $1
		WHERE c.is_library
		ORDER BY c.day_number ASC, c.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations with status: %w", err)
	}
	defer rows.Close()

	out := []ConversationStatus{}
	for rows.Next() {
		var cs ConversationStatus
		var dialogue []byte
		if err := rows.Scan(&cs.ID, &cs.Scenario, &cs.JournalContext, &cs.DifficultyLevel, &dialogue,
			&cs.DayNumber, &cs.TimeOfDay, &cs.Location, &cs.Description, &cs.CharacterID,
			&cs.IsLibrary, &cs.Imported, &cs.CreatedAt, &cs.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation status: %w", err)
		}
		if cs.Dialogue, err = models.DecodeDialogue(dialogue); err != nil {
			return nil, err
		}
		cs.Completed = cs.CompletedAt != nil
		out = append(out, cs)
	}
	return out, rows.Err()
}

// Available returns the eligible conversations the user has not completed,
// in store order. Unlike the resolver there is no wraparound: a fully
// completed track yields an empty list.
func (s *Service) Available(ctx context.Context, userID string) ([]models.Conversation, error) {
	all, err := s.WithStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	available := []models.Conversation{}
	for _, cs := range all {
		if !cs.Completed {
			available = append(available, cs.Conversation)
		}
	}
	return available, nil
}

// Reset deletes all of the user's completion records and zeroes the
// sentence counter. Streak history is left alone.
func (s *Service) Reset(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM user_conversation_completions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset completions: %w", err)
	}
	deleted, _ := res.RowsAffected()

	_, err = s.db.ExecContext(ctx,
		`UPDATE user_stats SET total_sentences = 0, updated_at = now() WHERE user_id = $1`, userID)
	if err != nil {
		return deleted, fmt.Errorf("failed to zero sentence counter: %w", err)
	}

	return deleted, nil
}
