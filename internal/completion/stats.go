package completion

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/expresslang/express/pkg/models"
)

// Stats returns the user's aggregate practice record, zero-valued when the
// user has never practiced.
func (s *Service) Stats(ctx context.Context, userID string) (*models.UserStats, error) {
	var st models.UserStats
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, total_sentences, total_expressions, current_streak,
			longest_streak, last_practice_date, updated_at
		FROM user_stats WHERE user_id = $1`, userID,
	).Scan(&st.UserID, &st.TotalSentences, &st.TotalExpressions, &st.CurrentStreak,
		&st.LongestStreak, &st.LastPracticeDate, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return &models.UserStats{UserID: userID, UpdatedAt: time.Now()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user stats: %w", err)
	}
	return &st, nil
}

// AdjustCounters bumps aggregate counters without touching the streak, used
// by the progress update endpoint for expression saves.
func (s *Service) AdjustCounters(ctx context.Context, userID string, sentences, expressions int) (*models.UserStats, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_stats (user_id, total_sentences, total_expressions, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE SET
			total_sentences = user_stats.total_sentences + EXCLUDED.total_sentences,
			total_expressions = user_stats.total_expressions + EXCLUDED.total_expressions,
			updated_at = now()`,
		userID, sentences, expressions)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust counters: %w", err)
	}
	return s.Stats(ctx, userID)
}

// StreakStatus describes the practice streak relative to today.
type StreakStatus struct {
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	PracticedToday   bool       `json:"practiced_today"`
	StreakAtRisk     bool       `json:"streak_at_risk"`
	LastPracticeDate *time.Time `json:"last_practice_date,omitempty"`
}

// Streak reports whether today's practice has happened and whether the
// streak dies at midnight.
func (s *Service) Streak(ctx context.Context, userID string) (StreakStatus, error) {
	st, err := s.Stats(ctx, userID)
	if err != nil {
		return StreakStatus{}, err
	}

	status := StreakStatus{
		CurrentStreak:    st.CurrentStreak,
		LongestStreak:    st.LongestStreak,
		LastPracticeDate: st.LastPracticeDate,
	}
	if st.LastPracticeDate == nil {
		return status, nil
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	last := *st.LastPracticeDate
	lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, now.Location())

	status.PracticedToday = lastDay.Equal(today)
	status.StreakAtRisk = !status.PracticedToday && lastDay.AddDate(0, 0, 1).Equal(today)
	return status, nil
}

// History returns the user's daily practice log for the last `days` days,
// most recent first.
func (s *Service) History(ctx context.Context, userID string, days int) ([]models.DailyPractice, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02")

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, practice_date, sentences_count, conversations_count
		FROM daily_practice_log
		WHERE user_id = $1 AND practice_date >= $2::date
		ORDER BY practice_date DESC`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch practice history: %w", err)
	}
	defer rows.Close()

	history := []models.DailyPractice{}
	for rows.Next() {
		var p models.DailyPractice
		if err := rows.Scan(&p.ID, &p.UserID, &p.PracticeDate, &p.SentencesCount, &p.ConversationsCount); err != nil {
			return nil, fmt.Errorf("failed to scan practice row: %w", err)
		}
		history = append(history, p)
	}
	return history, rows.Err()
}

// LeaderboardEntry is one row of the top-practicers list.
type LeaderboardEntry struct {
	UserID           string `json:"user_id"`
	TotalSentences   int    `json:"total_sentences"`
	TotalExpressions int    `json:"total_expressions"`
	CurrentStreak    int    `json:"current_streak"`
}

// Leaderboard lists the most active users over the given period
// ("week" or "month"), by total sentences.
func (s *Service) Leaderboard(ctx context.Context, period string) ([]LeaderboardEntry, error) {
	days := 7
	if period == "month" {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02")

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, total_sentences, total_expressions, current_streak
		FROM user_stats
		WHERE last_practice_date >= $1::date
		ORDER BY total_sentences DESC
		LIMIT 20`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.TotalSentences, &e.TotalExpressions, &e.CurrentStreak); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
