// Package user manages user profiles, character selection and the app-open
// streak kept on the users table.
package user

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/expresslang/express/pkg/models"
)

// Service reads and writes the users table.
type Service struct {
	db *sql.DB
}

// NewService creates a user service backed by db.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

const userColumns = `id, auth_id, email, name, character_id, character_start_date,
	current_streak, longest_streak, last_app_open_date, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.AuthID, &u.Email, &u.Name, &u.CharacterID, &u.CharacterStartDate,
		&u.CurrentStreak, &u.LongestStreak, &u.LastAppOpenDate, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ByAuthID looks up a user by identity provider subject. Returns (nil, nil)
// when no profile exists yet.
func (s *Service) ByAuthID(ctx context.Context, authID string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE auth_id = $1`, authID)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user by auth id: %w", err)
	}
	return u, nil
}

// ByID looks up a user by row id. Returns (nil, nil) when absent.
func (s *Service) ByID(ctx context.Context, id string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return u, nil
}

// GetOrCreate returns the profile for authID, provisioning one on first
// sight. When name is empty the local part of the email is used.
func (s *Service) GetOrCreate(ctx context.Context, authID, email, name string) (*models.User, error) {
	existing, err := s.ByAuthID(ctx, authID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if name == "" && email != "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (auth_id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (auth_id) DO UPDATE SET email = EXCLUDED.email
		RETURNING `+userColumns,
		authID, email, name)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// SetCharacter records the user's character selection and its start date.
func (s *Service) SetCharacter(ctx context.Context, userID, characterID string, startDate time.Time) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE users SET character_id = $2, character_start_date = $3::date
		WHERE id = $1
		RETURNING `+userColumns,
		userID, characterID, startDate.Format("2006-01-02"))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set character: %w", err)
	}
	return u, nil
}

// DailyCheckResult reports what a daily app-open check did to the streak.
type DailyCheckResult struct {
	StreakIncreased bool `json:"streak_increased"`
	CurrentStreak   int  `json:"current_streak"`
	IsFirstToday    bool `json:"is_first_today"`
	LongestStreak   int  `json:"longest_streak"`
}

// DailyCheck updates the app-open streak on the users table. Opening the
// app again the same day is a no-op; the day after the last open extends
// the streak; a longer gap restarts it at 1.
func (s *Service) DailyCheck(ctx context.Context, userID string) (DailyCheckResult, error) {
	u, err := s.ByID(ctx, userID)
	if err != nil {
		return DailyCheckResult{}, err
	}
	if u == nil {
		return DailyCheckResult{}, fmt.Errorf("user %s not found", userID)
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if u.LastAppOpenDate != nil {
		last := *u.LastAppOpenDate
		lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, now.Location())
		if lastDay.Equal(today) {
			return DailyCheckResult{
				CurrentStreak: u.CurrentStreak,
				LongestStreak: u.LongestStreak,
			}, nil
		}
	}

	streak := 1
	increased := false
	if u.LastAppOpenDate != nil {
		last := *u.LastAppOpenDate
		lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, now.Location())
		if lastDay.AddDate(0, 0, 1).Equal(today) {
			streak = u.CurrentStreak + 1
			increased = true
		}
	}
	longest := u.LongestStreak
	if streak > longest {
		longest = streak
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE users SET current_streak = $2, longest_streak = $3, last_app_open_date = $4::date
		WHERE id = $1`,
		userID, streak, longest, today.Format("2006-01-02"))
	if err != nil {
		return DailyCheckResult{}, fmt.Errorf("failed to update app-open streak: %w", err)
	}

	return DailyCheckResult{
		StreakIncreased: increased,
		CurrentStreak:   streak,
		IsFirstToday:    true,
		LongestStreak:   longest,
	}, nil
}
