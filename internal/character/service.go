// Package character manages the character catalog and per-user story
// progress.
package character

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/expresslang/express/pkg/models"
)

// ErrNotFound is returned when a character does not exist.
var ErrNotFound = fmt.Errorf("character not found")

// Service reads the characters table and tracks user story progress.
type Service struct {
	db *sql.DB
}

// NewService creates a character service backed by db.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

const characterColumns = `id, name, emoji, location, age_group, gender, chapter_count`

func scanCharacter(row interface{ Scan(...interface{}) error }) (*models.Character, error) {
	var c models.Character
	err := row.Scan(&c.ID, &c.Name, &c.Emoji, &c.Location, &c.AgeGroup, &c.Gender, &c.ChapterCount)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all selectable characters.
func (s *Service) List(ctx context.Context) ([]models.Character, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+characterColumns+` FROM characters ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer rows.Close()

	characters := []models.Character{}
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		characters = append(characters, *c)
	}
	return characters, rows.Err()
}

// ByID fetches one character. Returns ErrNotFound when absent.
func (s *Service) ByID(ctx context.Context, id string) (*models.Character, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = $1`, id)
	c, err := scanCharacter(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch character %s: %w", id, err)
	}
	return c, nil
}

// ByName fetches one character by display name. Returns ErrNotFound when
// absent.
func (s *Service) ByName(ctx context.Context, name string) (*models.Character, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE name = $1`, name)
	c, err := scanCharacter(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch character %q: %w", name, err)
	}
	return c, nil
}

// InitProgress seeds (or refreshes) the story progress row created when a
// user picks a character.
func (s *Service) InitProgress(ctx context.Context, userID, characterID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_character_progress
			(user_id, character_id, current_chapter, chapters_completed, started_at, last_played_at)
		VALUES ($1, $2, 1, 0, now(), now())
		ON CONFLICT (user_id, character_id) DO UPDATE SET last_played_at = now()`,
		userID, characterID)
	if err != nil {
		return fmt.Errorf("failed to init character progress: %w", err)
	}
	return nil
}

// StoryProgress combines a progress row with its character metadata.
type StoryProgress struct {
	CharacterID          string  `json:"character_id"`
	CharacterName        string  `json:"character_name"`
	CurrentChapter       int     `json:"current_chapter"`
	TotalChapters        int     `json:"total_chapters"`
	ChaptersCompleted    int     `json:"chapters_completed"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// Progress reports where the user is in the given character's story. A user
// with no progress row yet gets the chapter-one initial state.
func (s *Service) Progress(ctx context.Context, userID, characterID string) (*StoryProgress, error) {
	ch, err := s.ByID(ctx, characterID)
	if err != nil {
		return nil, err
	}

	p := StoryProgress{
		CharacterID:    ch.ID,
		CharacterName:  ch.Name,
		CurrentChapter: 1,
		TotalChapters:  ch.ChapterCount,
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT current_chapter, chapters_completed
		FROM user_character_progress
		WHERE user_id = $1 AND character_id = $2`,
		userID, characterID,
	).Scan(&p.CurrentChapter, &p.ChaptersCompleted)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to fetch character progress: %w", err)
	}

	if p.TotalChapters > 0 {
		p.CompletionPercentage = float64(p.ChaptersCompleted) / float64(p.TotalChapters) * 100
	}
	return &p, nil
}

// Advance marks the chapter holding conversationID as completed and moves
// the user to the next one. The conversation's day_number is its chapter
// position within the character's story.
func (s *Service) Advance(ctx context.Context, userID, conversationID string) (*StoryProgress, error) {
	var characterID sql.NullString
	var chapter int
	err := s.db.QueryRowContext(ctx,
		`SELECT character_id, day_number FROM conversations WHERE id = $1`,
		conversationID,
	).Scan(&characterID, &chapter)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversation chapter: %w", err)
	}
	if !characterID.Valid {
		return nil, fmt.Errorf("conversation %s is not part of a character story", conversationID)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_character_progress
			(user_id, character_id, current_chapter, chapters_completed, started_at, last_played_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (user_id, character_id) DO UPDATE SET
			current_chapter = GREATEST(user_character_progress.current_chapter, EXCLUDED.current_chapter),
			chapters_completed = GREATEST(user_character_progress.chapters_completed, EXCLUDED.chapters_completed),
			last_played_at = now()`,
		userID, characterID.String, chapter+1, chapter)
	if err != nil {
		return nil, fmt.Errorf("failed to advance character progress: %w", err)
	}

	return s.Progress(ctx, userID, characterID.String)
}
