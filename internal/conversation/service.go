// Package conversation is the conversation store: library listing in
// progression order, lookups, and writes from the import and generation
// flows.
package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/expresslang/express/pkg/models"
)

// ErrNotFound is returned when a conversation id does not exist.
var ErrNotFound = fmt.Errorf("conversation not found")

// Service reads and writes the conversations table.
type Service struct {
	db *sql.DB
}

// NewService creates a conversation service backed by db.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

const conversationColumns = `id, scenario, journal_context, difficulty_level, dialogue,
	day_number, time_of_day, location, description, character_id,
	is_library, imported, created_at`

func scanConversation(row interface{ Scan(...interface{}) error }) (models.Conversation, error) {
	var c models.Conversation
	var dialogue []byte
	err := row.Scan(&c.ID, &c.Scenario, &c.JournalContext, &c.DifficultyLevel, &dialogue,
		&c.DayNumber, &c.TimeOfDay, &c.Location, &c.Description, &c.CharacterID,
		&c.IsLibrary, &c.Imported, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	c.Dialogue, err = models.DecodeDialogue(dialogue)
	return c, err
}

// LibraryOrdered returns library conversations in progression order:
// day_number ascending with id as the stable tiebreak. A non-empty
// characterID restricts the set to that character's track.
func (s *Service) LibraryOrdered(ctx context.Context, characterID string) ([]models.Conversation, error) {
	query := `SELECT ` + conversationColumns + `
		FROM conversations
		WHERE is_library
		ORDER BY day_number ASC, id ASC`
	args := []interface{}{}
	if characterID != "" {
		query = `SELECT ` + conversationColumns + `
			FROM conversations
			WHERE is_library AND character_id = $1
			ORDER BY day_number ASC, id ASC`
		args = append(args, characterID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list library conversations: %w", err)
	}
	defer rows.Close()

	conversations := []models.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// ByID fetches one conversation. Returns ErrNotFound when the id is absent.
func (s *Service) ByID(ctx context.Context, id string) (*models.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	c, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversation %s: %w", id, err)
	}
	return &c, nil
}

// Random picks one library conversation uniformly, optionally restricted to
// a character's track. Returns ErrNotFound when the eligible set is empty.
func (s *Service) Random(ctx context.Context, characterID string) (*models.Conversation, error) {
	ordered, err := s.LibraryOrdered(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if len(ordered) == 0 {
		return nil, ErrNotFound
	}
	pick := ordered[rand.Intn(len(ordered))]
	return &pick, nil
}

// Create inserts a conversation and returns it with its assigned id.
func (s *Service) Create(ctx context.Context, c models.Conversation) (*models.Conversation, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	dialogue, err := models.EncodeDialogue(c.Dialogue)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO conversations
			(id, scenario, journal_context, difficulty_level, dialogue, day_number,
			 time_of_day, location, description, character_id, is_library, imported)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+conversationColumns,
		c.ID, c.Scenario, c.JournalContext, c.DifficultyLevel, dialogue, c.DayNumber,
		c.TimeOfDay, c.Location, c.Description, c.CharacterID, c.IsLibrary, c.Imported)

	created, err := scanConversation(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}
	return &created, nil
}

// CreateBatch inserts a set of conversations in one transaction. Either all
// of them persist or none do.
func (s *Service) CreateBatch(ctx context.Context, conversations []models.Conversation) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin batch insert: %w", err)
	}
	defer tx.Rollback()

	ids := make([]string, 0, len(conversations))
	for _, c := range conversations {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		dialogue, err := models.EncodeDialogue(c.Dialogue)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO conversations
				(id, scenario, journal_context, difficulty_level, dialogue, day_number,
				 time_of_day, location, description, character_id, is_library, imported)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			c.ID, c.Scenario, c.JournalContext, c.DifficultyLevel, dialogue, c.DayNumber,
			c.TimeOfDay, c.Location, c.Description, c.CharacterID, c.IsLibrary, c.Imported)
		if err != nil {
			return nil, fmt.Errorf("failed to insert conversation in batch: %w", err)
		}
		ids = append(ids, c.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch insert: %w", err)
	}
	return ids, nil
}

// UpdateDialogue replaces a conversation's dialogue column, used when the
// audio pipeline fills in turn audio urls.
func (s *Service) UpdateDialogue(ctx context.Context, id string, turns []models.DialogueTurn) error {
	dialogue, err := models.EncodeDialogue(turns)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET dialogue = $2 WHERE id = $1`, id, dialogue)
	if err != nil {
		return fmt.Errorf("failed to update dialogue for %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
