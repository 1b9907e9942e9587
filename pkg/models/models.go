package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// User represents an app user provisioned from the identity provider.
// AuthID is the identity provider's subject; ID is our own row key.
type User struct {
	ID                 string     `json:"id" db:"id"`
	AuthID             string     `json:"auth_id" db:"auth_id"`
	Email              string     `json:"email" db:"email"`
	Name               string     `json:"name" db:"name"`
	CharacterID        *string    `json:"character_id,omitempty" db:"character_id"`
	CharacterStartDate *time.Time `json:"character_start_date,omitempty" db:"character_start_date"`
	CurrentStreak      int        `json:"current_streak" db:"current_streak"`
	LongestStreak      int        `json:"longest_streak" db:"longest_streak"`
	LastAppOpenDate    *time.Time `json:"last_app_open_date,omitempty" db:"last_app_open_date"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

// Character is a story-track persona users practice alongside.
type Character struct {
	ID           string  `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	Emoji        *string `json:"emoji,omitempty" db:"emoji"`
	Location     *string `json:"location,omitempty" db:"location"`
	AgeGroup     *string `json:"age_group,omitempty" db:"age_group"`
	Gender       *string `json:"gender,omitempty" db:"gender"`
	ChapterCount int     `json:"chapter_count" db:"chapter_count"`
}

// DialogueTurn is one entry in a conversation's dialogue. A turn is exactly
// one of two variants:
//
//   - practice moment: KoreanThought + EnglishHint set, no Text, no audio
//   - scripted line: Text set (AudioURL once processed), no thought/hint
//
// IsPractice records which variant the turn is.
type DialogueTurn struct {
	ID            int     `json:"id"`
	Speaker       string  `json:"speaker"`
	IsPractice    bool    `json:"is_practice"`
	Text          *string `json:"text"`
	KoreanThought *string `json:"korean_thought"`
	EnglishHint   *string `json:"english_hint"`
	AudioURL      *string `json:"audio_url"`
	Voice         string  `json:"voice,omitempty"`
}

// PracticeTurn builds a practice-moment turn.
func PracticeTurn(id int, speaker, koreanThought, englishHint string) DialogueTurn {
	return DialogueTurn{
		ID:            id,
		Speaker:       speaker,
		IsPractice:    true,
		KoreanThought: &koreanThought,
		EnglishHint:   &englishHint,
	}
}

// ScriptedTurn builds a spoken-line turn. AudioURL is filled later by the
// audio pipeline.
func ScriptedTurn(id int, speaker, text string) DialogueTurn {
	return DialogueTurn{
		ID:      id,
		Speaker: speaker,
		Text:    &text,
	}
}

// Validate checks the variant invariant: practice and scripted fields are
// mutually exclusive.
func (t DialogueTurn) Validate() error {
	hasThought := t.KoreanThought != nil && *t.KoreanThought != ""
	hasHint := t.EnglishHint != nil && *t.EnglishHint != ""
	hasText := t.Text != nil && *t.Text != ""

	if t.IsPractice {
		if !hasThought || !hasHint {
			return fmt.Errorf("turn %d: practice moment requires korean_thought and english_hint", t.ID)
		}
		if hasText {
			return fmt.Errorf("turn %d: practice moment must not carry spoken text", t.ID)
		}
		return nil
	}
	if !hasText {
		return fmt.Errorf("turn %d: scripted line requires text", t.ID)
	}
	if hasThought || hasHint {
		return fmt.Errorf("turn %d: scripted line must not carry thought fields", t.ID)
	}
	return nil
}

// Conversation is a library dialogue with its sequencing metadata.
// DayNumber orders progression; it is not guaranteed unique or contiguous.
type Conversation struct {
	ID              string         `json:"id" db:"id"`
	Scenario        string         `json:"scenario" db:"scenario"`
	JournalContext  string         `json:"journal_context" db:"journal_context"`
	DifficultyLevel int            `json:"difficulty_level" db:"difficulty_level"`
	Dialogue        []DialogueTurn `json:"dialogue"`
	DayNumber       int            `json:"day_number" db:"day_number"`
	TimeOfDay       *string        `json:"time_of_day" db:"time_of_day"`
	Location        *string        `json:"location" db:"location"`
	Description     *string        `json:"description" db:"description"`
	CharacterID     *string        `json:"character_id,omitempty" db:"character_id"`
	IsLibrary       bool           `json:"is_library" db:"is_library"`
	Imported        bool           `json:"imported" db:"imported"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}

// DecodeDialogue parses the serialized dialogue column.
func DecodeDialogue(raw []byte) ([]DialogueTurn, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var turns []DialogueTurn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("failed to decode dialogue: %w", err)
	}
	return turns, nil
}

// EncodeDialogue serializes dialogue turns for storage.
func EncodeDialogue(turns []DialogueTurn) ([]byte, error) {
	if turns == nil {
		turns = []DialogueTurn{}
	}
	raw, err := json.Marshal(turns)
	if err != nil {
		return nil, fmt.Errorf("failed to encode dialogue: %w", err)
	}
	return raw, nil
}

// Completion is one (user, conversation) completion event. The ledger keeps
// at most one row per pair; a repeat completion refreshes CompletedAt.
type Completion struct {
	UserID               string    `json:"user_id" db:"user_id"`
	ConversationID       string    `json:"conversation_id" db:"conversation_id"`
	SentencesPracticed   int       `json:"sentences_practiced" db:"sentences_practiced"`
	CompletionPercentage float64   `json:"completion_percentage" db:"completion_percentage"`
	CompletedAt          time.Time `json:"completed_at" db:"completed_at"`
}

// UserStats is the per-user aggregate practice record.
type UserStats struct {
	UserID           string     `json:"user_id" db:"user_id"`
	TotalSentences   int        `json:"total_sentences" db:"total_sentences"`
	TotalExpressions int        `json:"total_expressions" db:"total_expressions"`
	CurrentStreak    int        `json:"current_streak" db:"current_streak"`
	LongestStreak    int        `json:"longest_streak" db:"longest_streak"`
	LastPracticeDate *time.Time `json:"last_practice_date,omitempty" db:"last_practice_date"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// DailyPractice is one row of the daily practice log used for streaks and
// history views.
type DailyPractice struct {
	ID                 string    `json:"id" db:"id"`
	UserID             string    `json:"user_id" db:"user_id"`
	PracticeDate       time.Time `json:"practice_date" db:"practice_date"`
	SentencesCount     int       `json:"sentences_count" db:"sentences_count"`
	ConversationsCount int       `json:"conversations_count" db:"conversations_count"`
}

// SavedExpression is a learner-saved thought/expression pair.
type SavedExpression struct {
	ID                string    `json:"id" db:"id"`
	UserID            string    `json:"user_id" db:"user_id"`
	ConversationID    *string   `json:"conversation_id,omitempty" db:"conversation_id"`
	EnglishExpression string    `json:"english_expression" db:"english_expression"`
	KoreanThought     string    `json:"korean_thought" db:"korean_thought"`
	Context           *string   `json:"context,omitempty" db:"context"`
	Category          *string   `json:"category,omitempty" db:"category"`
	MasteryLevel      int       `json:"mastery_level" db:"mastery_level"`
	PracticeCount     int       `json:"practice_count" db:"practice_count"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// CharacterProgress tracks how far a user is through a character's story.
type CharacterProgress struct {
	UserID            string     `json:"user_id" db:"user_id"`
	CharacterID       string     `json:"character_id" db:"character_id"`
	CurrentChapter    int        `json:"current_chapter" db:"current_chapter"`
	ChaptersCompleted int        `json:"chapters_completed" db:"chapters_completed"`
	StartedAt         time.Time  `json:"started_at" db:"started_at"`
	LastPlayedAt      *time.Time `json:"last_played_at,omitempty" db:"last_played_at"`
}
