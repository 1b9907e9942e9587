package importer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/expresslang/express/internal/character"
	"github.com/expresslang/express/internal/conversation"
	"github.com/expresslang/express/internal/jobqueue"
	"github.com/expresslang/express/pkg/models"
)

// AudioEnqueuer schedules background synthesis for a saved conversation's
// scripted turns.
type AudioEnqueuer interface {
	EnqueueConversationAudio(ctx context.Context, conversationID string, turns []models.DialogueTurn, voices map[string]string) (int, error)
}

var _ AudioEnqueuer = (*jobqueue.JobQueue)(nil)

// Service persists parsed conversations and schedules their audio.
type Service struct {
	conversations *conversation.Service
	characters    *character.Service
	audio         AudioEnqueuer
}

// NewService creates an importer service. audio may be nil when background
// synthesis is disabled.
func NewService(conversations *conversation.Service, characters *character.Service, audio AudioEnqueuer) *Service {
	return &Service{
		conversations: conversations,
		characters:    characters,
		audio:         audio,
	}
}

// SaveResult summarizes a batch save.
type SaveResult struct {
	SavedCount int      `json:"saved_count"`
	AudioCount int      `json:"audio_count"`
	IDs        []string `json:"ids"`
}

// SaveBatch stores parsed conversations as imported library content under
// the named character and queues audio for every scripted turn.
// speakerVoices maps lowercased speaker names to voice ids; missing or
// "random" entries get a random voice.
func (s *Service) SaveBatch(ctx context.Context, parsed []Parsed, characterName string, speakerVoices map[string]string) (*SaveResult, error) {
	var characterID *string
	if characterName != "" {
		ch, err := s.characters.ByName(ctx, characterName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve character %q: %w", characterName, err)
		}
		characterID = &ch.ID
	}

	result := &SaveResult{IDs: []string{}}
	for _, p := range parsed {
		conv := models.Conversation{
			Scenario:       p.Scenario,
			JournalContext: p.JournalContext,
			DayNumber:      p.DayNumber,
			TimeOfDay:      &p.TimeOfDay,
			Location:       &p.Location,
			Dialogue:       p.Dialogue,
			CharacterID:    characterID,
			IsLibrary:      true,
			Imported:       true,
		}

		created, err := s.conversations.Create(ctx, conv)
		if err != nil {
			return result, err
		}
		result.SavedCount++
		result.IDs = append(result.IDs, created.ID)

		if s.audio != nil {
			queued, err := s.audio.EnqueueConversationAudio(ctx, created.ID, created.Dialogue, speakerVoices)
			if err != nil {
				// The conversation is saved; audio can be regenerated, so
				// log instead of failing the batch.
				log.Error().Err(err).Str("conversation_id", created.ID).Msg("failed to enqueue audio jobs")
			}
			result.AudioCount += queued
		}
	}

	log.Info().Int("saved", result.SavedCount).Int("audio_jobs", result.AudioCount).Msg("imported conversation batch")
	return result, nil
}
