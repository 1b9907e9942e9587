/*
Package jobqueue provides a River-based job queue for generating dialogue
audio in the background.

Importing or saving a conversation enqueues one job per scripted turn; the
worker synthesizes the line, uploads the MP3 and patches the turn's
audio_url in the stored dialogue. Practice moments never get jobs.

For retry policies and tuning parameters, see queue_config.go.
*/
package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/rs/zerolog/log"

	"github.com/expresslang/express/internal/speech"
	"github.com/expresslang/express/internal/storage"
	"github.com/expresslang/express/pkg/models"
)

// AudioJobArgs identifies one dialogue line to synthesize.
type AudioJobArgs struct {
	ConversationID string `json:"conversation_id"`
	TurnID         int    `json:"turn_id"`
	Text           string `json:"text"`
	Voice          string `json:"voice"`
}

// Kind returns the job kind for River
func (AudioJobArgs) Kind() string {
	return "turn_audio"
}

// AudioWorker renders one turn's audio and stores the result.
type AudioWorker struct {
	river.WorkerDefaults[AudioJobArgs]
	pool     *pgxpool.Pool
	speech   *speech.Client
	uploader *storage.Uploader
	config   *QueueConfig
}

// Timeout bounds a single synthesis job.
func (w *AudioWorker) Timeout(*river.Job[AudioJobArgs]) time.Duration {
	return w.config.JobTimeout
}

// Work synthesizes the line, uploads it, and patches the dialogue row.
func (w *AudioWorker) Work(ctx context.Context, job *river.Job[AudioJobArgs]) error {
	args := job.Args

	audio, err := w.speech.Synthesize(ctx, args.Text, args.Voice)
	if err != nil {
		return fmt.Errorf("failed to synthesize turn %d of %s: %w", args.TurnID, args.ConversationID, err)
	}

	path := fmt.Sprintf("conversations/%s_%d_%d.mp3", args.ConversationID, args.TurnID, time.Now().Unix())
	audioURL, err := w.uploader.Upload(ctx, path, audio, "audio/mpeg")
	if err != nil {
		return fmt.Errorf("failed to upload audio for turn %d of %s: %w", args.TurnID, args.ConversationID, err)
	}

	if err := w.patchTurn(ctx, args.ConversationID, args.TurnID, audioURL, args.Voice); err != nil {
		return err
	}

	log.Debug().
		Str("conversation_id", args.ConversationID).
		Int("turn_id", args.TurnID).
		Str("voice", args.Voice).
		Msg("turn audio generated")
	return nil
}

// patchTurn rewrites the dialogue JSONB with the turn's audio url filled in.
// The row is locked for the read-modify-write so concurrent jobs on the same
// conversation cannot drop each other's updates.
func (w *AudioWorker) patchTurn(ctx context.Context, conversationID string, turnID int, audioURL, voice string) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin dialogue update: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx,
		`SELECT dialogue FROM conversations WHERE id = $1 FOR UPDATE`, conversationID,
	).Scan(&raw)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("conversation %s not found", conversationID)
	}
	if err != nil {
		return fmt.Errorf("failed to load dialogue: %w", err)
	}

	turns, err := models.DecodeDialogue(raw)
	if err != nil {
		return err
	}

	found := false
	for i := range turns {
		if turns[i].ID == turnID {
			turns[i].AudioURL = &audioURL
			turns[i].Voice = voice
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("turn %d not found in conversation %s", turnID, conversationID)
	}

	updated, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("failed to encode dialogue: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE conversations SET dialogue = $2 WHERE id = $1`, conversationID, updated); err != nil {
		return fmt.Errorf("failed to store dialogue: %w", err)
	}

	return tx.Commit(ctx)
}

// JobQueue manages the River job queue
type JobQueue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	config *QueueConfig
}

// NewJobQueue creates a new job queue instance
func NewJobQueue(databaseURL string, speechClient *speech.Client, uploader *storage.Uploader) (*JobQueue, error) {
	config := GetQueueConfig()

	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &AudioWorker{
		pool:     pool,
		speech:   speechClient,
		uploader: uploader,
		config:   config,
	})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:  config.RiverQueueConfig(),
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &JobQueue{
		client: client,
		pool:   pool,
		config: config,
	}, nil
}

// Start starts the job queue workers
func (jq *JobQueue) Start(ctx context.Context) error {
	return jq.client.Start(ctx)
}

// Stop stops the job queue workers
func (jq *JobQueue) Stop(ctx context.Context) error {
	defer jq.pool.Close()
	return jq.client.Stop(ctx)
}

// EnqueueTurnAudio queues a synthesis job for one scripted line.
func (jq *JobQueue) EnqueueTurnAudio(ctx context.Context, conversationID string, turnID int, text, voice string) error {
	args := AudioJobArgs{
		ConversationID: conversationID,
		TurnID:         turnID,
		Text:           text,
		Voice:          voice,
	}

	opts := jq.config.InsertOpts()
	_, err := jq.client.Insert(ctx, args, &opts)
	if err != nil {
		return fmt.Errorf("failed to queue turn audio job: %w", err)
	}

	return nil
}

// EnqueueConversationAudio queues synthesis for every scripted turn in the
// dialogue, using voices to pick per-speaker voices. Speakers missing from
// the map (or mapped to "random") get a random voice by gender lookup.
func (jq *JobQueue) EnqueueConversationAudio(ctx context.Context, conversationID string, turns []models.DialogueTurn, voices map[string]string) (int, error) {
	queued := 0
	for _, turn := range turns {
		if turn.IsPractice || turn.Text == nil || *turn.Text == "" {
			continue
		}
		voice := voices[turn.Speaker]
		if voice == "" || voice == "random" {
			voice = speech.VoiceForGender("")
		}
		if err := jq.EnqueueTurnAudio(ctx, conversationID, turn.ID, *turn.Text, voice); err != nil {
			return queued, err
		}
		queued++
	}
	return queued, nil
}
