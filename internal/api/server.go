package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/expresslang/express/internal/ai"
	"github.com/expresslang/express/internal/api/auth"
	"github.com/expresslang/express/internal/character"
	"github.com/expresslang/express/internal/completion"
	"github.com/expresslang/express/internal/config"
	"github.com/expresslang/express/internal/conversation"
	"github.com/expresslang/express/internal/expression"
	"github.com/expresslang/express/internal/importer"
	"github.com/expresslang/express/internal/jobqueue"
	"github.com/expresslang/express/internal/progression"
	"github.com/expresslang/express/internal/speech"
	"github.com/expresslang/express/internal/storage"
	"github.com/expresslang/express/internal/user"
)

// Server represents the API server
type Server struct {
	echo *echo.Echo
	cfg  *config.Config

	tokens        *auth.TokenService
	users         *user.Service
	conversations *conversation.Service
	completions   *completion.Service
	characters    *character.Service
	expressions   *expression.Service
	resolver      *progression.Resolver
	importer      *importer.Service
	generator     *ai.Generator
	speech        *speech.Client
	uploader      *storage.Uploader
	queue         *jobqueue.JobQueue
	web           *http.Client
}

// NewServer wires the API server and all its services. queue may be nil
// when background audio synthesis is disabled.
func NewServer(cfg *config.Config, db *sql.DB, queue *jobqueue.JobQueue) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
		rate.Limit(float64(cfg.RateLimit.Requests) / float64(cfg.RateLimit.PeriodSeconds)),
	)))

	conversations := conversation.NewService(db)
	completions := completion.NewService(db)
	characters := character.NewService(db)
	users := user.NewService(db)
	expressions := expression.NewService(db)

	// One timeout bound for every outbound HTTP call this server makes.
	externalTimeout := time.Duration(cfg.Timeouts.ExternalSeconds) * time.Second
	web := &http.Client{Timeout: externalTimeout}

	generator, err := ai.NewGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.Model, web)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation generator: %w", err)
	}

	speechClient, err := speech.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.TTSModel, cfg.OpenAI.TranscribeModel, externalTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	uploader := storage.NewUploader(cfg.Storage.URL, cfg.Storage.ServiceKey, cfg.Storage.AudioBucket, externalTimeout)

	var enqueuer importer.AudioEnqueuer
	if queue != nil {
		enqueuer = queue
	}

	server := &Server{
		echo:          e,
		cfg:           cfg,
		tokens:        auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.ProviderURL, time.Duration(cfg.Timeouts.AuthSeconds)*time.Second),
		users:         users,
		conversations: conversations,
		completions:   completions,
		characters:    characters,
		expressions:   expressions,
		resolver:      progression.NewResolver(conversations, completions, users),
		importer:      importer.NewService(conversations, characters, enqueuer),
		generator:     generator,
		speech:        speechClient,
		uploader:      uploader,
		queue:         queue,
		web:           web,
	}

	server.setupRoutes()
	return server, nil
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	api := s.echo.Group("/api")
	required := auth.RequireAuth(s.tokens)
	optional := auth.OptionalAuth(s.tokens)

	conversations := api.Group("/conversations")
	conversations.POST("/generate", s.generateConversation)
	conversations.POST("/suggest", s.suggestExpressions)
	conversations.POST("/feedback", s.feedbackOnAttempt)
	conversations.GET("/random", s.randomConversation, optional)
	conversations.GET("/next", s.nextConversation, optional)
	conversations.GET("/library", s.libraryConversations)
	conversations.GET("/topics", s.conversationTopics)
	conversations.GET("/:id", s.conversationByID)

	completions := api.Group("/completions", required)
	completions.POST("/record", s.recordCompletion)
	completions.GET("/my-completions", s.myCompletions)
	completions.GET("/available-conversations", s.availableConversations)
	completions.GET("/conversations-with-status", s.conversationsWithStatus)
	completions.DELETE("/reset", s.resetCompletions)

	users := api.Group("/users", required)
	users.POST("/profile", s.upsertProfile)
	users.GET("/profile", s.getProfile)
	users.POST("/character", s.selectUserCharacter)
	users.GET("/character", s.currentUserCharacter)
	users.GET("/stats", s.userStats)

	practice := api.Group("/practice", required)
	practice.POST("/complete", s.completePractice)
	practice.POST("/daily-check", s.dailyCheck)
	practice.GET("/streak", s.practiceStreak)
	practice.GET("/history", s.practiceHistory)

	progress := api.Group("/progress", required)
	progress.GET("/streak/status", s.streakStatus)
	progress.GET("/leaderboard/top", s.leaderboard)
	progress.GET("/:user_id", s.userProgress)
	progress.PUT("/:user_id", s.adjustProgress)

	characters := api.Group("/characters")
	characters.GET("/list", s.listCharacters)
	characters.POST("/select", s.selectCharacter, required)
	characters.GET("/current", s.currentCharacter, required)
	characters.GET("/progress", s.characterProgress, required)
	characters.GET("/next-conversation", s.characterNextConversation, optional)
	characters.POST("/update-progress", s.advanceCharacterProgress, required)

	expressions := api.Group("/expressions", required)
	expressions.POST("/save", s.saveExpression)
	expressions.GET("", s.listExpressions)
	expressions.GET("/search", s.searchExpressions)
	expressions.DELETE("/:id", s.deleteExpression)

	journal := api.Group("/journal", required)
	journal.GET("/entry", s.getJournalEntry)
	journal.GET("/conversation-context", s.journalConversationContext)

	audio := api.Group("/audio")
	audio.POST("/transcribe", s.transcribeAudio)
	audio.POST("/tts", s.synthesizeSpeech, optional)

	voices := api.Group("/voices")
	voices.GET("/samples", s.voiceSamples)
	voices.POST("/generate-samples", s.generateVoiceSamples)

	importGroup := api.Group("/import")
	importGroup.POST("/parse", s.parseImport)
	importGroup.POST("/save-batch", s.saveImportBatch)
}

// Start begins the API server and blocks until interrupted.
func (s *Server) Start() error {
	go func() {
		addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.queue != nil {
		if err := s.queue.Stop(ctx); err != nil {
			s.echo.Logger.Errorf("failed to stop job queue: %v", err)
		}
	}
	return s.echo.Shutdown(ctx)
}
