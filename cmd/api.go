package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/expresslang/express/internal/api"
	"github.com/expresslang/express/internal/config"
	"github.com/expresslang/express/internal/database"
	"github.com/expresslang/express/internal/jobqueue"
	"github.com/expresslang/express/internal/speech"
	"github.com/expresslang/express/internal/storage"
)

// APICommand returns the CLI command for starting the API server
func APICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the Express API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server",
			},
			&cli.BoolFlag{
				Name:  "no-workers",
				Usage: "Disable the background audio synthesis workers",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if port := c.Int("port"); port != 0 {
				cfg.Server.Port = port
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			db, err := database.NewDB(cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			var queue *jobqueue.JobQueue
			if !c.Bool("no-workers") {
				speechClient, err := speech.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.TTSModel, cfg.OpenAI.TranscribeModel, 0)
				if err != nil {
					log.Warn().Err(err).Msg("audio workers disabled, no speech client")
				} else {
					uploader := storage.NewUploader(cfg.Storage.URL, cfg.Storage.ServiceKey, cfg.Storage.AudioBucket, 0)
					queue, err = jobqueue.NewJobQueue(cfg.Database.URL, speechClient, uploader)
					if err != nil {
						return fmt.Errorf("failed to create job queue: %w", err)
					}
					if err := queue.Start(context.Background()); err != nil {
						return fmt.Errorf("failed to start job queue: %w", err)
					}
				}
			}

			server, err := api.NewServer(cfg, db, queue)
			if err != nil {
				return err
			}

			fmt.Printf("Starting Express API server on %s:%d...\n", cfg.Server.Host, cfg.Server.Port)
			return server.Start()
		},
	}
}
