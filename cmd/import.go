package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/expresslang/express/internal/character"
	"github.com/expresslang/express/internal/config"
	"github.com/expresslang/express/internal/conversation"
	"github.com/expresslang/express/internal/database"
	"github.com/expresslang/express/internal/importer"
)

// ImportCommand returns the CLI command for importing dialogue scripts
func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import a dialogue script file into the conversation library",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "character",
				Usage: "Attach imported conversations to this character",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Parse and print the result without saving",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one script file argument")
			}

			raw, err := os.ReadFile(c.Args().First())
			if err != nil {
				return fmt.Errorf("failed to read script file: %w", err)
			}

			parsed := importer.Parse(string(raw))
			if len(parsed) == 0 {
				return fmt.Errorf("no conversations found in %s", c.Args().First())
			}

			if c.Bool("dry-run") {
				for _, p := range parsed {
					fmt.Printf("Day %d: %s (%d turns)\n", p.DayNumber, p.Title, len(p.Dialogue))
				}
				fmt.Printf("Parsed %d conversations\n", len(parsed))
				return nil
			}

			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			db, err := database.NewDB(cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			// Audio synthesis is left to the running API server's workers.
			svc := importer.NewService(conversation.NewService(db), character.NewService(db), nil)
			result, err := svc.SaveBatch(c.Context, parsed, c.String("character"), nil)
			if err != nil {
				return fmt.Errorf("failed to save conversations: %w", err)
			}

			fmt.Printf("Imported %d conversations\n", result.SavedCount)
			return nil
		},
	}
}
