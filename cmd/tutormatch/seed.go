package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tutormatch/tutormatch/internal/database"
	"github.com/tutormatch/tutormatch/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var (
		force  bool
		vacuum bool
	)

	cmd := &cobra.Command{
		Use:   "seed <file.json>",
		Short: "Create tables and load rows from a JSON seed document",
		Long: `Seed reads a JSON document of the form

  {"Table": {"columns": ["a", "b"], "rows": [["x", 1], ...]}, ...}

creates each table with an integer id column and inserts the rows with
sequential ids starting at 1. Run it offline, never against a database the
server is using.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolveDBPath()
			if _, err := loadSettings(); err != nil {
				return err
			}

			doc, err := seed.DecodeFile(args[0])
			if err != nil {
				return err
			}

			opts := database.DefaultOptions()
			opts.Driver = driver
			opts.ReadOnly = false
			db, err := database.Open(dbPath, opts)
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := seed.Apply(cmd.Context(), db, doc, seed.Options{Force: force})
			if err != nil {
				return fmt.Errorf("failed to seed %s: %w", dbPath, err)
			}

			if err := db.Optimize(cmd.Context()); err != nil {
				log.Warn().Err(err).Msg("Failed to optimize database")
			}
			if vacuum {
				if err := db.Vacuum(cmd.Context()); err != nil {
					return err
				}
			}

			log.Info().
				Str("database", db.Path()).
				Str("driver", db.Driver()).
				Int("tables", result.Tables).
				Int("rows", result.Rows).
				Msg("Database seeded")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Drop existing tables before creating them")
	cmd.Flags().BoolVar(&vacuum, "vacuum", false, "Rebuild the database file after seeding")
	return cmd
}
