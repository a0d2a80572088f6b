package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	pg "pet-adoption-api/internal/adapters/storage/postgres"
)

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes en database.dsn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.cfg.Database.DSN == "" {
				return errors.New("database.dsn is not set (ADOPT_DATABASE_DSN)")
			}
			db, err := pg.Open(cmd.Context(), opts.cfg.Database.DSN, pg.PoolConfig{
				MaxOpenConns: opts.cfg.Database.MaxOpenConns,
				MaxIdleConns: opts.cfg.Database.MaxIdleConns,
			})
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			applied, err := pg.Migrate(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "database is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(out, "applied %s\n", name)
			}
			return nil
		},
	}
}
