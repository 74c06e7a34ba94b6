package main

import (
	"github.com/spf13/cobra"
	"github.com/xavierca1/funnel-leads/internal/infra/database"
	"github.com/xavierca1/funnel-leads/internal/infra/mongodb"
	"github.com/xavierca1/funnel-leads/internal/log"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica as migrations do Postgres e cria os índices do MongoDB",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := database.Migrate(a.db); err != nil {
				return err
			}
			log.Info("✅ migrations do Postgres aplicadas")

			if err := mongodb.EnsureIndexes(cmd.Context(), a.mdb); err != nil {
				return err
			}
			log.Info("✅ índices do MongoDB criados")
			return nil
		},
	}
}
