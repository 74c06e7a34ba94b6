package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xavierca1/funnel-leads/internal/infra/http/middleware"
	"github.com/xavierca1/funnel-leads/internal/infra/mongodb"
	"github.com/xavierca1/funnel-leads/internal/infra/worker"
)

func purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove de vez os leads deletados há mais de 7 dias",
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

			sweeper := worker.NewPurgeSweeper(mongodb.NewLeadRepository(a.mdb), middleware.DomainMetrics{}, cfg.PurgeInterval)
			n := sweeper.Sweep(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "%d lead(s) removidos\n", n)
			return nil
		},
	}
}
