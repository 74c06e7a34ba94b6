package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xavierca1/funnel-leads/internal/config"
	"github.com/xavierca1/funnel-leads/internal/log"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "funnel-leads",
		Short:         "API de funis e captura de leads",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(purgeCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log.Configure(cfg.Env, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
