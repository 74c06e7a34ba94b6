package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/infra/database"
	"github.com/xavierca1/funnel-leads/internal/infra/http/middleware"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Gerencia business users",
	}
	cmd.AddCommand(userAddCmd())
	return cmd
}

// userAddCmd busca ou cria o usuário pelo e-mail e imprime um token válido.
// Serve para ambientes de desenvolvimento, sem passar pelo login do Google.
func userAddCmd() *cobra.Command {
	var name string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "add [email]",
		Short: "Cria um business user (se não existir) e imprime um JWT",
		Args:  cobra.ExactArgs(1),
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

			repo := database.NewBusinessUserRepository(a.db)
			user, err := repo.FindByEmail(cmd.Context(), args[0])
			if errors.Is(err, entity.ErrUserNotFound) {
				user, err = entity.NewBusinessUser(name, args[0], "")
				if err != nil {
					return err
				}
				err = repo.Create(cmd.Context(), user)
			}
			if err != nil {
				return err
			}

			token, err := middleware.SignToken(cfg.JWTSecret, user.ID, ttl)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user_id: %s\n", user.ID)
			fmt.Fprintf(out, "token:   %s\n", token)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Dev User", "nome do usuário")
	cmd.Flags().DurationVar(&ttl, "ttl", 7*24*time.Hour, "validade do token")
	return cmd
}
