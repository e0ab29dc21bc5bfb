package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trivia-battle-service/internal/config"
	"trivia-battle-service/internal/domain"
	transport "trivia-battle-service/internal/transport/http"
)

// NewTokenCmd mints a player token signed with auth.jwt_secret, for local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		userID string
		name   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a player JWT for connecting to /ws",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret is not configured")
			}
			if name == "" {
				name = userID
			}
			token, err := transport.NewAuthenticator(cfg.Auth.JWTSecret).Issue(domain.Player{ID: userID, Name: name}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "player id (token subject)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
