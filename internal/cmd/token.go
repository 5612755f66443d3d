package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"blog-gateway/middleware/access"
)

var (
	tokenRole    string
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an HS256 bearer token for a role (development helper)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Access.JWTSecret == "" {
			return fmt.Errorf("access.jwt_secret is not set")
		}
		if tokenTTL <= 0 {
			return fmt.Errorf("--ttl must be > 0")
		}

		tok, err := access.SignToken(cfg.Access.JWTSecret, tokenSubject, access.Role(tokenRole), tokenTTL, cfg.Access.Issuer, cfg.Access.Audience)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
		return err
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(access.RoleViewer), "role claim")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "cli", "subject (sub) claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
