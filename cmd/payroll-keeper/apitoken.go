package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/decipherlabs/payroll-keeper/service"
)

var apiTokenTTL time.Duration

var apiTokenCmd = &cobra.Command{
	Use:   "api-token",
	Short: "Print a bearer token for the serve API, signed with jwt_secret",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		if a.cfg.JWTSecret == "" {
			return errors.New("jwt_secret is not set")
		}
		auth, err := service.NewAuthService(a.cfg.JWTSecret, apiTokenTTL)
		if err != nil {
			return err
		}
		token, err := auth.GenerateToken()
		if err != nil {
			return err
		}
		if outputJSON {
			return a.print(map[string]string{
				"token":      token,
				"expires_at": time.Now().Add(apiTokenTTL).UTC().Format(time.RFC3339),
			})
		}
		fmt.Fprintln(a.out, token)
		return nil
	},
}

func init() {
	apiTokenCmd.Flags().DurationVar(&apiTokenTTL, "ttl", time.Hour, "token lifetime")
}
