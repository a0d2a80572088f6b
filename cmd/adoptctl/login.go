package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(opts *globalOptions) *cobra.Command {
	var login, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtiene un token (exportarlo como ADOPT_CLIENT_TOKEN)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if login == "" || password == "" {
				return errors.New("--user and --password are required")
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			res, err := c.Login(cmd.Context(), login, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&login, "user", "u", "", "email o username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "contraseña")
	return cmd
}
