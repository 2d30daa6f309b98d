package main

import (
	"fmt"

	"github.com/openmined/notesync/internal/tasksdk"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Request an access token and save it to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadValidConfig(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			token, err := tasksdk.RequestToken(ctx, cfg.ServerURL, cfg.Account)
			if err != nil {
				return fmt.Errorf("request token: %w", err)
			}
			cfg.AuthToken = token

			client, err := newRemoteClient(cfg)
			if err != nil {
				return err
			}
			if err := client.Login(ctx); err != nil {
				return fmt.Errorf("verify login: %w", err)
			}

			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), green.Render("logged in as"), cfg.Account)
			fmt.Fprintln(cmd.OutOrStdout(), gray.Render("config saved to "+cfg.Path))
			return nil
		},
	}
}
