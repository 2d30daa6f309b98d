package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the account, the last sync and pending local changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadValidConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			last, err := store.LastSync(ctx)
			if err != nil {
				return err
			}
			pending, err := store.PendingChanges(ctx)
			if err != nil {
				return err
			}

			lastSync := gray.Render("never")
			if !last.IsZero() {
				lastSync = humanize.Time(last)
			}
			login := green.Render("yes")
			if cfg.AuthToken == "" {
				login = red.Render("no")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %s\n", "Account", cfg.Account)
			fmt.Fprintf(out, "%-10s %s\n", "Server", cfg.ServerURL)
			fmt.Fprintf(out, "%-10s %s\n", "Logged in", login)
			fmt.Fprintf(out, "%-10s %s\n", "Data dir", cfg.DataDir)
			fmt.Fprintf(out, "%-10s %s\n", "Last sync", lastSync)
			fmt.Fprintf(out, "%-10s %s\n", "Pending", humanize.Comma(int64(pending)))
			return nil
		},
	}
}
