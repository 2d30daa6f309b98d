package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/openmined/notesync/internal/notes"
	"github.com/openmined/notesync/internal/notestore"
	"github.com/spf13/cobra"
)

func newFolderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Manage local folders",
	}
	cmd.AddCommand(newFolderAddCmd(), newFolderListCmd(), newFolderRenameCmd())
	return cmd
}

func newFolderAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME...",
		Short: "Add a folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *notestore.NoteStore) error {
				id, err := store.CreateFolder(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), green.Render("added folder"), id)
				return nil
			})
		},
	}
}

func newFolderRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID NAME...",
		Short: "Rename a folder",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(store *notestore.NoteStore) error {
				return store.RenameFolder(cmd.Context(), id, strings.Join(args[1:], " "))
			})
		},
	}
}

func newFolderListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *notestore.NoteStore) error {
				rows, err := store.QueryRows(cmd.Context(), notestore.FilterFolders)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tSTATE")
				fmt.Fprintf(tw, "%d\t%s\t%s\n", notes.RootFolderID, gray.Render("(root)"), "-")
				for _, row := range rows {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", row.ID, row.Snippet, rowState(row))
				}
				return tw.Flush()
			})
		},
	}
}
