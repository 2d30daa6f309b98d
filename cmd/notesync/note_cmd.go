package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/openmined/notesync/internal/notes"
	"github.com/openmined/notesync/internal/notestore"
	"github.com/spf13/cobra"
)

func newNoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage local notes",
	}
	cmd.AddCommand(newNoteAddCmd(), newNoteListCmd(), newNoteEditCmd(), newNoteRemoveCmd())
	return cmd
}

func newNoteAddCmd() *cobra.Command {
	var folder int64
	cmd := &cobra.Command{
		Use:   "add TEXT...",
		Short: "Add a note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *notestore.NoteStore) error {
				id, err := store.CreateNote(cmd.Context(), folder, strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), green.Render("added note"), id)
				return nil
			})
		},
	}
	cmd.Flags().Int64VarP(&folder, "folder", "f", notes.RootFolderID, "Folder id")
	return cmd
}

func newNoteListCmd() *cobra.Command {
	var folder int64
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *notestore.NoteStore) error {
				var rows []*notes.Row
				var err error
				if cmd.Flags().Changed("folder") {
					rows, err = store.Children(cmd.Context(), folder)
				} else {
					rows, err = store.QueryRows(cmd.Context(), notestore.FilterNotes)
				}
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tFOLDER\tMODIFIED\tSTATE\tTEXT")
				for _, row := range rows {
					if !row.IsNote() {
						continue
					}
					fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
						row.ID, row.ParentID, humanize.Time(time.UnixMilli(row.ModifiedDate)), rowState(row), ellipsis(row.Snippet, 40))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().Int64VarP(&folder, "folder", "f", notes.RootFolderID, "Only list notes in this folder")
	return cmd
}

func newNoteEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit ID TEXT...",
		Short: "Replace the text of a note",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(store *notestore.NoteStore) error {
				return store.UpdateNote(cmd.Context(), id, strings.Join(args[1:], " "))
			})
		},
	}
}

func newNoteRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID...",
		Short: "Delete notes or folders",
		Long:  "Delete notes or folders. In sync mode they go to the trash and the next sync removes them remotely.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			cfg, err := loadValidConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteNotes(cmd.Context(), ids, cfg.SyncMode); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), green.Render("deleted"), humanize.Comma(int64(len(ids))), "item(s)")
			return nil
		},
	}
}

func withStore(cmd *cobra.Command, fn func(store *notestore.NoteStore) error) error {
	cfg, err := loadValidConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func rowState(row *notes.Row) string {
	switch {
	case !row.Synced():
		return "new"
	case row.LocalModified:
		return "modified"
	default:
		return "synced"
	}
}

func ellipsis(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
