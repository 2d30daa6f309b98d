package main

import (
	"fmt"
	"strings"

	"github.com/openmined/notesync/internal/notes"
	"github.com/openmined/notesync/internal/taskwire"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type listDump struct {
	taskwire.Entity `yaml:",inline"`
	Tasks           []*taskwire.Entity `yaml:"tasks,omitempty"`
}

func newInspectCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Dump the remote lists and tasks as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadValidConfig(cmd)
			if err != nil {
				return err
			}
			client, err := newRemoteClient(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := client.Login(ctx); err != nil {
				return err
			}
			lists, err := client.FetchAllLists(ctx)
			if err != nil {
				return err
			}

			dump := make([]*listDump, 0, len(lists))
			for _, list := range lists {
				if !all && !strings.HasPrefix(list.Name, notes.FolderPrefix) {
					continue
				}
				tasks, err := client.FetchListItems(ctx, list.ID)
				if err != nil {
					return fmt.Errorf("list %s: %w", list.ID, err)
				}
				dump = append(dump, &listDump{Entity: *list, Tasks: tasks})
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(dump); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include lists not owned by notesync")
	return cmd
}
