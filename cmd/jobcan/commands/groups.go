package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var groupsPlain bool

func init() {
	listGroupsCmd.Flags().BoolVar(&groupsPlain, "plain", false, "Print one \"GroupID:<id>, GroupName:<name>\" line per group instead of a table.")
	rootCmd.AddCommand(listGroupsCmd)
}

var listGroupsCmd = &cobra.Command{
	Use:   "list-groups [--plain]",
	Short: "Login to Jobcan and list groups which you belong to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := currentSettings()
		if err != nil {
			return err
		}
		client, err := newSession(ctx, s)
		if err != nil {
			return err
		}

		groups, err := client.ListGroups(ctx)
		if err != nil {
			return err
		}

		if groupsPlain {
			for _, g := range groups {
				fmt.Fprintf(cmd.OutOrStdout(), "GroupID:%s, GroupName:%s\n", g.ID, g.Name)
			}
			return nil
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Group ID", "Group name"})
		for _, g := range groups {
			t.AppendRow(table.Row{g.ID, g.Name})
		}
		t.Render()
		return nil
	},
}
