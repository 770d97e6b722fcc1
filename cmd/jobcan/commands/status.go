package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statusAll bool

func init() {
	statusCmd.Flags().BoolVar(&statusAll, "all", false, "Also show the default group and the groups you belong to.")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [--all]",
	Short: "Login to Jobcan and get current working status",
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

		if !statusAll {
			status, err := client.WorkStatus(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), status)
			return nil
		}

		page, err := client.EmployeePage(ctx)
		if err != nil {
			return err
		}
		status, err := page.WorkingStatus()
		if err != nil {
			return err
		}
		defaultGroup, err := page.DefaultGroupID()
		if err != nil {
			return err
		}
		groups, err := page.Groups()
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), status)
		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Group ID", "Group name", "Default"})
		for _, g := range groups {
			marker := ""
			if g.ID == defaultGroup {
				marker = "*"
			}
			t.AppendRow(table.Row{g.ID, g.Name, marker})
		}
		t.Render()
		return nil
	},
}
