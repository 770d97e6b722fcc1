package commands

import (
	"fmt"
	"time"

	"jobcan-cli/internal/components/chrono"
	"jobcan-cli/internal/components/telemetry"
	"jobcan-cli/internal/journal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "How many entries to show.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>]",
	Short: "Show stamps recorded in the local journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		clock, err := chrono.NewStandardImpl(config.Timezone)
		if err != nil {
			return fmt.Errorf("load timezone: %w", err)
		}
		if !config.Journal.Enabled() {
			return fmt.Errorf("no journal configured, set journal.file or journal.url in %s", configName)
		}
		j, err := journal.Open(cmd.Context(), config.Journal, telemetry.SlogAPI{})
		if err != nil {
			return err
		}
		defer j.Close()

		entries, err := j.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Time", "Action", "Group", "Night shift", "Status", "Note"})
		for _, e := range entries {
			nightShift := ""
			if e.NightShift {
				nightShift = "yes"
			}
			t.AppendRow(table.Row{
				e.StampedAt.In(clock.Location()).Format(time.DateTime),
				e.Action,
				e.GroupID,
				nightShift,
				e.Status,
				e.Note,
			})
		}
		t.Render()
		return nil
	},
}
