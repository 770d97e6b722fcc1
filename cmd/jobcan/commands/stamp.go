package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"jobcan-cli/internal/components/telemetry"
	"jobcan-cli/internal/jobcan"
	"jobcan-cli/internal/journal"

	"github.com/spf13/cobra"
)

// kebab turns an action name like "StartBreak" into "start-break".
func kebab(name string) string {
	var out strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				out.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		out.WriteRune(r)
	}
	return out.String()
}

type stampOptions struct {
	groupID    string
	groupName  string
	nightShift bool
	note       string
}

func (o *stampOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.groupID, "group-id", "", "Group ID. Defaults to $JOBCAN_GROUP_ID, then the account's default group.")
	cmd.Flags().StringVar(&o.groupName, "group-name", "", "Pick the group by name instead of by id.")
	cmd.Flags().BoolVar(&o.nightShift, "night-shift", false, "Night-Shift mode.")
	cmd.Flags().StringVar(&o.note, "note", "", "Notes to be added to the stamp.")
	cmd.MarkFlagsMutuallyExclusive("group-id", "group-name")
}

func init() {
	for _, action := range jobcan.Actions {
		rootCmd.AddCommand(newActionCmd(action))
	}
	rootCmd.AddCommand(newStampCmd())
}

// newActionCmd creates e.g. `clock-in`, also reachable as `work-start`.
func newActionCmd(action jobcan.Action) *cobra.Command {
	opts := &stampOptions{}
	name := kebab(action.String())
	cmd := &cobra.Command{
		Use:     name,
		Aliases: []string{kebab(action.Alias())},
		Short:   fmt.Sprintf("Login to Jobcan and %s", strings.ReplaceAll(name, "-", " ")),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStamp(cmd, action, opts)
		},
	}
	opts.register(cmd)
	return cmd
}

func newStampCmd() *cobra.Command {
	opts := &stampOptions{}
	var validArgs []string
	for _, action := range jobcan.Actions {
		validArgs = append(validArgs, kebab(action.String()), kebab(action.Alias()))
	}
	cmd := &cobra.Command{
		Use:       "stamp <action>",
		Short:     "Login to Jobcan and submit the named stamp",
		ValidArgs: validArgs,
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := jobcan.ParseAction(args[0])
			if err != nil {
				return err
			}
			return runStamp(cmd, action, opts)
		},
	}
	opts.register(cmd)
	return cmd
}

func runStamp(cmd *cobra.Command, action jobcan.Action, opts *stampOptions) error {
	ctx := cmd.Context()
	s, err := currentSettings()
	if err != nil {
		return err
	}
	client, err := newSession(ctx, s)
	if err != nil {
		return err
	}

	group, err := resolveGroupID(ctx, client, opts.groupID, opts.groupName, s.GroupID)
	if err != nil {
		return err
	}

	err = client.Stamp(ctx, action, group, opts.nightShift, opts.note)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (group %s)\n", action, action.ExpectedStatus(), group)

	recordStamp(ctx, s.Journal, journal.Entry{
		StampedAt:  s.Clock.Now(),
		Action:     action.String(),
		GroupID:    group,
		NightShift: opts.nightShift,
		Note:       opts.note,
		Status:     action.ExpectedStatusToken(),
	})
	return nil
}

type groupSource interface {
	ListGroups(ctx context.Context) ([]jobcan.Group, error)
	DefaultGroupID(ctx context.Context) (string, error)
}

// resolveGroupID picks the group to stamp against: --group-id, then
// --group-name, then the environment/config value, then the account's
// default group as reported by the site.
func resolveGroupID(ctx context.Context, src groupSource, groupID, groupName, configured string) (string, error) {
	if groupID != "" {
		return groupID, nil
	}
	if groupName != "" {
		groups, err := src.ListGroups(ctx)
		if err != nil {
			return "", err
		}
		group, err := jobcan.MatchGroup(groups, groupName)
		if err != nil {
			return "", err
		}
		slog.Debug("matched group", "query", groupName, "id", group.ID, "name", group.Name)
		return group.ID, nil
	}
	if configured != "" {
		return configured, nil
	}
	return src.DefaultGroupID(ctx)
}

// recordStamp is best effort, the stamp already happened when it runs.
func recordStamp(ctx context.Context, config journal.Config, entry journal.Entry) {
	if !config.Enabled() {
		return
	}
	j, err := journal.Open(ctx, config, telemetry.SlogAPI{})
	if err != nil {
		slog.Warn("failed to open stamp journal", "err", err)
		return
	}
	defer j.Close()

	_, err = j.Record(ctx, entry)
	if err != nil {
		slog.Warn("failed to record stamp", "err", err)
	}
}
