package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/terramo-esg/terramo/internal/groups"
	"github.com/terramo-esg/terramo/internal/models"
	"github.com/terramo-esg/terramo/internal/submission"
	"github.com/terramo-esg/terramo/internal/utils"
)

func newGroupsCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Manage stakeholder groups",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List groups with their table visibility",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a := current()
				res, err := a.client.StakeholderGroups(cmd.Context())
				if err != nil {
					return err
				}
				printGroups(a, res.Data)
				return nil
			},
		},
		newVisibilityCmd(current, "show", true),
		newVisibilityCmd(current, "hide", false),
		&cobra.Command{
			Use:   "members <group-id>",
			Short: "List the stakeholders of a group",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := current()
				res, err := a.client.Stakeholders(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				for _, st := range res.Data {
					fmt.Fprintf(a.out, "%-14s %-30s %-20s %s\n", st.ID, st.Email, st.FirstName+" "+st.LastName, st.Status)
				}
				return nil
			},
		},
		newAddStakeholderCmd(current),
		newStakeholderStatusCmd(current, "approve", models.StakeholderApproved),
		newStakeholderStatusCmd(current, "reject", models.StakeholderRejected),
		newCompareCmd(current),
	)
	return cmd
}

func newAddStakeholderCmd(current func() *app) *cobra.Command {
	var in models.NewStakeholder
	cmd := &cobra.Command{
		Use:   "add <group-id> <email>",
		Short: "Add a stakeholder to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			in.Email = args[1]
			st, err := a.client.CreateStakeholder(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "added %s (%s) as %s\n", st.Email, st.ID, st.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	return cmd
}

func newStakeholderStatusCmd(current func() *app, verb string, status models.StakeholderStatus) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <group-id> <stakeholder-id>",
		Short: verb + " a stakeholder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			st, err := a.client.UpdateStakeholderStatus(cmd.Context(), args[0], args[1], status)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s is now %s\n", st.Email, st.Status)
			return nil
		},
	}
}

func printGroups(a *app, gs []models.StakeholderGroup) {
	fmt.Fprintf(a.out, "%-12s %-20s %-8s %-6s %s\n", "id", "name", "members", "shown", "invitation")
	for _, g := range gs {
		shown := strconv.FormatBool(g.ShowInTable)
		if g.Pinned() {
			shown = "always"
		}
		name := g.Label()
		if !g.HasResponses {
			name = styleMuted.Render(name)
		}
		fmt.Fprintf(a.out, "%-12s %-20s %-8d %-6s %s\n", g.ID, name, g.StakeholderCount, shown, g.InvitationLink)
	}
}

func newVisibilityCmd(current func() *app, verb string, show bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <group-id>...",
		Short: fmt.Sprintf("%s groups in the dashboard table", verb),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			res, err := a.client.StakeholderGroups(cmd.Context())
			if err != nil {
				return err
			}
			vis := groups.NewVisibility()
			vis.Load(res.Data)
			for _, id := range args {
				switch err := vis.Set(id, show); {
				case errors.Is(err, groups.ErrPinned):
					fmt.Fprintln(a.out, styleWarning.Render(id+": "+utils.T(a.cfg.Locale, "groups.pinned")))
				case err != nil:
					return fmt.Errorf("%s: %w", id, err)
				}
			}
			saver := submission.NewVisibilitySaver(a.client, vis, a.cfg.Locale, a.logger)
			n := saver.Save(cmd.Context())
			fmt.Fprintln(a.out, renderNotice(n))
			if n.Level == submission.LevelError {
				return n.Err
			}
			return nil
		},
	}
}

func newCompareCmd(current func() *app) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "compare [group-id]...",
		Short: "Compare average ratings of the pinned groups and the given ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			ctx := cmd.Context()
			gres, err := a.client.StakeholderGroups(ctx)
			if err != nil {
				return err
			}
			byID := make(map[string]models.StakeholderGroup, len(gres.Data))
			for _, g := range gres.Data {
				byID[g.ID] = g
			}
			sel := groups.NewSelection()
			for _, id := range args {
				g, ok := byID[id]
				if !ok {
					return fmt.Errorf("%s: %w", id, groups.ErrUnknownGroup)
				}
				if sel.Checked(g) {
					continue
				}
				if _, err := sel.Toggle(g); errors.Is(err, groups.ErrNoResponses) {
					fmt.Fprintln(a.out, styleWarning.Render(g.Label()+": "+utils.T(a.cfg.Locale, "groups.no_responses")))
				}
			}

			qres, err := a.client.Questions(ctx)
			if err != nil {
				return err
			}
			ares, err := a.client.StakeholderAnalysis(ctx, year)
			if err != nil {
				return err
			}
			series := groups.ComparisonSeries(ares.Data, qres.Data, sel.Selected(gres.Data))
			printSeries(a, series)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", currentYear(), "reporting year")
	return cmd
}

func printSeries(a *app, series []groups.Series) {
	for _, s := range series {
		fmt.Fprintln(a.out, styleHeader.Render(s.Label))
		for _, p := range s.Points {
			if p.Missing {
				fmt.Fprintf(a.out, "  %-6s %s\n", p.IndexCode, styleMuted.Render("no answers"))
				continue
			}
			fmt.Fprintf(a.out, "  %-6s prio %.2f  sq %.2f\n", p.IndexCode, p.Priority, p.StatusQuo)
		}
	}
}
