package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/terramo-esg/terramo/internal/models"
)

func newDashboardCmd(current func() *app) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show averages and your own answers for a reporting year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			res, err := a.client.Dashboard(cmd.Context(), year)
			if err != nil {
				return err
			}
			printDashboard(a, res.Data)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", currentYear(), "reporting year")
	return cmd
}

func formatAverage(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func printDashboard(a *app, d models.Dashboard) {
	title := fmt.Sprintf("Reporting year %d", d.Year)
	if d.Locked {
		title += " " + styleWarning.Render("(submitted)")
	}
	fmt.Fprintln(a.out, styleHeader.Render(title))

	own := make(map[string]models.Response, len(d.Responses))
	for _, r := range d.Responses {
		own[r.QuestionID] = r
	}
	fmt.Fprintf(a.out, "%-6s %-8s %-8s %-4s %-5s %-5s %s\n", "code", "avg prio", "avg sq", "n", "prio", "sq", "comment")
	for _, q := range d.Questions {
		r := own[q.ID]
		fmt.Fprintf(a.out, "%-6s %-8s %-8s %-4d %-5s %-5s %s\n",
			q.IndexCode, formatAverage(q.AvgPriority), formatAverage(q.AvgStatusQuo), q.Responses,
			r.Priority, r.StatusQuo, r.Comment)
	}
}
