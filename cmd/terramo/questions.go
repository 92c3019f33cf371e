package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terramo-esg/terramo/internal/models"
)

func newQuestionsCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "List the question catalogue by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			res, err := a.client.Questions(cmd.Context())
			if err != nil {
				return err
			}
			printQuestions(a, res.Data)
			return nil
		},
	}
}

func printQuestions(a *app, qs []models.Question) {
	var cat models.Category
	for i, q := range qs {
		if i == 0 || q.Category != cat {
			cat = q.Category
			if i > 0 {
				fmt.Fprintln(a.out)
			}
			fmt.Fprintln(a.out, styleHeader.Render(string(cat)))
		}
		fmt.Fprintf(a.out, "  %-6s %s\n", q.IndexCode, q.Measure)
	}
}
