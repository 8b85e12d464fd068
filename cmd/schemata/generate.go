package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"schemata/internal/runner"
)

func newGenerateCmd(opts *options) *cobra.Command {
	var showSQL bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Search test data for every coverage requirement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := runner.New(opts.cfg, nil)
			s, err := r.Schema()
			if err != nil {
				return err
			}
			suite, err := r.Generate(cmd.Context(), s)
			if err != nil {
				return err
			}
			if showSQL {
				fmt.Fprint(cmd.OutOrStdout(), suite.SQL())
				return nil
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Requirement", "Covered", "Evaluations", "Objective"})
			table.SetBorder(false)
			table.SetCenterSeparator("")
			table.SetAutoWrapText(false)
			for _, c := range suite.Cases {
				table.Append([]string{
					c.Requirement.Description,
					fmt.Sprintf("%t", c.Success),
					fmt.Sprintf("%d", c.Info.Evaluations),
					c.Info.Value.String(),
				})
			}
			table.SetFooter([]string{fmt.Sprintf("%d requirements", len(suite.Cases)), fmt.Sprintf("%.1f%%", suite.Coverage()*100), "", ""})
			table.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSQL, "sql", false, "print the suite as SQL instead of a table")
	return cmd
}
