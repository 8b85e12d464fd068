package main

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"schemata/internal/runner"
	"schemata/internal/sqlwriter"
)

func newMutantsCmd(opts *options) *cobra.Command {
	var showSQL bool
	cmd := &cobra.Command{
		Use:   "mutants",
		Short: "List the mutants of the configured schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := runner.New(opts.cfg, nil)
			s, err := r.Schema()
			if err != nil {
				return err
			}
			mutants, err := r.Mutants(s)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if showSQL {
				for _, m := range mutants {
					fmt.Fprintf(cmd.OutOrStdout(), "-- %s\n", m)
					for _, stmt := range sqlwriter.CreateTableStatements(m.Artefact) {
						fmt.Fprintf(cmd.OutOrStdout(), "%s;\n", stmt)
					}
				}
				return nil
			}
			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"ID", "Operator", "Description"})
			table.SetBorder(false)
			table.SetCenterSeparator("")
			table.SetAutoWrapText(false)
			table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
			for _, m := range mutants {
				table.Append([]string{strconv.Itoa(m.ID), m.Operator, m.Description})
			}
			table.SetFooter([]string{strconv.Itoa(len(mutants)), "mutants", ""})
			table.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSQL, "sql", false, "print CREATE TABLE statements for every mutant")
	return cmd
}
