package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"schemata/internal/casestudy"
	"schemata/internal/coverage"
	"schemata/internal/db"
	"schemata/internal/mutation"
)

func newSchemasCmd(_ *options) *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List case-study schemas, coverage criteria, operators and database kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "schemas:   %s\n", strings.Join(casestudy.Names(), ", "))
			fmt.Fprintf(out, "criteria:  %s\n", strings.Join(coverage.Names(), ", "))
			fmt.Fprintf(out, "operators: %s\n", strings.Join(mutation.Operators(), ", "))
			fmt.Fprintf(out, "databases: %s\n", strings.Join(db.Kinds(), ", "))
			return nil
		},
	}
}
