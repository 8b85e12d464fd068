package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"schemata/internal/db"
	"schemata/internal/report"
	"schemata/internal/runner"
	"schemata/internal/util"
)

func newAnalyseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "analyse",
		Aliases: []string{"analyze", "run"},
		Short:   "Generate a suite, run it against every mutant and report the mutation score",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			ctx := cmd.Context()
			if err := db.EnsureDatabase(ctx, cfg.DBKind, cfg.DSN, cfg.Database); err != nil {
				return err
			}
			exec, err := db.Open(cfg.DBKind, cfg.DSN, db.WithStatementTimeout(time.Duration(cfg.StatementTimeoutMs)*time.Millisecond))
			if err != nil {
				return err
			}
			defer util.CloseWithErr(exec, "db")
			if err := exec.Ping(ctx); err != nil {
				return err
			}
			out, err := runner.New(cfg, exec).Run(ctx)
			if err != nil {
				return err
			}
			report.WriteVerdictTable(cmd.OutOrStdout(), out.Summary)
			fmt.Fprintf(cmd.OutOrStdout(), "coverage %.1f%%, report %s\n", out.Summary.Coverage*100, out.Run.Dir)
			return nil
		},
	}
}
