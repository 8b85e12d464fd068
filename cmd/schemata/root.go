// Command schemata generates constraint-covering test data for a relational
// schema and scores it with mutation analysis.
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"schemata/internal/config"
	"schemata/internal/util"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath     string
	seed           int64
	schema         string
	criterion      string
	operators      []string
	dbKind         string
	dsn            string
	technique      string
	maxEvaluations int
	outputDir      string
	logFile        string
	verbose        bool
	metricsAddr    string

	cfg       config.Config
	logCloser io.Closer
	metrics   *http.Server
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&options{})
}

func newRootCmdWith(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemata",
		Short: "Search-based test data generation and mutation analysis for SQL schemas",
		Long: `schemata builds INSERT suites that exercise every integrity constraint of a
schema, then measures how many schema mutants those suites detect.

Mutants are hosted side by side in one database under mutant_<id>_ table
prefixes, either created up front (schemata) or one at a time (justintime).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			opts.teardown()
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	flags.Int64Var(&opts.seed, "seed", 1, "random seed for test data search")
	flags.StringVarP(&opts.schema, "schema", "s", "", "case-study schema to use")
	flags.StringVar(&opts.criterion, "criterion", "", "coverage criterion")
	flags.StringSliceVarP(&opts.operators, "operators", "o", nil, "mutation operators to apply (default all)")
	flags.StringVar(&opts.dbKind, "db", "", "database kind (mysql, tidb, sqlite)")
	flags.StringVar(&opts.dsn, "dsn", "", "database DSN")
	flags.StringVarP(&opts.technique, "technique", "t", "", "analysis technique (schemata, justintime)")
	flags.IntVar(&opts.maxEvaluations, "max-evaluations", 0, "objective evaluations per requirement")
	flags.StringVar(&opts.outputDir, "output", "", "run report directory")
	flags.StringVar(&opts.logFile, "log-file", "", "rotating log file path, empty to log to stderr only")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log detail messages")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	cmd.AddCommand(newSchemasCmd(opts), newMutantsCmd(opts), newGenerateCmd(opts), newAnalyseCmd(opts))
	return cmd
}

// setup loads the config, applies explicitly set flags and starts logging.
func (o *options) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg
	o.logCloser = util.SetupLogging(cfg.Logging.File)
	util.SetVerbose(cfg.Logging.Verbose)
	if data, err := yaml.Marshal(&cfg); err == nil {
		util.Detailf("config:\n%s", string(data))
	}
	if cfg.Logging.MetricsAddr != "" {
		o.metrics = serveMetrics(cfg.Logging.MetricsAddr)
	}
	return nil
}

func (o *options) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = o.seed
	}
	if flags.Changed("schema") {
		cfg.Schema = o.schema
	}
	if flags.Changed("criterion") {
		cfg.Criterion = o.criterion
	}
	if flags.Changed("operators") {
		cfg.Operators = o.operators
	}
	if flags.Changed("db") {
		cfg.DBKind = o.dbKind
	}
	if flags.Changed("dsn") {
		cfg.DSN = o.dsn
	}
	if flags.Changed("technique") {
		cfg.Analysis.Technique = strings.ToLower(strings.TrimSpace(o.technique))
	}
	if flags.Changed("max-evaluations") {
		cfg.Search.MaxEvaluations = o.maxEvaluations
	}
	if flags.Changed("output") {
		cfg.Report.OutputDir = o.outputDir
	}
	if flags.Changed("log-file") {
		cfg.Logging.File.Path = o.logFile
	}
	if flags.Changed("verbose") {
		cfg.Logging.Verbose = o.verbose
	}
	if flags.Changed("metrics-addr") {
		cfg.Logging.MetricsAddr = o.metricsAddr
	}
}

func (o *options) teardown() {
	if o.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = o.metrics.Shutdown(ctx)
		cancel()
	}
	if o.logCloser != nil {
		util.CloseWithErr(o.logCloser, "log file")
	}
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			util.Warnf("metrics server on %s stopped: %v", addr, err)
		}
	}()
	util.Infof("serving metrics on %s/metrics", addr)
	return srv
}
