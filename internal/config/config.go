package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"schemata/internal/runinfo"
	"schemata/internal/util"
)

// Config captures all runtime options for a generation and analysis run.
type Config struct {
	DBKind             string             `yaml:"db_kind"`
	DSN                string             `yaml:"dsn"`
	Database           string             `yaml:"database"`
	Seed               int64              `yaml:"seed"`
	Schema             string             `yaml:"schema"`
	Criterion          string             `yaml:"criterion"`
	Operators          []string           `yaml:"operators"`
	StatementTimeoutMs int                `yaml:"statement_timeout_ms"`
	Search             SearchConfig       `yaml:"search"`
	Analysis           AnalysisConfig     `yaml:"analysis"`
	Report             ReportConfig       `yaml:"report"`
	Storage            StorageConfig      `yaml:"storage"`
	Logging            Logging            `yaml:"logging"`
	RunInfo            *runinfo.BasicInfo `yaml:"-"`
}

// SearchConfig bounds test data generation.
type SearchConfig struct {
	MaxEvaluations     int   `yaml:"max_evaluations"`
	MaxRestarts        int   `yaml:"max_restarts"`
	NullProbability    int   `yaml:"null_probability"`
	LibraryProbability int   `yaml:"library_probability"`
	DefaultRange       int64 `yaml:"default_range"`
	MaxStringLength    int   `yaml:"max_string_length"`
	Workers            int   `yaml:"workers"`
	Reuse              bool  `yaml:"reuse"`
}

// AnalysisConfig controls mutation analysis.
type AnalysisConfig struct {
	Technique        string `yaml:"technique"`
	Workers          int    `yaml:"workers"`
	MutantTimeoutMs  int    `yaml:"mutant_timeout_ms"`
	RemoveEquivalent bool   `yaml:"remove_equivalent"`
	RemoveRedundant  bool   `yaml:"remove_redundant"`
	CompareNames     bool   `yaml:"compare_constraint_names"`
}

// ReportConfig controls the run directory.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir"`
	Archive   bool   `yaml:"archive"`
}

// Logging controls stdout logging behavior.
type Logging struct {
	Verbose     bool               `yaml:"verbose"`
	File        util.LogFileConfig `yaml:"file"`
	MetricsAddr string             `yaml:"metrics_addr"`
}

// StorageConfig holds external storage settings.
type StorageConfig struct {
	S3  S3Config  `yaml:"s3"`
	GCS GCSConfig `yaml:"gcs"`
}

// CloudEnabled reports whether any cloud storage backend is enabled.
func (s StorageConfig) CloudEnabled() bool {
	return s.GCS.Enabled || s.S3.Enabled
}

// S3Config configures S3 uploads (including S3-compatible endpoints).
type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// GCSConfig configures GCS uploads.
type GCSConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Technique names.
const (
	TechniqueSchemata   = "schemata"
	TechniqueJustInTime = "justintime"
)

// Load reads configuration from a YAML file. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parse %s", path)
		}
	}
	normalizeConfig(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	cfg.RunInfo = runinfo.FromEnv()
	return cfg, nil
}

// Validate rejects settings no run can honour.
func (c Config) Validate() error {
	switch c.Analysis.Technique {
	case TechniqueSchemata, TechniqueJustInTime:
	default:
		return errors.Errorf("unknown analysis technique %q", c.Analysis.Technique)
	}
	if c.Schema == "" {
		return errors.New("schema is required")
	}
	if c.Search.MaxEvaluations <= 0 {
		return errors.New("search.max_evaluations must be positive")
	}
	return nil
}

const (
	analysisWorkersDefault    = 4
	searchWorkersDefault      = 4
	maxEvaluationsDefault     = 100000
	mutantTimeoutMsDefault    = 60000
	maxStringLengthDefault    = 20
	defaultRangeDefault       = 100000
	statementTimeoutMsDefault = 15000
)

func normalizeConfig(cfg *Config) {
	cfg.DBKind = strings.ToLower(strings.TrimSpace(cfg.DBKind))
	if cfg.DBKind == "" {
		cfg.DBKind = "mysql"
	}
	if cfg.Database != "" && cfg.DBKind != "sqlite" {
		cfg.DSN = ensureDatabaseInDSN(cfg.DSN, cfg.Database)
	}
	cfg.Analysis.Technique = strings.ToLower(strings.TrimSpace(cfg.Analysis.Technique))
	if cfg.Analysis.Technique == "" {
		cfg.Analysis.Technique = TechniqueSchemata
	}
	if cfg.Analysis.Workers <= 0 {
		cfg.Analysis.Workers = analysisWorkersDefault
	}
	if cfg.Analysis.MutantTimeoutMs <= 0 {
		cfg.Analysis.MutantTimeoutMs = mutantTimeoutMsDefault
	}
	if cfg.Search.Workers <= 0 {
		cfg.Search.Workers = searchWorkersDefault
	}
	if cfg.Search.MaxRestarts < 0 {
		cfg.Search.MaxRestarts = 0
	}
	if cfg.Search.MaxStringLength <= 0 {
		cfg.Search.MaxStringLength = maxStringLengthDefault
	}
	if cfg.Search.DefaultRange <= 0 {
		cfg.Search.DefaultRange = defaultRangeDefault
	}
	cfg.Search.NullProbability = clampPercent(cfg.Search.NullProbability)
	cfg.Search.LibraryProbability = clampPercent(cfg.Search.LibraryProbability)
	if cfg.StatementTimeoutMs <= 0 {
		cfg.StatementTimeoutMs = statementTimeoutMsDefault
	}
	if cfg.Report.OutputDir == "" {
		cfg.Report.OutputDir = "reports"
	}
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func ensureDatabaseInDSN(dsn string, dbName string) string {
	if dsn == "" || dbName == "" {
		return dsn
	}
	slash := strings.Index(dsn, "/")
	if slash < 0 {
		return dsn
	}
	query := strings.Index(dsn[slash+1:], "?")
	if query >= 0 {
		query = slash + 1 + query
	}
	afterSlash := dsn[slash+1:]
	if query >= 0 {
		afterSlash = dsn[slash+1 : query]
	}
	if strings.TrimSpace(afterSlash) != "" {
		return dsn
	}
	if query >= 0 {
		return dsn[:slash+1] + dbName + dsn[query:]
	}
	return dsn + dbName
}

// UpdateDatabaseInDSN replaces the database name in the DSN path with dbName.
// It preserves query parameters, if any.
func UpdateDatabaseInDSN(dsn string, dbName string) string {
	if dsn == "" || dbName == "" {
		return dsn
	}
	slash := strings.Index(dsn, "/")
	if slash < 0 {
		return dsn
	}
	query := strings.Index(dsn[slash+1:], "?")
	if query >= 0 {
		query = slash + 1 + query
		return dsn[:slash+1] + dbName + dsn[query:]
	}
	return dsn[:slash+1] + dbName
}

// AdminDSN strips the database name from a DSN while preserving query parameters.
func AdminDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	slash := strings.Index(dsn, "/")
	if slash < 0 {
		return dsn
	}
	query := strings.Index(dsn[slash+1:], "?")
	if query >= 0 {
		query = slash + 1 + query
		return dsn[:slash+1] + dsn[query:]
	}
	return dsn[:slash+1]
}

func defaultConfig() Config {
	return Config{
		DBKind:             "mysql",
		DSN:                "root:@tcp(127.0.0.1:3306)/",
		Database:           "schemata",
		Seed:               1,
		Schema:             "inventory",
		Criterion:          "constraint",
		StatementTimeoutMs: statementTimeoutMsDefault,
		Search: SearchConfig{
			MaxEvaluations:     maxEvaluationsDefault,
			MaxRestarts:        100,
			NullProbability:    10,
			LibraryProbability: 25,
			DefaultRange:       defaultRangeDefault,
			MaxStringLength:    maxStringLengthDefault,
			Workers:            searchWorkersDefault,
			Reuse:              true,
		},
		Analysis: AnalysisConfig{
			Technique:        TechniqueSchemata,
			Workers:          analysisWorkersDefault,
			MutantTimeoutMs:  mutantTimeoutMsDefault,
			RemoveEquivalent: true,
			RemoveRedundant:  true,
		},
		Report: ReportConfig{
			OutputDir: "reports",
			Archive:   true,
		},
		Logging: Logging{
			File: util.LogFileConfig{
				Path:       "logs/schemata.log",
				MaxSizeMB:  100,
				MaxBackups: 5,
				MaxAgeDays: 14,
			},
		},
	}
}
