// Package report persists run artifacts: summary.json, SQL dumps and a
// compressed archive of the run directory.
package report

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"schemata/internal/runinfo"
	"schemata/internal/util"
)

// Reporter writes run artifacts to disk.
type Reporter struct {
	OutputDir   string
	UseUUIDPath bool
	runSeq      int
}

// Run describes a report directory.
type Run struct {
	ID  string
	Dir string
}

// CaseSummary is the persisted view of one test case.
type CaseSummary struct {
	Requirement string `json:"requirement"`
	Table       string `json:"table"`
	Success     bool   `json:"success"`
	Objective   string `json:"objective"`
	Evaluations int    `json:"evaluations"`
	Restarts    int    `json:"restarts"`
	Reused      bool   `json:"reused,omitempty"`
	Error       string `json:"error,omitempty"`
	Data        string `json:"data"`
}

// MutantSummary is the persisted view of one mutant verdict.
type MutantSummary struct {
	ID          int      `json:"id"`
	Operator    string   `json:"operator"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Results     []string `json:"results,omitempty"`
	Error       string   `json:"error,omitempty"`
	ElapsedMs   int64    `json:"elapsed_ms"`
}

// Summary captures the persisted metadata for a run.
type Summary struct {
	RunID          string             `json:"run_id"`
	RunDir         string             `json:"run_dir"`
	Schema         string             `json:"schema"`
	DBKind         string             `json:"db_kind"`
	Criterion      string             `json:"criterion"`
	Technique      string             `json:"technique"`
	Seed           int64              `json:"seed"`
	Coverage       float64            `json:"coverage"`
	Cases          []CaseSummary      `json:"cases"`
	Mutants        int                `json:"mutants"`
	Counts         map[string]int     `json:"counts"`
	Score          float64            `json:"score"`
	Verdicts       []MutantSummary    `json:"verdicts"`
	ElapsedMs      int64              `json:"elapsed_ms"`
	Timestamp      string             `json:"timestamp"`
	ArchiveName    string             `json:"archive_name"`
	ArchiveCodec   string             `json:"archive_codec"`
	UploadLocation string             `json:"upload_location"`
	RunInfo        *runinfo.BasicInfo `json:"run_info,omitempty"`
	Details        map[string]any     `json:"details"`
}

// New creates a reporter that writes to outputDir.
func New(outputDir string) *Reporter {
	return &Reporter{OutputDir: outputDir}
}

// NewRun allocates a new run directory.
func (r *Reporter) NewRun() (Run, error) {
	r.runSeq++
	runID := uuid.New().String()
	if v7, err := uuid.NewV7(); err == nil {
		runID = v7.String()
	}
	runDir := fmt.Sprintf("run_%04d_%s", r.runSeq, runID)
	if r.UseUUIDPath {
		runDir = runID
	}
	dir := filepath.Join(r.OutputDir, runDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Run{}, err
	}
	_ = os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Replay Run\n\n- Apply schema: schema.sql\n- Load test data: inserts.sql\n- Mutant schemas: mutants.sql\n- Verdicts: summary.json\n"), 0o644)
	return Run{ID: runID, Dir: dir}, nil
}

const (
	RunArchiveName  = "run.tar.zst"
	RunArchiveCodec = "zstd"
	SummaryFile     = "summary.json"
)

// WriteSummary writes summary.json into the run directory. Map keys, details
// included, are written in sorted order.
func (r *Reporter) WriteSummary(run Run, summary Summary) error {
	f, err := os.Create(filepath.Join(run.Dir, SummaryFile))
	if err != nil {
		return err
	}
	defer util.CloseWithErr(f, "summary output")
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(summary)
}

// ReadSummary loads a summary.json file.
func ReadSummary(path string) (Summary, error) {
	var s Summary
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// WriteSQL writes a SQL file from the provided statements.
func (r *Reporter) WriteSQL(run Run, name string, statements []string) error {
	content := ""
	if len(statements) > 0 {
		content = strings.Join(statements, ";\n") + ";\n"
	}
	return r.WriteText(run, name, content)
}

// WriteText writes raw text content into the run directory.
func (r *Reporter) WriteText(run Run, name string, content string) error {
	path := filepath.Join(run.Dir, name)
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// WriteArchive creates a compressed archive of the run directory.
func (r *Reporter) WriteArchive(run Run) (name string, codec string, err error) {
	archivePath := filepath.Join(run.Dir, RunArchiveName)
	if removeErr := os.Remove(archivePath); removeErr != nil && !os.IsNotExist(removeErr) {
		return "", "", removeErr
	}
	defer func() {
		if err != nil {
			_ = os.Remove(archivePath)
		}
	}()
	file, err := os.Create(archivePath)
	if err != nil {
		return "", "", err
	}
	defer util.CloseWithErr(file, "archive output")

	zw, err := zstd.NewWriter(file)
	if err != nil {
		return "", "", err
	}
	defer func() {
		if closeErr := zw.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
	}()

	tw := tar.NewWriter(zw)
	defer func() {
		if closeErr := tw.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
	}()

	walkErr := filepath.WalkDir(run.Dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || path == archivePath {
			return nil
		}
		rel, err := filepath.Rel(run.Dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		if _, err := io.Copy(tw, src); err != nil {
			util.CloseWithErr(src, "archive source")
			return err
		}
		util.CloseWithErr(src, "archive source")
		return nil
	})
	if walkErr != nil {
		return "", "", walkErr
	}
	return RunArchiveName, RunArchiveCodec, nil
}

// ReadArchive lists the entries of a run archive with their contents.
func ReadArchive(path string) (map[string][]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer util.CloseWithErr(file, "archive input")
	zr, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out := make(map[string][]byte)
	tr := tar.NewReader(zr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		out[header.Name] = content
	}
}
