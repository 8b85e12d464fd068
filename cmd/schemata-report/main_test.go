package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"schemata/internal/report"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		prefix, name, want string
	}{
		{"", "runs.json", "runs.json"},
		{"/nightly/", "runs.json", "nightly/runs.json"},
		{"nightly", "/runs.json", "nightly/runs.json"},
	}
	for _, tt := range tests {
		if got := objectKey(tt.prefix, tt.name); got != tt.want {
			t.Fatalf("objectKey(%q, %q) = %q, want %q", tt.prefix, tt.name, got, tt.want)
		}
	}
}

func TestParseS3URI(t *testing.T) {
	bucket, prefix, err := parseS3URI("s3://bucket/runs")
	if err != nil || bucket != "bucket" || prefix != "runs/" {
		t.Fatalf("got %q %q %v", bucket, prefix, err)
	}
	if _, _, err := parseS3URI("s3://"); err == nil {
		t.Fatalf("expected error for missing bucket")
	}
}

func TestDeriveUploadObjectURL(t *testing.T) {
	tests := []struct {
		name, location, file, base, want string
	}{
		{"empty location", "", "run.tar.zst", "https://cdn", ""},
		{"http location", "https://cdn/runs/r1/", "run.tar.zst", "", "https://cdn/runs/r1/run.tar.zst"},
		{"s3 without base", "s3://bucket/runs/r1/", "summary.json", "", ""},
		{"s3 with base", "s3://bucket/runs/r1/", "summary.json", "https://pub.example/", "https://pub.example/runs/r1/summary.json"},
		{"gcs unsupported", "gs://bucket/r1/", "summary.json", "https://pub", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveUploadObjectURL(tt.location, tt.file, tt.base); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func writeRun(t *testing.T, r *report.Reporter, summary report.Summary) report.Run {
	t.Helper()
	run, err := r.NewRun()
	if err != nil {
		t.Fatal(err)
	}
	summary.RunID = run.ID
	summary.RunDir = run.Dir
	if err := r.WriteSQL(run, "schema.sql", []string{"CREATE TABLE T (a INT)"}); err != nil {
		t.Fatal(err)
	}
	if err := r.WriteSummary(run, summary); err != nil {
		t.Fatal(err)
	}
	return run
}

func TestRunAggregatesLocalRuns(t *testing.T) {
	input := t.TempDir()
	r := report.New(input)
	older := writeRun(t, r, report.Summary{Schema: "inventory", Timestamp: "2026-01-01T00:00:00Z", Mutants: 4,
		Counts: map[string]int{"killed": 3, "alive": 1}, Score: 0.75})
	newer := writeRun(t, r, report.Summary{Schema: "booking", Timestamp: "2026-02-01T00:00:00Z", Mutants: 2,
		Counts: map[string]int{"killed": 1, "alive": 1}, Score: 0.5})
	if err := os.MkdirAll(filepath.Join(input, "stray"), 0o755); err != nil {
		t.Fatal(err)
	}

	output := t.TempDir()
	var out bytes.Buffer
	opts := &options{input: input, output: output, maxBytes: 8}
	if err := run(context.Background(), &out, opts); err != nil {
		t.Fatalf("run: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(output, indexFile))
	if err != nil {
		t.Fatal(err)
	}
	var index Index
	if err := json.Unmarshal(raw, &index); err != nil {
		t.Fatal(err)
	}
	if len(index.Runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(index.Runs))
	}
	if index.Runs[0].RunID != newer.ID || index.Runs[1].RunID != older.ID {
		t.Fatalf("runs not newest first: %s, %s", index.Runs[0].RunID, index.Runs[1].RunID)
	}
	schemaFile := index.Runs[0].Files["schema.sql"]
	if schemaFile.Content != "CREATE T" || !schemaFile.Truncated {
		t.Fatalf("schema.sql not truncated: %+v", schemaFile)
	}
	if index.Runs[0].Files["mutants.sql"].Content != "" {
		t.Fatalf("missing file should be empty")
	}
	if !bytes.Contains(out.Bytes(), []byte("booking")) || !bytes.Contains(out.Bytes(), []byte("75.00%")) {
		t.Fatalf("table missing rows:\n%s", out.String())
	}
}

func TestLocalRunFilesFallBackToArchive(t *testing.T) {
	r := report.New(t.TempDir())
	run := writeRun(t, r, report.Summary{Schema: "inventory", ArchiveName: report.RunArchiveName})
	if _, _, err := r.WriteArchive(run); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	if err := os.Remove(filepath.Join(run.Dir, "schema.sql")); err != nil {
		t.Fatal(err)
	}
	files := localRunFiles(run.Dir, report.RunArchiveName, 1024)
	if got := files["schema.sql"]; got.Content != "CREATE TABLE T (a INT);\n" || got.Truncated {
		t.Fatalf("schema.sql from archive = %+v", got)
	}
	if files["inserts.sql"].Content != "" {
		t.Fatalf("file absent from archive should be empty: %+v", files["inserts.sql"])
	}
}
