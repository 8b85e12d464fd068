package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleSummary(run Run) Summary {
	return Summary{
		RunID:     run.ID,
		RunDir:    run.Dir,
		Schema:    "inventory",
		DBKind:    "sqlite",
		Technique: "schemata",
		Coverage:  0.75,
		Mutants:   2,
		Counts:    map[string]int{"killed": 1, "alive": 1},
		Score:     0.5,
		Verdicts: []MutantSummary{
			{ID: 1, Operator: "NNCR", Description: "removed NOT NULL on T.a", Status: "alive"},
			{ID: 2, Operator: "CCR", Description: "removed CHECK on T", Status: "killed"},
		},
		Details: map[string]any{"zeta": 1, "alpha": map[string]any{"b": 2, "a": 1}},
	}
}

func TestSummaryRoundTripWithOrderedDetails(t *testing.T) {
	r := New(t.TempDir())
	run, err := r.NewRun()
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(run.Dir), "run_0001_") {
		t.Fatalf("unexpected run dir %s", run.Dir)
	}
	if err := r.WriteSummary(run, sampleSummary(run)); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(run.Dir, SummaryFile))
	if err != nil {
		t.Fatal(err)
	}
	want := "\"details\": {\n    \"alpha\": {\n      \"a\": 1,\n      \"b\": 2\n    },\n    \"zeta\": 1\n  }"
	if !strings.Contains(string(raw), want) {
		t.Fatalf("details not ordered:\n%s", raw)
	}
	got, err := ReadSummary(filepath.Join(run.Dir, SummaryFile))
	if err != nil {
		t.Fatalf("ReadSummary: %v", err)
	}
	if got.Score != 0.5 || len(got.Verdicts) != 2 || got.Counts["killed"] != 1 {
		t.Fatalf("summary mismatch: %+v", got)
	}
}

func TestArchiveContainsRunFiles(t *testing.T) {
	r := New(t.TempDir())
	r.UseUUIDPath = true
	run, err := r.NewRun()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(run.Dir) != run.ID {
		t.Fatalf("run dir %s not named by id %s", run.Dir, run.ID)
	}
	if err := r.WriteSQL(run, "schema.sql", []string{"CREATE TABLE T (a INT)"}); err != nil {
		t.Fatal(err)
	}
	name, codec, err := r.WriteArchive(run)
	if err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	if name != RunArchiveName || codec != RunArchiveCodec {
		t.Fatalf("archive=%s codec=%s", name, codec)
	}
	entries, err := ReadArchive(filepath.Join(run.Dir, name))
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if got := string(entries["schema.sql"]); got != "CREATE TABLE T (a INT);\n" {
		t.Fatalf("schema.sql=%q", got)
	}
	if _, ok := entries["README.md"]; !ok {
		t.Fatalf("README.md missing from archive: %v", entries)
	}
	if _, ok := entries[RunArchiveName]; ok {
		t.Fatalf("archive contains itself")
	}
}

func TestVerdictTable(t *testing.T) {
	var buf bytes.Buffer
	WriteVerdictTable(&buf, sampleSummary(Run{ID: "x"}))
	out := buf.String()
	for _, want := range []string{"NNCR", "removed CHECK on T", "SCORE 50.00%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}
