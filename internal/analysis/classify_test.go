package analysis

import "testing"

func TestClassify(t *testing.T) {
	ok := StatementResult{Count: 1}
	fail := StatementResult{Failed: true, Code: 3819}
	cases := []struct {
		name     string
		original []StatementResult
		mutant   []StatementResult
		want     Status
	}{
		{"identical", []StatementResult{ok, fail}, []StatementResult{ok, fail}, Alive},
		{"empty", nil, nil, Alive},
		{"error code ignored", []StatementResult{fail}, []StatementResult{{Failed: true, Code: 1048}}, Alive},
		{"mutant rejects", []StatementResult{ok}, []StatementResult{fail}, Killed},
		{"mutant accepts", []StatementResult{fail}, []StatementResult{ok}, Killed},
		{"count differs", []StatementResult{{Count: 1}}, []StatementResult{{Count: 2}}, Killed},
		{"order matters", []StatementResult{ok, fail}, []StatementResult{fail, ok}, Killed},
		{"length differs", []StatementResult{ok}, []StatementResult{ok, ok}, Killed},
	}
	for _, c := range cases {
		if got := Classify(c.original, c.mutant); got != c.want {
			t.Fatalf("%s: Classify()=%v, want %v", c.name, got, c.want)
		}
	}
}

func TestClassifyDependsOnlyOnSequences(t *testing.T) {
	original := []StatementResult{{Count: 1}, {Failed: true, Code: 1062}, {Count: 1}}
	a := append([]StatementResult(nil), original...)
	b := append([]StatementResult(nil), original...)
	if Classify(original, a) != Alive || Classify(original, b) != Alive {
		t.Fatalf("identical sequences not alive")
	}
	b[2] = StatementResult{Failed: true}
	if Classify(original, b) != Killed {
		t.Fatalf("single differing entry not killed")
	}
}

func TestScoreExcludesUnscoredVerdicts(t *testing.T) {
	r := newResult(TechniqueSchemata, nil, []Verdict{
		{Status: Killed}, {Status: Killed}, {Status: Alive},
		{Status: StillBorn}, {Status: TimedOut}, {Status: Equivalent}, {Status: Redundant},
	}, 0)
	if r.Total() != 7 {
		t.Fatalf("Total()=%d", r.Total())
	}
	if got, want := r.Score(), 2.0/3.0; got != want {
		t.Fatalf("Score()=%v, want %v", got, want)
	}
	if empty := newResult(TechniqueSchemata, nil, []Verdict{{Status: StillBorn}}, 0); empty.Score() != 0 {
		t.Fatalf("Score() with nothing scored=%v", empty.Score())
	}
}
