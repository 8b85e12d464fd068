package analysis

import (
	"fmt"
	"time"

	"schemata/internal/mutation"
	"schemata/internal/schema"
)

// Status is the verdict for one mutant.
type Status int

// Mutant verdicts.
const (
	Killed Status = iota
	Alive
	StillBorn
	TimedOut
	Equivalent
	Redundant
)

func (s Status) String() string {
	switch s {
	case Killed:
		return "killed"
	case Alive:
		return "alive"
	case StillBorn:
		return "still-born"
	case TimedOut:
		return "timed-out"
	case Equivalent:
		return "equivalent"
	case Redundant:
		return "redundant"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Statuses lists every verdict in report order.
func Statuses() []Status {
	return []Status{Killed, Alive, StillBorn, TimedOut, Equivalent, Redundant}
}

// StatementResult is what one suite statement did: a row count, or a failure
// with the vendor error code.
type StatementResult struct {
	Count  int64
	Failed bool
	Code   int
}

func (r StatementResult) String() string {
	if r.Failed {
		return fmt.Sprintf("error(%d)", r.Code)
	}
	return fmt.Sprintf("%d", r.Count)
}

// Classify compares the ordered statement results of a mutant with those of
// the original schema. The mutant is alive iff both sequences have the same
// length and agree on failure and count at every position. Error codes are
// not compared.
func Classify(original, mutant []StatementResult) Status {
	if len(original) != len(mutant) {
		return Killed
	}
	for i := range original {
		if original[i].Failed != mutant[i].Failed || original[i].Count != mutant[i].Count {
			return Killed
		}
	}
	return Alive
}

// Verdict is the outcome for one mutant.
type Verdict struct {
	Mutant  mutation.Mutant[*schema.Schema]
	Status  Status
	Results []StatementResult
	// Err explains still-born and timed-out verdicts.
	Err     error
	Elapsed time.Duration
}

// Result aggregates verdicts. It is built once, after every worker finished,
// and never changes afterwards.
type Result struct {
	technique string
	original  []StatementResult
	verdicts  []Verdict
	counts    map[Status]int
	elapsed   time.Duration
}

func newResult(technique string, original []StatementResult, verdicts []Verdict, elapsed time.Duration) *Result {
	r := &Result{
		technique: technique,
		original:  append([]StatementResult(nil), original...),
		verdicts:  append([]Verdict(nil), verdicts...),
		counts:    make(map[Status]int),
		elapsed:   elapsed,
	}
	for _, v := range r.verdicts {
		r.counts[v.Status]++
	}
	return r
}

// Technique names how mutants were hosted.
func (r *Result) Technique() string { return r.technique }

// Elapsed is the wall time of the analysis.
func (r *Result) Elapsed() time.Duration { return r.elapsed }

// Original returns the statement results of the original schema.
func (r *Result) Original() []StatementResult {
	return append([]StatementResult(nil), r.original...)
}

// Verdicts returns every verdict ordered by mutant ID.
func (r *Result) Verdicts() []Verdict {
	return append([]Verdict(nil), r.verdicts...)
}

// Count returns how many mutants received s.
func (r *Result) Count(s Status) int { return r.counts[s] }

// Total is the number of mutants supplied.
func (r *Result) Total() int { return len(r.verdicts) }

// Score is killed / (killed + alive). Still-born, timed-out, equivalent and
// redundant mutants are not part of either term. With nothing to score the
// result is 0.
func (r *Result) Score() float64 {
	killed, alive := r.counts[Killed], r.counts[Alive]
	if killed+alive == 0 {
		return 0
	}
	return float64(killed) / float64(killed+alive)
}

func (r *Result) String() string {
	return fmt.Sprintf("%d mutants: %d killed, %d alive, %d still-born, %d timed-out, %d equivalent, %d redundant; score %.2f%%",
		r.Total(), r.counts[Killed], r.counts[Alive], r.counts[StillBorn], r.counts[TimedOut],
		r.counts[Equivalent], r.counts[Redundant], r.Score()*100)
}
