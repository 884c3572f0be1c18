package batch

import (
	"time"

	"cr2jpeg/convert"
)

// Job is one file waiting for conversion.
type Job struct {
	Index  int
	Source string
}

// Failure is a file that no backend could convert.
type Failure struct {
	SourcePath string
	Message    string
}

// RunSummary aggregates every outcome of one Run. Failures are in no
// particular order.
type RunSummary struct {
	RunID     string
	Total     int
	Succeeded int
	Failures  []Failure
	ByBackend map[string]int
	Elapsed   time.Duration
}

func newSummary(runID string, outcomes []convert.Outcome, elapsed time.Duration) *RunSummary {
	s := &RunSummary{
		RunID:     runID,
		Total:     len(outcomes),
		ByBackend: make(map[string]int),
		Elapsed:   elapsed,
	}
	for _, o := range outcomes {
		if o.Failed() {
			s.Failures = append(s.Failures, Failure{SourcePath: o.Source, Message: o.Message()})
			continue
		}
		s.Succeeded++
		s.ByBackend[o.Backend]++
	}
	return s
}

func (s *RunSummary) Failed() int {
	return len(s.Failures)
}

// Average is the mean wall time per attempted file, zero for an empty run.
func (s *RunSummary) Average() time.Duration {
	if s.Total == 0 {
		return 0
	}
	return s.Elapsed / time.Duration(s.Total)
}
