package types

import "time"

// OperationResult represents the outcome of a single replayed stream or
// repository refresh.
type OperationResult struct {
	Name     string
	Success  bool
	Error    error
	Duration time.Duration
	Percent  float64
	Events   int
}

// Summary aggregates the results of a command run.
type Summary struct {
	Total        int
	SuccessCount int
	FailureCount int
	Results      []OperationResult
	Duration     time.Duration
}

// NewSummary creates a new Summary from a slice of operation results.
func NewSummary(results []OperationResult, duration time.Duration) *Summary {
	s := &Summary{
		Total:    len(results),
		Results:  results,
		Duration: duration,
	}
	for _, r := range results {
		if r.Success {
			s.SuccessCount++
		} else {
			s.FailureCount++
		}
	}
	return s
}

// HasFailures returns true if any operations failed.
func (s *Summary) HasFailures() bool {
	return s.FailureCount > 0
}

// FailedResults returns only the failed operation results.
func (s *Summary) FailedResults() []OperationResult {
	var failed []OperationResult
	for _, r := range s.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}
