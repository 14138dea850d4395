// Package report defines the playback result records consumed by
// downstream reporting, plus JSON persistence and flake tracking.
// Consumers read the records; they never mutate them.
package report

import "time"

// Status is a checkpoint or run verdict.
type Status string

// Status values.
const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	// StatusWarn flags a run that executed zero validations: a script with
	// no screenshots and no assertions must not silently report pass.
	StatusWarn Status = "warn"
)

// CheckpointKind distinguishes result records.
type CheckpointKind string

// Checkpoint kinds.
const (
	KindScreenshot CheckpointKind = "screenshot"
	KindAssertion  CheckpointKind = "assertion"
)

// CheckpointResult is one validation outcome inside a run.
type CheckpointResult struct {
	Kind      CheckpointKind `json:"kind"`
	Index     int            `json:"index"`
	Label     string         `json:"label,omitempty"` // e.g. "assert:SaveButton"
	Timestamp time.Time      `json:"timestamp"`
	Status    Status         `json:"status"`
	Note      string         `json:"note,omitempty"`

	// Screenshot checkpoints.
	DiffPercent    float64  `json:"diffPercent"`
	Baseline       string   `json:"original,omitempty"`
	Candidate      string   `json:"test,omitempty"`
	DiffImage      string   `json:"diffImage,omitempty"`
	HighlightImage string   `json:"highlightImage,omitempty"`
	SSIMScore      *float64 `json:"ssimScore,omitempty"`

	// Property assertions.
	AutoID   string `json:"autoId,omitempty"`
	Property string `json:"property,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

// Summary is the synthetic run-level record.
type Summary struct {
	Status      Status    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Assertions  int       `json:"assertions"`
	Screenshots int       `json:"screenshots"`
	Note        string    `json:"note,omitempty"`
}

// RunResult is the ordered outcome of one playback run.
type RunResult struct {
	RunID     string             `json:"runId"`
	Script    string             `json:"script"`
	StartTime time.Time          `json:"startTime"`
	Duration  time.Duration      `json:"duration"`
	Cancelled bool               `json:"cancelled,omitempty"`
	Results   []CheckpointResult `json:"results"`
	Summary   Summary            `json:"summary"`
}

// ComputeSummary fills the summary record from the checkpoint list.
func (r *RunResult) ComputeSummary() {
	r.Summary.Assertions = 0
	r.Summary.Screenshots = 0
	failed := false
	for _, c := range r.Results {
		switch c.Kind {
		case KindScreenshot:
			r.Summary.Screenshots++
		case KindAssertion:
			r.Summary.Assertions++
		}
		if c.Status == StatusFail {
			failed = true
		}
	}
	switch {
	case r.Summary.Assertions+r.Summary.Screenshots == 0:
		r.Summary.Status = StatusWarn
		r.Summary.Note = "no assertions or screenshot checkpoints executed"
	case failed:
		r.Summary.Status = StatusFail
		r.Summary.Note = "at least one validation failed"
	default:
		r.Summary.Status = StatusPass
		r.Summary.Note = "all validations passed"
	}
}

// Failed returns the checkpoints with a fail status.
func (r *RunResult) Failed() []CheckpointResult {
	var out []CheckpointResult
	for _, c := range r.Results {
		if c.Status == StatusFail {
			out = append(out, c)
		}
	}
	return out
}
