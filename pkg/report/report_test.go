package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestComputeSummary(t *testing.T) {
	tests := []struct {
		name       string
		results    []CheckpointResult
		wantStatus Status
	}{
		{"no validations", nil, StatusWarn},
		{"all pass", []CheckpointResult{
			{Kind: KindScreenshot, Status: StatusPass},
			{Kind: KindAssertion, Status: StatusPass},
		}, StatusPass},
		{"one failure", []CheckpointResult{
			{Kind: KindScreenshot, Status: StatusPass},
			{Kind: KindAssertion, Status: StatusFail},
		}, StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &RunResult{Results: tt.results}
			run.ComputeSummary()
			if run.Summary.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", run.Summary.Status, tt.wantStatus)
			}
		})
	}
}

func TestComputeSummaryCounts(t *testing.T) {
	run := &RunResult{Results: []CheckpointResult{
		{Kind: KindScreenshot, Status: StatusPass},
		{Kind: KindScreenshot, Status: StatusFail},
		{Kind: KindAssertion, Status: StatusPass},
	}}
	run.ComputeSummary()
	if run.Summary.Screenshots != 2 || run.Summary.Assertions != 1 {
		t.Errorf("counts = %d/%d, want 2/1", run.Summary.Screenshots, run.Summary.Assertions)
	}
}

func TestFailed(t *testing.T) {
	run := &RunResult{Results: []CheckpointResult{
		{Label: "a", Status: StatusPass},
		{Label: "b", Status: StatusFail},
		{Label: "c", Status: StatusFail},
	}}
	failed := run.Failed()
	if len(failed) != 2 || failed[0].Label != "b" || failed[1].Label != "c" {
		t.Errorf("Failed() = %+v", failed)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	run := &RunResult{
		RunID:  "abc-123",
		Script: "suite/login",
		Results: []CheckpointResult{
			{Kind: KindAssertion, Status: StatusPass, AutoID: "UserField", Actual: "alice"},
		},
	}
	run.ComputeSummary()

	path, err := Write(dir, run)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := filepath.Join(dir, "suite", "login", "run-abc-123.json")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var loaded RunResult
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if loaded.RunID != "abc-123" || len(loaded.Results) != 1 {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Results[0].AutoID != "UserField" {
		t.Errorf("AutoID = %q, want UserField", loaded.Results[0].AutoID)
	}
}

func TestWriteSanitizesRunID(t *testing.T) {
	path, err := Write(t.TempDir(), &RunResult{RunID: "../evil id", Script: "s"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(path) != "run-___evil_id.json" {
		t.Errorf("file name = %q", filepath.Base(path))
	}
}

func TestFlakeTracker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flaky.json")
	tr := NewFlakeTracker(path)

	run := &RunResult{Script: "suite/login", Results: []CheckpointResult{
		{Label: "assert:SaveButton", Status: StatusFail},
		{Label: "shot", Status: StatusPass},
	}}
	if err := tr.RecordRun(run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if err := tr.RecordRun(run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if got := tr.Failures("suite/login", "assert:SaveButton"); got != 2 {
		t.Errorf("Failures = %d, want 2", got)
	}
	if got := tr.Failures("suite/login", "shot"); got != 0 {
		t.Errorf("Failures(pass checkpoint) = %d, want 0", got)
	}

	// Counts survive a reload.
	reloaded := NewFlakeTracker(path)
	if got := reloaded.Failures("suite/login", "assert:SaveButton"); got != 2 {
		t.Errorf("reloaded Failures = %d, want 2", got)
	}
}

func TestFlakeTrackerLabelFallsBackToCandidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flaky.json")
	tr := NewFlakeTracker(path)
	run := &RunResult{Script: "s", Results: []CheckpointResult{
		{Candidate: "0_000T.png", Status: StatusFail},
	}}
	if err := tr.RecordRun(run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if got := tr.Failures("s", "0_000T.png"); got != 1 {
		t.Errorf("Failures = %d, want 1", got)
	}
}

func TestFlakeTrackerIgnoresCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flaky.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	tr := NewFlakeTracker(path)
	if got := tr.Failures("any", "thing"); got != 0 {
		t.Errorf("Failures = %d, want 0 after corrupt load", got)
	}
	if err := tr.RecordFailure("s", "c"); err != nil {
		t.Errorf("RecordFailure after corrupt load: %v", err)
	}
}
