package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// FlakeTracker accumulates per-checkpoint failure counts across repeated
// runs of the same scripts, persisted as sorted JSON so diffs stay stable.
// It is a stateless consumer of playback output: it never feeds back into
// a run.
type FlakeTracker struct {
	mu    sync.Mutex
	path  string
	stats map[string]map[string]int // script -> checkpoint label -> failures
}

// NewFlakeTracker loads (or starts) a tracker at path. A corrupt stats
// file is discarded rather than failing the run.
func NewFlakeTracker(path string) *FlakeTracker {
	t := &FlakeTracker{path: path, stats: make(map[string]map[string]int)}
	data, err := os.ReadFile(path) //#nosec G304 -- tracker path from run config
	if err == nil {
		var loaded map[string]map[string]int
		if json.Unmarshal(data, &loaded) == nil && loaded != nil {
			t.stats = loaded
		}
	}
	return t
}

// RecordFailure increments the failure count for one checkpoint.
func (t *FlakeTracker) RecordFailure(script, checkpoint string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stats[script] == nil {
		t.stats[script] = make(map[string]int)
	}
	t.stats[script][checkpoint]++
	return t.flushLocked()
}

// RecordRun records every failed checkpoint of a run.
func (t *FlakeTracker) RecordRun(run *RunResult) error {
	for _, c := range run.Failed() {
		label := c.Label
		if label == "" {
			label = c.Candidate
		}
		if err := t.RecordFailure(run.Script, label); err != nil {
			return err
		}
	}
	return nil
}

// Failures returns the recorded failure count for one checkpoint.
func (t *FlakeTracker) Failures(script, checkpoint string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats[script][checkpoint]
}

func (t *FlakeTracker) flushLocked() error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return err
	}
	// encoding/json sorts map keys, keeping the file diff-friendly.
	data, err := json.MarshalIndent(t.stats, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.path, data, 0o644)
}
