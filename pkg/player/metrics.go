package player

import (
	"fmt"
	"sync"
)

// Metrics counts how dispatched inputs were resolved during a run,
// keyed by resolution mode. The history slices keep a short human
// readable trail for the run log.
type Metrics struct {
	mu          sync.Mutex
	clickCounts map[string]int
	clickTrail  []string
	dragCount   int
	dragTrail   []string
}

func newMetrics() Metrics {
	return Metrics{clickCounts: make(map[string]int)}
}

// Reset clears all counters for a fresh run.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clickCounts = make(map[string]int)
	m.clickTrail = nil
	m.dragCount = 0
	m.dragTrail = nil
}

// NoteClick records one dispatched click and the mode that served it.
func (m *Metrics) NoteClick(mode, autoID string, x, y int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clickCounts[mode]++
	label := autoID
	if label == "" {
		label = "-"
	}
	m.clickTrail = append(m.clickTrail, fmt.Sprintf("%s %s (%d,%d)", mode, label, x, y))
}

// NoteDrag records one synthesized drag and its replayed point count.
func (m *Metrics) NoteDrag(button string, points int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dragCount++
	if button == "" {
		button = "left"
	}
	m.dragTrail = append(m.dragTrail, fmt.Sprintf("%s %d points", button, points))
}

// ClickCount returns the number of clicks served by the given mode.
func (m *Metrics) ClickCount(mode string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clickCounts[mode]
}

// DragCount returns the number of drags replayed.
func (m *Metrics) DragCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dragCount
}

// ClickTrail returns a copy of the click dispatch trail.
func (m *Metrics) ClickTrail() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.clickTrail))
	copy(out, m.clickTrail)
	return out
}

// DragTrail returns a copy of the drag dispatch trail.
func (m *Metrics) DragTrail() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.dragTrail))
	copy(out, m.dragTrail)
	return out
}
