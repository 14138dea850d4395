// Package player replays recorded action scripts against the target
// application, reconstructing timing, resolving controls through the
// resolution chain, and aggregating checkpoint results.
package player

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/replay-runner/pkg/action"
	"github.com/devicelab-dev/replay-runner/pkg/backend"
	"github.com/devicelab-dev/replay-runner/pkg/explorer"
	"github.com/devicelab-dev/replay-runner/pkg/logger"
	"github.com/devicelab-dev/replay-runner/pkg/report"
	"github.com/devicelab-dev/replay-runner/pkg/resolve"
)

// stopSlice bounds cancellation latency: every long wait sleeps in slices
// of this size and re-checks the stop flag in between.
const stopSlice = 100 * time.Millisecond

// Config carries the playback settings, read-only during a run.
type Config struct {
	ScriptsDir string
	ImagesDir  string
	ResultsDir string

	// TaskbarCropPx is the fixed-height band removed from the bottom of
	// every capture so the taskbar clock never fails a comparison.
	TaskbarCropPx int

	DefaultDelay          time.Duration
	UseDefaultDelayAlways bool

	UseAutomationIDs bool
	UseScreenshots   bool
	PreferSemantic   bool

	DiffTolerancePercent float64
	SSIM                 bool
	SSIMThreshold        float64

	WaitTimeout  time.Duration
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultDelay <= 0 {
		c.DefaultDelay = time.Second
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 5 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 250 * time.Millisecond
	}
	return c
}

// State is the playback engine lifecycle state.
type State int32

// Playback states.
const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
	StateCompleted
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Player is the playback engine. One run may be active at a time; the
// caller runs Play on a worker goroutine and cancels with RequestStop.
type Player struct {
	config     Config
	capability backend.Capability
	resolver   *resolve.Resolver
	synth      backend.Synthesizer
	capturer   backend.Capturer
	explorer   *explorer.Controller
	metrics    Metrics

	state  atomic.Int32
	stop   atomic.Bool
	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a player. explorerCtl may be nil when no file manager is
// wired.
func New(cfg Config, capability backend.Capability, resolver *resolve.Resolver,
	synth backend.Synthesizer, capturer backend.Capturer, explorerCtl *explorer.Controller) *Player {
	return &Player{
		config:     cfg.withDefaults(),
		capability: capability,
		resolver:   resolver,
		synth:      synth,
		capturer:   capturer,
		explorer:   explorerCtl,
		metrics:    newMetrics(),
	}
}

// State returns the current lifecycle state.
func (p *Player) State() State {
	return State(p.state.Load())
}

// Metrics returns the per-mode dispatch counters of the last run.
func (p *Player) Metrics() *Metrics {
	return &p.metrics
}

// RequestStop asks a running playback to halt cooperatively. In-flight
// native calls complete; no further screenshots or assertions are taken
// once the flag is observed.
func (p *Player) RequestStop() {
	p.stop.Store(true)
	p.state.CompareAndSwap(int32(StateRunning), int32(StateStopping))
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
}

func (p *Player) stopRequested() bool {
	return p.stop.Load()
}

// sleepInterruptible sleeps d in bounded slices, returning false as soon
// as a stop is observed.
func (p *Player) sleepInterruptible(d time.Duration) bool {
	for d > 0 {
		if p.stopRequested() {
			return false
		}
		chunk := d
		if chunk > stopSlice {
			chunk = stopSlice
		}
		time.Sleep(chunk)
		d -= chunk
	}
	return !p.stopRequested()
}

// PlayFile loads a script by hierarchical name and replays it.
func (p *Player) PlayFile(name string) (*report.RunResult, error) {
	path := action.ScriptPath(p.config.ScriptsDir, name, p.config.PreferSemantic)
	script, err := action.LoadScript(path, name)
	if err != nil {
		// Structural failure: abort before any input synthesis.
		return nil, backend.ErrInvalidScript.WithCause(err)
	}
	return p.Play(script)
}

// Play replays a script and returns the checkpoint results plus a
// synthetic summary. Per-action failures are captured into the result
// list; only structural failures return an error.
func (p *Player) Play(script *action.Script) (*report.RunResult, error) {
	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) &&
		!p.state.CompareAndSwap(int32(StateCompleted), int32(StateRunning)) &&
		!p.state.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		return nil, fmt.Errorf("playback already active (state %s)", p.State())
	}
	// Clear any stale cancellation from a previous run.
	p.stop.Store(false)
	p.metrics.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
	defer func() {
		cancel()
		p.mu.Lock()
		p.cancel = nil
		p.mu.Unlock()
	}()

	run := &report.RunResult{
		RunID:     uuid.NewString(),
		Script:    script.Name,
		StartTime: time.Now(),
	}
	logger.Info("playback start: %s (%d actions)", script.Name, len(script.Actions))

	st := &runState{run: run}
	i := 0
	for i < len(script.Actions) {
		a := script.Actions[i]

		if !p.sleepInterruptible(p.actionDelay(a)) {
			break
		}

		next := p.dispatch(ctx, a, script.Actions, i, st)
		if p.stopRequested() {
			break
		}
		if next > i {
			i = next
			continue
		}
		i++
	}

	cancelled := p.stopRequested()
	run.Cancelled = cancelled
	run.Duration = time.Since(run.StartTime)
	run.ComputeSummary()
	run.Summary.Timestamp = time.Now()

	if cancelled {
		p.state.Store(int32(StateStopped))
		logger.Info("playback stopped: %s", script.Name)
	} else {
		p.state.Store(int32(StateCompleted))
		logger.Info("playback complete: %s -> %s", script.Name, run.Summary.Status)
	}
	if run.Summary.Status == report.StatusWarn {
		logger.Warn("playback summary [%s]: no validations executed", script.Name)
	}
	return run, nil
}

// runState carries per-run counters across action handlers.
type runState struct {
	run     *report.RunResult
	shotIdx int
}

// dispatch executes one action. A return value greater than idx moves the
// cursor (consecutive mouse_move merging); otherwise the loop advances by
// one.
func (p *Player) dispatch(ctx context.Context, a action.Action, all []action.Action, idx int, st *runState) int {
	switch a.Type {
	case action.TypeClick:
		p.playClick(ctx, a)
	case action.TypeMouseDown:
		p.playMouseDown(a)
	case action.TypeMouseMove:
		return p.playMouseMove(a, all, idx)
	case action.TypeMouseUp:
		p.playMouseUp(a)
	case action.TypeDrag:
		p.playDrag(a)
	case action.TypeScroll:
		p.playScroll(a)
	case action.TypeKey:
		p.playKey(a)
	case action.TypeHotkey:
		p.playHotkey(a)
	case action.TypeText:
		p.playType(a)
	case action.TypeScreenshot:
		p.playScreenshot(st)
	case action.TypeAssertProperty:
		p.playAssert(ctx, a, st)
	case action.TypeExplorerOpen, action.TypeExplorerSelect:
		if p.explorer != nil {
			if err := p.explorer.Handle(a); err != nil {
				logger.Warn("explorer action failed (%s): %v", a.Type, err)
			}
		} else {
			logger.Info("explorer action skipped (%s): no file manager", a.Type)
		}
	default:
		logger.Warn("unknown action type %q at index %d", a.Type, idx)
	}
	return idx
}

// inPrimary reports whether a point is within the primary display.
// Off-screen points recorded across multi-monitor setups are dropped, not
// replayed.
func (p *Player) inPrimary(x, y int) bool {
	w, h := p.capturer.Bounds()
	return x >= 0 && y >= 0 && x < w && y < h
}
