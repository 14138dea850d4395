// Package recorder captures raw input events from a platform hook and
// turns them into a replayable action script: click/drag promotion at
// button release, text buffering, hotkey chords, screenshot baselines and
// opportunistic control identification.
package recorder

import (
	"sync"
	"time"

	"github.com/devicelab-dev/replay-runner/pkg/action"
	"github.com/devicelab-dev/replay-runner/pkg/backend"
	"github.com/devicelab-dev/replay-runner/pkg/locator"
	"github.com/devicelab-dev/replay-runner/pkg/logger"
)

const (
	// dragPromotionDistance is the Manhattan path length at which a
	// press/release pair becomes a drag instead of a click.
	dragPromotionDistance = 6

	// maxRecordedPathPoints bounds stored drag paths.
	maxRecordedPathPoints = 240

	// maxRecordedDelay clamps inter-action gaps so a coffee break does not
	// become part of the script.
	maxRecordedDelay = 10 * time.Second

	// ancestorWalkDepth bounds the climb from a leaf element towards a
	// node with a usable automation id.
	ancestorWalkDepth = 8

	// doubleClickWindow promotes two explorer clicks into one navigation.
	doubleClickWindow = 450 * time.Millisecond
)

// explorerClasses are window classes of the system file manager.
var explorerClasses = map[string]bool{
	"CabinetWClass":  true,
	"ExploreWClass":  true,
	"ExplorerWClass": true,
}

// Config carries the recording settings.
type Config struct {
	ScriptsDir string
	ImagesDir  string

	// ScreenshotKey and StopKey are consumed by the recorder instead of
	// being recorded. Defaults are "p" and "f".
	ScreenshotKey string
	StopKey       string

	UseAutomationIDs bool
	TaskbarCropPx    int

	// OwnWindows lists native handles of the recorder's own UI; clicks
	// landing in them are dropped from the script.
	OwnWindows []uintptr
}

func (c Config) withDefaults() Config {
	if c.ScreenshotKey == "" {
		c.ScreenshotKey = "p"
	}
	if c.StopKey == "" {
		c.StopKey = "f"
	}
	return c
}

// pendingPress is a button press awaiting its release.
type pendingPress struct {
	button string
	path   []action.Point
	delay  float64
}

// explorerClick remembers the previous file-manager click so a fast
// second click promotes the pair into one navigation action.
type explorerClick struct {
	handle    uintptr
	at        time.Time
	actionIdx int
}

// Recorder converts an event stream into a script. One recording session
// per instance.
type Recorder struct {
	config   Config
	source   EventSource
	session  backend.Session
	synth    backend.Synthesizer
	capturer backend.Capturer
	fm       backend.FileManager

	mu        sync.Mutex
	script    *action.Script
	lastEvent time.Time
	mods      map[string]bool
	textBuf   []rune
	textDelay float64
	pending   *pendingPress
	shotIdx   int
	lastExp   *explorerClick

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a recorder. session, synth and fm may be nil; the recorder
// then skips control identification, pointer parking and file-manager
// promotion respectively.
func New(cfg Config, source EventSource, session backend.Session,
	synth backend.Synthesizer, capturer backend.Capturer, fm backend.FileManager) *Recorder {
	return &Recorder{
		config:   cfg.withDefaults(),
		source:   source,
		session:  session,
		synth:    synth,
		capturer: capturer,
		fm:       fm,
		mods:     make(map[string]bool),
		done:     make(chan struct{}),
	}
}

// Start begins recording into a script with the given hierarchical name.
func (r *Recorder) Start(scriptName string) {
	r.mu.Lock()
	r.script = &action.Script{Name: scriptName}
	r.lastEvent = time.Now()
	r.mu.Unlock()
	logger.Info("recording start: %s", scriptName)

	r.wg.Add(2)
	go r.pointerLoop()
	go r.keyLoop()
}

// Done is closed when the stop key is pressed.
func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

// Stop ends the recording, flushes any buffered text and writes the
// script file. Safe to call after the stop key fired.
func (r *Recorder) Stop() (*action.Script, error) {
	r.stopOnce.Do(func() { close(r.done) })
	if err := r.source.Close(); err != nil {
		logger.Warn("event source close: %v", err)
	}
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushTextLocked()
	script := r.script
	if script == nil {
		return nil, backend.ErrInvalidScript.WithMessage("recording never started")
	}
	if err := script.Save(r.config.ScriptsDir); err != nil {
		return nil, err
	}
	logger.Info("recording saved: %s (%d actions)", script.Name, len(script.Actions))
	return script, nil
}

func (r *Recorder) pointerLoop() {
	defer r.wg.Done()
	for ev := range r.source.Pointer() {
		r.handlePointer(ev)
	}
}

func (r *Recorder) keyLoop() {
	defer r.wg.Done()
	for ev := range r.source.Keys() {
		r.handleKey(ev)
	}
}

// delaySinceLocked returns the clamped gap since the previous event in
// seconds, rounded to the millisecond, and advances the clock.
func (r *Recorder) delaySinceLocked(now time.Time) float64 {
	d := now.Sub(r.lastEvent)
	r.lastEvent = now
	if d < 0 {
		d = 0
	}
	if d > maxRecordedDelay {
		d = maxRecordedDelay
	}
	return d.Round(time.Millisecond).Seconds()
}

func (r *Recorder) appendLocked(a action.Action) {
	r.script.Actions = append(r.script.Actions, a)
}

func (r *Recorder) handlePointer(ev PointerEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case PointerMove:
		if r.pending == nil {
			return
		}
		pt := action.Point{X: ev.X, Y: ev.Y}
		path := r.pending.path
		if len(path) == 0 || path[len(path)-1] != pt {
			r.pending.path = append(path, pt)
		}

	case PointerButton:
		if ev.Pressed {
			r.flushTextLocked()
			if !r.inPrimaryLocked(ev.X, ev.Y) {
				return
			}
			r.pending = &pendingPress{
				button: ev.Button,
				path:   []action.Point{{X: ev.X, Y: ev.Y}},
				delay:  r.delaySinceLocked(time.Now()),
			}
			return
		}
		if r.pending == nil {
			return
		}
		press := r.pending
		r.pending = nil
		r.finishPressLocked(press, ev.X, ev.Y)

	case PointerWheel:
		r.flushTextLocked()
		if !r.inPrimaryLocked(ev.X, ev.Y) {
			return
		}
		a := action.Scroll(ev.X, ev.Y, ev.DX, ev.DY).WithDelay(r.delaySinceLocked(time.Now()))
		r.appendLocked(a)
	}
}

// finishPressLocked decides click versus drag at release time: a path
// whose Manhattan length reaches the promotion threshold is a drag,
// anything shorter collapses to a click at the release position.
func (r *Recorder) finishPressLocked(press *pendingPress, rx, ry int) {
	path := press.path
	end := action.Point{X: rx, Y: ry}
	if len(path) == 0 || path[len(path)-1] != end {
		path = append(path, end)
	}

	if action.PathDistance(path) >= dragPromotionDistance {
		a := action.Drag(action.DownsamplePath(path, maxRecordedPathPoints), press.button)
		a.Delay = press.delay
		r.appendLocked(a)
		return
	}

	autoID, controlType, el := r.identifyLocked(rx, ry)
	if el != nil && r.isOwnWindow(el.Info().WindowHandle) {
		logger.Debug("click at (%d,%d) in recorder window, dropped", rx, ry)
		return
	}
	if el != nil && r.handleExplorerClickLocked(el, rx, ry, press) {
		return
	}

	a := action.Click(rx, ry, press.button)
	a.Delay = press.delay
	a.AutoID = autoID
	a.ControlType = controlType
	r.appendLocked(a)

	if autoID != "" && el != nil {
		r.synthesizeAssertionLocked(autoID, el)
	}
}

// identifyLocked finds a usable automation id for the element under the
// pointer, climbing a bounded number of ancestors past container nodes
// with generic ids.
func (r *Recorder) identifyLocked(x, y int) (autoID, controlType string, el backend.Element) {
	if r.session == nil || !r.config.UseAutomationIDs {
		return "", "", nil
	}
	node, err := r.session.FromPoint(x, y)
	if err != nil {
		logger.Debug("element from point (%d,%d): %v", x, y, err)
		return "", "", nil
	}
	el = node
	for depth := 0; node != nil && depth < ancestorWalkDepth; depth++ {
		info := node.Info()
		if !locator.IsGenericID(info.AutomationID) {
			return info.AutomationID, info.ControlType, node
		}
		node = node.Parent()
	}
	return "", "", el
}

func (r *Recorder) isOwnWindow(handle uintptr) bool {
	for _, h := range r.config.OwnWindows {
		if h != 0 && h == handle {
			return true
		}
	}
	return false
}

// synthesizeAssertionLocked records a property assertion snapshotting the
// clicked control's current value, preferring the value variant over the
// displayed text. Back-to-back identical assertions are dropped.
func (r *Recorder) synthesizeAssertionLocked(autoID string, el backend.Element) {
	ctrl := el.Control()
	if ctrl == nil {
		return
	}
	property := "value"
	val, err := ctrl.Property(backend.PropertyValue, "")
	if err != nil || val == "" {
		property = "name"
		val, err = ctrl.Property(backend.PropertyText, "")
		if err != nil || val == "" {
			return
		}
	}

	a := action.AssertProperty(autoID, property, val)
	if last := r.lastAssertionLocked(); last != nil &&
		last.AutoID == a.AutoID && last.Property == a.Property && last.Expected == a.Expected {
		return
	}
	r.appendLocked(a)
}

func (r *Recorder) lastAssertionLocked() *action.Action {
	for i := len(r.script.Actions) - 1; i >= 0; i-- {
		a := &r.script.Actions[i]
		if a.Type == action.TypeAssertProperty {
			return a
		}
		if a.Type != action.TypeClick {
			break
		}
	}
	return nil
}

// handleExplorerClickLocked records clicks landing in a file-manager
// window as explorer actions. A second click on the same window within
// the double-click window replaces the pending selection with one
// navigation to the window's current location.
func (r *Recorder) handleExplorerClickLocked(el backend.Element, rx, ry int, press *pendingPress) bool {
	info := el.Info()
	if r.fm == nil || !explorerClasses[info.WindowClass] {
		return false
	}
	now := time.Now()

	if r.lastExp != nil && r.lastExp.handle == info.WindowHandle &&
		now.Sub(r.lastExp.at) <= doubleClickWindow {
		loc, err := r.fm.LocationOf(info.WindowHandle)
		if err != nil {
			logger.Warn("explorer location lookup: %v", err)
			r.lastExp = nil
			return false
		}
		// Rewind the first click of the pair.
		r.script.Actions = r.script.Actions[:r.lastExp.actionIdx]
		r.appendLocked(action.Action{
			Type:     action.TypeExplorerOpen,
			Delay:    press.delay,
			Explorer: &action.ExplorerPayload{Path: loc},
		})
		r.lastExp = nil
		return true
	}

	idx := len(r.script.Actions)
	if name := info.Name; name != "" {
		r.appendLocked(action.Action{
			Type:     action.TypeExplorerSelect,
			Delay:    press.delay,
			Explorer: &action.ExplorerPayload{Items: []string{name}},
		})
	} else {
		a := action.Click(rx, ry, press.button)
		a.Delay = press.delay
		r.appendLocked(a)
	}
	r.lastExp = &explorerClick{handle: info.WindowHandle, at: now, actionIdx: idx}
	return true
}

func (r *Recorder) inPrimaryLocked(x, y int) bool {
	if r.capturer == nil {
		return true
	}
	w, h := r.capturer.Bounds()
	return x >= 0 && y >= 0 && x < w && y < h
}
