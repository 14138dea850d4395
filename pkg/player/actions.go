package player

import (
	"context"
	"errors"
	"time"

	"github.com/devicelab-dev/replay-runner/pkg/action"
	"github.com/devicelab-dev/replay-runner/pkg/backend"
	"github.com/devicelab-dev/replay-runner/pkg/logger"
	"github.com/devicelab-dev/replay-runner/pkg/resolve"
)

// maxReplayPathPoints bounds synthesized drag paths so long recordings
// replay in bounded time.
const maxReplayPathPoints = 120

// hotkeySettle separates modifier transitions so the target application
// observes them in order.
const hotkeySettle = 25 * time.Millisecond

// actionDelay computes the pre-action wait. Drag sub-actions replay at a
// tenth of their recorded spacing; scrolls default to zero so bursts stay
// bursts.
func (p *Player) actionDelay(a action.Action) time.Duration {
	def := p.config.DefaultDelay
	isDrag := a.Type == action.TypeMouseDown || a.Type == action.TypeMouseMove || a.Type == action.TypeMouseUp
	isScroll := a.Type == action.TypeScroll

	var d time.Duration
	switch {
	case p.config.UseDefaultDelayAlways && !isDrag && !isScroll:
		d = def
	case a.Delay > 0:
		d = time.Duration(a.Delay * float64(time.Second))
	case isScroll:
		d = 0
	case isDrag && p.config.UseDefaultDelayAlways:
		d = 10 * time.Millisecond
	default:
		d = def
	}
	if d < 0 {
		d = 0
	}
	if isDrag {
		d /= 10
	}
	return d
}

func (p *Player) playClick(ctx context.Context, a action.Action) {
	x, y, ok := a.Pos()
	if !ok {
		logger.Warn("click without coordinates, skipped")
		return
	}
	if !p.inPrimary(x, y) {
		logger.Info("click at (%d,%d) outside primary display, skipped", x, y)
		return
	}
	button := a.Button
	if button == "" {
		button = string(backend.ButtonLeft)
	}

	if a.AutoID != "" {
		ref := resolve.Reference{AutomationID: a.AutoID, ControlType: a.ControlType}
		res, err := p.resolver.Resolve(ctx, ref)
		if err == nil {
			if invokeErr := res.Control.Invoke(); invokeErr == nil {
				p.metrics.NoteClick(string(res.Mode), a.AutoID, x, y)
				time.Sleep(5 * time.Millisecond)
				return
			}
			logger.Warn("invoke failed for %q, falling back to coordinates", a.AutoID)
		} else if !errors.Is(err, resolve.ErrCoordinateFallback) {
			logger.Warn("resolution error for %q: %v", a.AutoID, err)
		}
	}

	if err := p.synth.Click(x, y, backend.Button(button)); err != nil {
		logger.Warn("click at (%d,%d) failed: %v", x, y, err)
		return
	}
	p.metrics.NoteClick(string(resolve.ModeCoordinate), a.AutoID, x, y)
}

func (p *Player) playMouseDown(a action.Action) {
	x, y, ok := a.Pos()
	if !ok || !p.inPrimary(x, y) {
		return
	}
	if err := p.synth.MouseDown(x, y, backend.Button(a.Button)); err != nil {
		logger.Warn("mouse_down at (%d,%d) failed: %v", x, y, err)
	}
}

// playMouseMove replays a move, merging a run of consecutive moves with
// the same held button into one jump to the final position. Returns the
// index after the merged run, or idx when nothing was merged.
func (p *Player) playMouseMove(a action.Action, all []action.Action, idx int) int {
	x, y, ok := a.Pos()
	if !ok {
		return idx
	}
	j := idx
	if a.Button != "" {
		for j+1 < len(all) && all[j+1].Type == action.TypeMouseMove && all[j+1].Button == a.Button {
			j++
			if nx, ny, ok := all[j].Pos(); ok {
				x, y = nx, ny
			}
		}
	}
	if p.inPrimary(x, y) {
		if err := p.synth.MoveTo(x, y); err != nil {
			logger.Warn("mouse_move to (%d,%d) failed: %v", x, y, err)
		}
	}
	if j > idx {
		return j + 1
	}
	return idx
}

func (p *Player) playMouseUp(a action.Action) {
	x, y, ok := a.Pos()
	if !ok || !p.inPrimary(x, y) {
		return
	}
	if err := p.synth.MouseUp(x, y, backend.Button(a.Button)); err != nil {
		logger.Warn("mouse_up at (%d,%d) failed: %v", x, y, err)
	}
}

func (p *Player) playDrag(a action.Action) {
	coords := make([]action.Point, 0, len(a.Path))
	for _, pt := range a.Path {
		if p.inPrimary(pt.X, pt.Y) {
			coords = append(coords, pt)
		}
	}
	if len(coords) < 2 {
		logger.Warn("drag with %d usable path points, skipped", len(coords))
		return
	}
	coords = action.DownsamplePath(coords, maxReplayPathPoints)

	button := backend.Button(a.Button)
	start, end := coords[0], coords[len(coords)-1]
	if err := p.synth.MouseDown(start.X, start.Y, button); err != nil {
		logger.Warn("drag start at (%d,%d) failed: %v", start.X, start.Y, err)
		return
	}
	for _, pt := range coords[1:] {
		if p.stopRequested() {
			break
		}
		if err := p.synth.MoveTo(pt.X, pt.Y); err != nil {
			logger.Warn("drag move to (%d,%d) failed: %v", pt.X, pt.Y, err)
		}
	}
	if err := p.synth.MouseUp(end.X, end.Y, button); err != nil {
		logger.Warn("drag end at (%d,%d) failed: %v", end.X, end.Y, err)
	}
	p.metrics.NoteDrag(a.Button, len(coords))
}

func (p *Player) playScroll(a action.Action) {
	x, y, ok := a.Pos()
	if !ok {
		return
	}
	if !p.inPrimary(x, y) {
		logger.Info("scroll at (%d,%d) outside primary display, skipped", x, y)
		return
	}
	if cx, cy, err := p.synth.Position(); err != nil || cx != x || cy != y {
		if err := p.synth.MoveTo(x, y); err != nil {
			logger.Warn("scroll positioning failed: %v", err)
		}
	}
	if err := p.synth.Scroll(x, y, a.ScrollDX, a.ScrollDY); err != nil {
		logger.Warn("scroll at (%d,%d) failed: %v", x, y, err)
	}
}

func (p *Player) playKey(a action.Action) {
	if a.Key == "" {
		return
	}
	if err := p.synth.KeyTap(a.Key); err != nil {
		logger.Warn("key %q failed: %v", a.Key, err)
	}
}

// playHotkey presses modifiers in order, taps the final key, then
// releases the modifiers in reverse.
func (p *Player) playHotkey(a action.Action) {
	if len(a.Keys) == 0 {
		return
	}
	mods := a.Keys[:len(a.Keys)-1]
	primary := a.Keys[len(a.Keys)-1]

	for _, m := range mods {
		if err := p.synth.KeyDown(m); err != nil {
			logger.Warn("hotkey modifier %q down failed: %v", m, err)
		}
		time.Sleep(hotkeySettle)
	}
	if err := p.synth.KeyTap(primary); err != nil {
		logger.Warn("hotkey %q failed: %v", primary, err)
	}
	for i := len(mods) - 1; i >= 0; i-- {
		if err := p.synth.KeyUp(mods[i]); err != nil {
			logger.Warn("hotkey modifier %q up failed: %v", mods[i], err)
		}
		time.Sleep(hotkeySettle)
	}
}

func (p *Player) playType(a action.Action) {
	if a.Text == "" {
		return
	}
	if err := p.synth.TypeText(a.Text); err != nil {
		logger.Warn("type failed: %v", err)
	}
}
