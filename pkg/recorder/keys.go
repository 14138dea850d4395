package recorder

import (
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"time"
	"unicode"

	"github.com/devicelab-dev/replay-runner/pkg/action"
	"github.com/devicelab-dev/replay-runner/pkg/imgdiff"
	"github.com/devicelab-dev/replay-runner/pkg/logger"
)

// modifierKeys normalizes the hook's modifier names onto canonical ones.
var modifierKeys = map[string]string{
	"ctrl": "ctrl", "lctrl": "ctrl", "rctrl": "ctrl", "control": "ctrl",
	"alt": "alt", "lalt": "alt", "ralt": "alt",
	"shift": "shift", "lshift": "shift", "rshift": "shift",
	"win": "win", "lwin": "win", "rwin": "win", "cmd": "win",
}

// chordOrder fixes the serialized modifier order inside hotkeys.
var chordOrder = []string{"ctrl", "alt", "shift", "win"}

func (r *Recorder) handleKey(ev KeyEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if mod, ok := modifierKeys[ev.Key]; ok {
		r.mods[mod] = ev.Pressed
		return
	}
	if !ev.Pressed {
		return
	}

	// Shift participates in character production; only the chord
	// modifiers turn a press into a hotkey.
	if r.mods["ctrl"] || r.mods["alt"] || r.mods["win"] {
		r.flushTextLocked()
		keys := make([]string, 0, 4)
		for _, m := range chordOrder {
			if r.mods[m] {
				keys = append(keys, m)
			}
		}
		keys = append(keys, ev.Key)
		a := action.Hotkey(keys...).WithDelay(r.delaySinceLocked(time.Now()))
		r.appendLocked(a)
		return
	}

	switch ev.Key {
	case r.config.ScreenshotKey:
		r.flushTextLocked()
		r.takeScreenshotLocked()
		return
	case r.config.StopKey:
		r.flushTextLocked()
		r.stopOnce.Do(func() { close(r.done) })
		return
	}

	switch {
	case ev.Key == "enter":
		r.flushTextLocked()
		a := action.KeyPress("enter").WithDelay(r.delaySinceLocked(time.Now()))
		r.appendLocked(a)
	case ev.Key == "backspace" && len(r.textBuf) > 0:
		r.textBuf = r.textBuf[:len(r.textBuf)-1]
	case ev.Char != 0 && unicode.IsPrint(ev.Char):
		if len(r.textBuf) == 0 {
			r.textDelay = r.delaySinceLocked(time.Now())
		} else {
			r.delaySinceLocked(time.Now())
		}
		r.textBuf = append(r.textBuf, ev.Char)
	default:
		r.flushTextLocked()
		a := action.KeyPress(ev.Key).WithDelay(r.delaySinceLocked(time.Now()))
		r.appendLocked(a)
	}
}

// flushTextLocked commits buffered printable characters as one type
// action. The delay is the gap before the first character.
func (r *Recorder) flushTextLocked() {
	if len(r.textBuf) == 0 {
		return
	}
	a := action.TypeInput(string(r.textBuf)).WithDelay(r.textDelay)
	r.appendLocked(a)
	r.textBuf = nil
	r.textDelay = 0
}

// takeScreenshotLocked captures a cropped baseline image and records the
// checkpoint referencing it.
func (r *Recorder) takeScreenshotLocked() {
	if r.capturer == nil {
		logger.Warn("screenshot requested but no capturer wired")
		return
	}
	delay := r.delaySinceLocked(time.Now())

	var px, py int
	parked := false
	if r.synth != nil {
		if x, y, err := r.synth.Position(); err == nil {
			px, py = x, y
			w, h := r.capturer.Bounds()
			if err := r.synth.MoveTo(w-5, h-5); err == nil {
				parked = true
			}
		}
	}
	img, err := r.capturer.Capture()
	if parked {
		if err := r.synth.MoveTo(px, py); err != nil {
			logger.Debug("pointer restore failed: %v", err)
		}
	}
	if err != nil {
		logger.Warn("baseline capture failed: %v", err)
		return
	}
	img = cropBottom(img, r.config.TaskbarCropPx)

	dir := filepath.Join(r.config.ImagesDir, r.script.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("baseline dir: %v", err)
		return
	}
	name := action.ImageName(0, r.shotIdx, action.KindOriginal)
	if err := imgdiff.SavePNG(filepath.Join(dir, name), img); err != nil {
		logger.Warn("baseline save failed: %v", err)
		return
	}
	r.shotIdx++

	a := action.ScreenshotCheckpoint(name).WithDelay(delay)
	r.appendLocked(a)
	logger.Info("baseline captured: %s", name)
}

// cropBottom removes px rows from the bottom of the image.
func cropBottom(img image.Image, px int) image.Image {
	b := img.Bounds()
	h := b.Dy() - px
	if px <= 0 || h <= 0 {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), h))
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)
	return out
}
