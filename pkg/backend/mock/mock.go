// Package mock provides in-memory backend implementations for testing the
// engines without a desktop session.
package mock

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/devicelab-dev/replay-runner/pkg/backend"
)

// Control is a scriptable backend.Control.
type Control struct {
	ID          string
	Properties  map[backend.PropertyKind]string
	Generic     map[string]string
	InvokeErr   error
	InvokeCount int
	mu          sync.Mutex
}

// NewControl creates a control with a text property.
func NewControl(id, text string) *Control {
	return &Control{
		ID:         id,
		Properties: map[backend.PropertyKind]string{backend.PropertyText: text},
		Generic:    map[string]string{},
	}
}

// SetProperty sets a property variant value.
func (c *Control) SetProperty(kind backend.PropertyKind, value string) *Control {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Properties == nil {
		c.Properties = map[backend.PropertyKind]string{}
	}
	c.Properties[kind] = value
	return c
}

// Invoke records the activation.
func (c *Control) Invoke() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.InvokeCount++
	return c.InvokeErr
}

// Property reads a property variant.
func (c *Control) Property(kind backend.PropertyKind, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if kind == backend.PropertyGeneric {
		if v, ok := c.Generic[name]; ok {
			return v, nil
		}
		return "", backend.ErrPropertyUnsupported
	}
	if v, ok := c.Properties[kind]; ok {
		return v, nil
	}
	return "", backend.ErrPropertyUnsupported
}

// Invoked returns the number of activations.
func (c *Control) Invoked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.InvokeCount
}

// Element is a scriptable accessibility-tree node.
type Element struct {
	Meta backend.ElementInfo
	Up   *Element
	Ctrl *Control
}

// Info returns the element metadata.
func (e *Element) Info() backend.ElementInfo { return e.Meta }

// Parent returns the parent node or nil at the root.
func (e *Element) Parent() backend.Element {
	if e.Up == nil {
		return nil
	}
	return e.Up
}

// Control adapts the element for property reads.
func (e *Element) Control() backend.Control {
	if e.Ctrl == nil {
		e.Ctrl = NewControl(e.Meta.AutomationID, e.Meta.Name)
	}
	return e.Ctrl
}

// Session is a scriptable backend.Session.
type Session struct {
	mu       sync.Mutex
	controls map[string]*Control
	// AppearAfter delays visibility of a control by N FindControl calls,
	// simulating a UI transition the tree has not caught up with yet.
	AppearAfter map[string]int
	findCalls   map[string]int
	points      map[[2]int]*Element
	FindErr     error
	closed      bool
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{
		controls:    map[string]*Control{},
		AppearAfter: map[string]int{},
		findCalls:   map[string]int{},
		points:      map[[2]int]*Element{},
	}
}

// AddControl registers a control under its automation id.
func (s *Session) AddControl(c *Control) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls[c.ID] = c
	return s
}

// AtPoint registers the element returned by FromPoint for a coordinate.
func (s *Session) AtPoint(x, y int, e *Element) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[[2]int{x, y}] = e
	return s
}

// FindControl looks up a registered control.
func (s *Session) FindControl(ctx context.Context, q backend.Query) (backend.Control, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	s.findCalls[q.AutomationID]++
	if after, ok := s.AppearAfter[q.AutomationID]; ok && s.findCalls[q.AutomationID] <= after {
		return nil, backend.ErrControlNotFound
	}
	c, ok := s.controls[q.AutomationID]
	if !ok {
		return nil, backend.ErrControlNotFound
	}
	return c, nil
}

// FindCalls returns how often an id was queried.
func (s *Session) FindCalls(autoID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findCalls[autoID]
}

// FromPoint returns the registered element for a coordinate.
func (s *Session) FromPoint(x, y int) (backend.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.points[[2]int{x, y}]
	if !ok {
		return nil, backend.ErrControlNotFound
	}
	return e, nil
}

// Close marks the session closed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Synthesizer records every synthesized input event.
type Synthesizer struct {
	mu   sync.Mutex
	ops  []string
	x, y int
	Err  error
}

// NewSynthesizer creates an empty synthesizer.
func NewSynthesizer() *Synthesizer { return &Synthesizer{} }

func (s *Synthesizer) record(format string, args ...interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, fmt.Sprintf(format, args...))
	return s.Err
}

// Click records a click and moves the pointer.
func (s *Synthesizer) Click(x, y int, button backend.Button) error {
	s.setPos(x, y)
	return s.record("click(%d,%d,%s)", x, y, button)
}

// MouseDown records a button press.
func (s *Synthesizer) MouseDown(x, y int, button backend.Button) error {
	s.setPos(x, y)
	return s.record("down(%d,%d,%s)", x, y, button)
}

// MouseUp records a button release.
func (s *Synthesizer) MouseUp(x, y int, button backend.Button) error {
	s.setPos(x, y)
	return s.record("up(%d,%d,%s)", x, y, button)
}

// MoveTo records a pointer move.
func (s *Synthesizer) MoveTo(x, y int) error {
	s.setPos(x, y)
	return s.record("move(%d,%d)", x, y)
}

// Scroll records a scroll.
func (s *Synthesizer) Scroll(x, y, dx, dy int) error {
	return s.record("scroll(%d,%d,%d,%d)", x, y, dx, dy)
}

// KeyTap records a key tap.
func (s *Synthesizer) KeyTap(key string) error { return s.record("tap(%s)", key) }

// KeyDown records a key press.
func (s *Synthesizer) KeyDown(key string) error { return s.record("keydown(%s)", key) }

// KeyUp records a key release.
func (s *Synthesizer) KeyUp(key string) error { return s.record("keyup(%s)", key) }

// TypeText records typed text.
func (s *Synthesizer) TypeText(text string) error { return s.record("type(%s)", text) }

func (s *Synthesizer) setPos(x, y int) {
	s.mu.Lock()
	s.x, s.y = x, y
	s.mu.Unlock()
}

// Position returns the last pointer location.
func (s *Synthesizer) Position() (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.x, s.y, nil
}

// Ops returns a copy of the recorded operation log.
func (s *Synthesizer) Ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ops))
	copy(out, s.ops)
	return out
}

// Capturer serves a fixed or generated frame as the primary display.
type Capturer struct {
	Width  int
	Height int
	// Frame overrides the generated solid image when set.
	Frame image.Image
	Fill  color.RGBA
}

// NewCapturer creates a capturer with a solid background.
func NewCapturer(w, h int, fill color.RGBA) *Capturer {
	return &Capturer{Width: w, Height: h, Fill: fill}
}

// Capture returns the current frame.
func (c *Capturer) Capture() (image.Image, error) {
	if c.Frame != nil {
		return c.Frame, nil
	}
	img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			img.SetRGBA(x, y, c.Fill)
		}
	}
	return img, nil
}

// Bounds returns the display size.
func (c *Capturer) Bounds() (int, int) { return c.Width, c.Height }

// FileManager records explorer operations.
type FileManager struct {
	mu        sync.Mutex
	ops       []string
	Locations map[uintptr]string
}

// NewFileManager creates an empty file manager.
func NewFileManager() *FileManager {
	return &FileManager{Locations: map[uintptr]string{}}
}

// Open records an open.
func (f *FileManager) Open(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "open:"+path)
	return nil
}

// Select records a selection.
func (f *FileManager) Select(path string, items []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, fmt.Sprintf("select:%s:%v", path, items))
	return nil
}

// LocationOf resolves a registered window location.
func (f *FileManager) LocationOf(handle uintptr) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loc, ok := f.Locations[handle]
	if !ok {
		return "", backend.ErrWindowNotFound
	}
	return loc, nil
}

// Ops returns a copy of the recorded operations.
func (f *FileManager) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.ops))
	copy(out, f.ops)
	return out
}
