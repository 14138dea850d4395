// Package backend defines the contracts between the replay engines and the
// host automation substrate: the accessibility-tree session, raw input
// synthesis, screen capture and the file manager.
//
// Implementations are platform specific and live out of tree; the mock
// sub-package covers tests.
package backend

import (
	"context"
	"image"
)

// Button identifies a pointer button.
type Button string

// Pointer buttons.
const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// ParseButton maps a recorded button name to a Button, defaulting to left.
func ParseButton(name string) Button {
	switch Button(name) {
	case ButtonRight:
		return ButtonRight
	case ButtonMiddle:
		return ButtonMiddle
	default:
		return ButtonLeft
	}
}

// Query narrows an accessibility-tree search.
type Query struct {
	AutomationID string
	ControlType  string // optional
}

// WindowSpec describes the top-level window a session attaches to.
type WindowSpec struct {
	TitlePattern string // regex matched against window titles
	ClassName    string
}

// ElementInfo is the metadata exposed by one accessibility-tree element.
type ElementInfo struct {
	AutomationID string
	ControlType  string
	Name         string
	WindowClass  string
	WindowHandle uintptr
}

// Element is a node in the accessibility tree, walkable towards the root.
type Element interface {
	Info() ElementInfo
	// Parent returns nil at the tree root.
	Parent() Element
	// Control adapts the element for activation and property reads.
	Control() Control
}

// Control is a resolved, live UI element.
type Control interface {
	// Invoke performs the control's default activation (click).
	Invoke() error
	// Property reads one property variant. name is only consulted for
	// PropertyGeneric.
	Property(kind PropertyKind, name string) (string, error)
}

// Session is an attach to the target window's accessibility tree. Sessions
// are owned explicitly by their resolver and re-acquired via Invalidate,
// never cached globally.
type Session interface {
	// FindControl locates a control by query. Returns ErrControlNotFound
	// when the tree has no match right now; callers retry until their
	// deadline because the tree may lag a just-triggered transition.
	FindControl(ctx context.Context, q Query) (Control, error)
	// FromPoint returns the deepest element under a screen coordinate.
	FromPoint(x, y int) (Element, error)
	Close() error
}

// SessionFactory attaches a fresh session to the target window.
type SessionFactory func(spec WindowSpec) (Session, error)

// Synthesizer dispatches raw input events to the desktop.
type Synthesizer interface {
	Click(x, y int, button Button) error
	MouseDown(x, y int, button Button) error
	MouseUp(x, y int, button Button) error
	MoveTo(x, y int) error
	Scroll(x, y, dx, dy int) error
	KeyTap(key string) error
	KeyDown(key string) error
	KeyUp(key string) error
	TypeText(text string) error
	// Position reports the current pointer location.
	Position() (x, y int, err error)
}

// Capturer captures the primary display.
type Capturer interface {
	Capture() (image.Image, error)
	// Bounds returns the primary display size in pixels.
	Bounds() (width, height int)
}

// FileManager drives the OS file-manager for explorer.* actions.
type FileManager interface {
	Open(path string) error
	Select(path string, items []string) error
	// LocationOf resolves the directory shown by a file-manager window.
	LocationOf(windowHandle uintptr) (string, error)
}
