// Package action defines the recorded interaction model and script files.
package action

// Type is the discriminant of a recorded action.
type Type string

// Action type constants.
const (
	// Pointer
	TypeClick     Type = "click"
	TypeMouseDown Type = "mouse_down"
	TypeMouseMove Type = "mouse_move"
	TypeMouseUp   Type = "mouse_up"
	TypeDrag      Type = "drag"
	TypeScroll    Type = "scroll"

	// Keyboard
	TypeKey    Type = "key"
	TypeHotkey Type = "hotkey"
	TypeText   Type = "type"

	// Checkpoints
	TypeScreenshot     Type = "screenshot"
	TypeAssertProperty Type = "assert.property"

	// File manager
	TypeExplorerOpen   Type = "explorer.open"
	TypeExplorerSelect Type = "explorer.select"
)

// Known returns true for action types the player understands.
func (t Type) Known() bool {
	switch t {
	case TypeClick, TypeMouseDown, TypeMouseMove, TypeMouseUp, TypeDrag,
		TypeScroll, TypeKey, TypeHotkey, TypeText, TypeScreenshot,
		TypeAssertProperty, TypeExplorerOpen, TypeExplorerSelect:
		return true
	}
	return false
}

// IsExplorer reports whether the type is a file-manager action.
func (t Type) IsExplorer() bool {
	return t == TypeExplorerOpen || t == TypeExplorerSelect
}

// ExplorerPayload carries file-manager action details.
type ExplorerPayload struct {
	Path  string   `json:"path,omitempty"`
	Items []string `json:"items,omitempty"`
}

// Action is one recorded interaction. Fields are interpreted per Type;
// unused fields stay absent in JSON so scripts remain compact and diffable.
// Coordinates use pointers because (0,0) is a valid screen position.
type Action struct {
	Type Type `json:"action_type"`

	X      *int   `json:"x,omitempty"`
	Y      *int   `json:"y,omitempty"`
	Button string `json:"button,omitempty"`

	// Drag path in recording order, down-sampled at capture time.
	Path []Point `json:"path,omitempty"`

	ScrollDX int `json:"scroll_dx,omitempty"`
	ScrollDY int `json:"scroll_dy,omitempty"`

	Key  string   `json:"key,omitempty"`
	Keys []string `json:"keys,omitempty"`
	Text string   `json:"text,omitempty"`

	// Screenshot holds the baseline image name for screenshot checkpoints.
	Screenshot string `json:"screenshot,omitempty"`

	// Seconds elapsed since the previous action at capture time.
	Delay float64 `json:"delay,omitempty"`

	// Identity hints captured opportunistically during recording.
	AutoID      string `json:"auto_id,omitempty"`
	ControlType string `json:"control_type,omitempty"`

	// Property assertion fields.
	Property string `json:"property_name,omitempty"`
	Expected string `json:"expected,omitempty"`
	Compare  string `json:"compare,omitempty"`

	Explorer *ExplorerPayload `json:"explorer,omitempty"`
}

// At sets the action coordinates and returns the action for chaining.
func (a Action) At(x, y int) Action {
	a.X = &x
	a.Y = &y
	return a
}

// Pos returns the action coordinates, ok=false when either is absent.
func (a *Action) Pos() (x, y int, ok bool) {
	if a.X == nil || a.Y == nil {
		return 0, 0, false
	}
	return *a.X, *a.Y, true
}

// WithDelay sets the recorded delay and returns the action for chaining.
func (a Action) WithDelay(seconds float64) Action {
	a.Delay = seconds
	return a
}

// Click builds a click action at the given coordinates.
func Click(x, y int, button string) Action {
	return Action{Type: TypeClick, Button: button}.At(x, y)
}

// MouseDown builds a button-press action.
func MouseDown(x, y int, button string) Action {
	return Action{Type: TypeMouseDown, Button: button}.At(x, y)
}

// MouseUp builds a button-release action.
func MouseUp(x, y int, button string) Action {
	return Action{Type: TypeMouseUp, Button: button}.At(x, y)
}

// Drag builds a drag action ending at the last path point.
func Drag(path []Point, button string) Action {
	a := Action{Type: TypeDrag, Button: button, Path: path}
	if len(path) > 0 {
		last := path[len(path)-1]
		a = a.At(last.X, last.Y)
	}
	return a
}

// Scroll builds a scroll action at the given pointer position.
func Scroll(x, y, dx, dy int) Action {
	return Action{Type: TypeScroll, ScrollDX: dx, ScrollDY: dy}.At(x, y)
}

// KeyPress builds a single key action.
func KeyPress(key string) Action {
	return Action{Type: TypeKey, Key: key}
}

// Hotkey builds a modifier-chord action. The last key is the primary key.
func Hotkey(keys ...string) Action {
	return Action{Type: TypeHotkey, Keys: keys}
}

// TypeInput builds a free-text typing action.
func TypeInput(text string) Action {
	return Action{Type: TypeText, Text: text}
}

// ScreenshotCheckpoint builds a screenshot checkpoint referencing a baseline image.
func ScreenshotCheckpoint(baselineName string) Action {
	return Action{Type: TypeScreenshot, Screenshot: baselineName}
}

// AssertProperty builds a property assertion on a control.
func AssertProperty(autoID, property, expected string) Action {
	return Action{
		Type:     TypeAssertProperty,
		AutoID:   autoID,
		Property: property,
		Expected: expected,
		Compare:  "equals",
	}
}
