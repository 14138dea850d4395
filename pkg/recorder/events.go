package recorder

// PointerEventKind discriminates pointer events.
type PointerEventKind int

// Pointer event kinds.
const (
	PointerMove PointerEventKind = iota
	PointerButton
	PointerWheel
)

// PointerEvent is one raw pointer event from the platform hook.
type PointerEvent struct {
	Kind   PointerEventKind
	X, Y   int
	Button string // set for PointerButton
	// Pressed is true on button down, false on release.
	Pressed bool
	// Wheel deltas, set for PointerWheel.
	DX, DY int
}

// KeyEvent is one raw keyboard event from the platform hook.
type KeyEvent struct {
	// Key is the normalized key name ("a", "enter", "ctrl", "f1").
	Key string
	// Char is the produced character, zero for non-printing keys.
	Char rune
	// Pressed is true on key down, false on release.
	Pressed bool
}

// EventSource delivers raw input events from a platform hook. Channels
// close when the source is closed; the recorder drains both on its own
// goroutines.
type EventSource interface {
	Pointer() <-chan PointerEvent
	Keys() <-chan KeyEvent
	Close() error
}
