package recorder

import "sync"

// ChanSource is a channel-backed EventSource for backends that push
// events from native hook callbacks, and for tests.
type ChanSource struct {
	pointer   chan PointerEvent
	keys      chan KeyEvent
	closeOnce sync.Once
}

// NewChanSource creates a source with the given channel buffer size.
func NewChanSource(buffer int) *ChanSource {
	return &ChanSource{
		pointer: make(chan PointerEvent, buffer),
		keys:    make(chan KeyEvent, buffer),
	}
}

// EmitPointer delivers one pointer event. Must not be called after Close.
func (s *ChanSource) EmitPointer(ev PointerEvent) {
	s.pointer <- ev
}

// EmitKey delivers one keyboard event. Must not be called after Close.
func (s *ChanSource) EmitKey(ev KeyEvent) {
	s.keys <- ev
}

// Pointer implements EventSource.
func (s *ChanSource) Pointer() <-chan PointerEvent { return s.pointer }

// Keys implements EventSource.
func (s *ChanSource) Keys() <-chan KeyEvent { return s.keys }

// Close stops delivery. Safe to call multiple times.
func (s *ChanSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.pointer)
		close(s.keys)
	})
	return nil
}
