package client

import (
	"math"

	"arena-client/internal/protocol"
)

// InputEvent is one physical input occurrence, delivered to the session's
// event loop. The surface wiring that produces these is an external
// collaborator; the session only defines how they translate to control
// signals.
type InputEvent interface {
	inputEvent()
}

// KeyDown is a movement key press.
type KeyDown struct {
	Control protocol.Control
}

// KeyUp is a movement key release.
type KeyUp struct {
	Control protocol.Control
}

// PointerDown is a pointer press at surface coordinates.
type PointerDown struct {
	X, Y float64
}

// PointerUp is a pointer release.
type PointerUp struct{}

// PointerMove is pointer motion at surface coordinates.
type PointerMove struct {
	X, Y float64
}

func (KeyDown) inputEvent()     {}
func (KeyUp) inputEvent()       {}
func (PointerDown) inputEvent() {}
func (PointerUp) inputEvent()   {}
func (PointerMove) inputEvent() {}

// handleInput runs on the session goroutine.
func (s *Session) handleInput(ev InputEvent) {
	if s.State() != StateActive {
		return
	}

	switch e := ev.(type) {
	case KeyDown:
		// Physical press only; repeat events for a held control are
		// suppressed.
		if !e.Control.Valid() || s.held[e.Control] {
			return
		}
		s.held[e.Control] = true
		s.enqueue(protocol.InputDown{Control: e.Control})

	case KeyUp:
		if !s.held[e.Control] {
			return
		}
		delete(s.held, e.Control)
		s.enqueue(protocol.InputUp{Control: e.Control})

	case PointerDown:
		// Immediate rotate at the current predicted angle, then narrow the
		// coalescing window for combat fidelity.
		s.enqueue(protocol.Rotate{Radians: s.predictedAngle})
		s.rotate.SetInterval(s.combatInterval)
		if !s.held[protocol.ControlFire] {
			s.held[protocol.ControlFire] = true
			s.enqueue(protocol.InputDown{Control: protocol.ControlFire})
		}

	case PointerUp:
		s.rotate.SetInterval(s.baseInterval)
		if s.held[protocol.ControlFire] {
			delete(s.held, protocol.ControlFire)
			s.enqueue(protocol.InputUp{Control: protocol.ControlFire})
		}

	case PointerMove:
		self := s.store.Self()
		if self == nil {
			return
		}
		s.predictedAngle = math.Atan2(e.Y-self.Y, e.X-self.X)
		s.rotate.Send(s.predictedAngle)
	}
}
