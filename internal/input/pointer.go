// Package input adapts host pointer/touch primitives to surface
// engagement transitions. The event model is host-agnostic: anything
// that can produce down/move/up positions can drive the surfaces.
package input

import "github.com/nerftank/console/internal/geom"

// Kind discriminates pointer event types.
type Kind int

const (
	Down Kind = iota
	Move
	Up
)

func (k Kind) String() string {
	switch k {
	case Down:
		return "down"
	case Move:
		return "move"
	case Up:
		return "up"
	default:
		return "unknown"
	}
}

// PointerEvent is one low-level pointer transition. ID distinguishes
// concurrent pointers on multitouch hosts; single-pointer sources use
// a constant ID.
type PointerEvent struct {
	ID   int
	Kind Kind
	Pos  geom.Vec2
}

// Source produces pointer events. Events must be delivered in the
// order they occurred on the host. Closing the channel ends the
// stream.
type Source interface {
	Events() <-chan PointerEvent
	Close() error
}
