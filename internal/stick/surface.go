// Package stick tracks the engagement and displacement state of one
// virtual joystick surface. Transitions are pure state updates driven
// by a host adapter; no pointer device types appear here.
package stick

import (
	"sync"

	"github.com/nerftank/console/internal/geom"
	"github.com/nerftank/console/pkg/streaming"
)

// DefaultDeadZone is the fraction of the radius below which the
// direction reads as centered. Suppresses label jitter at rest.
const DefaultDeadZone = 0.15

// DefaultRadius bounds displacement when the geometry leaves Radius
// unset. A zero radius would make every normalized read NaN.
const DefaultRadius = 100.0

// Config holds a surface's fixed geometry.
type Config struct {
	// Center is the resting position of the surface in surface-local
	// pixel coordinates.
	Center geom.Vec2

	// Radius bounds the displacement magnitude from Center.
	Radius float64

	// DeadZone is the centered-label threshold as a fraction of
	// Radius. Zero selects DefaultDeadZone.
	DeadZone float64
}

// Surface is one 2-axis control surface. A surface tracks at most one
// engagement at a time; a second concurrent engagement is ignored
// until the first ends.
type Surface struct {
	mu        sync.RWMutex
	name      string
	cfg       Config
	engaged   bool
	rawOffset geom.Vec2
}

// New creates a surface with the given name and geometry.
func New(name string, cfg Config) *Surface {
	if cfg.Radius <= 0 {
		cfg.Radius = DefaultRadius
	}
	if cfg.DeadZone == 0 {
		cfg.DeadZone = DefaultDeadZone
	}
	return &Surface{name: name, cfg: cfg}
}

// Name returns the surface's identifier ("drive", "turret").
func (s *Surface) Name() string {
	return s.name
}

// EngageStart begins an engagement at the given pointer position.
// No-op while already engaged.
func (s *Surface) EngageStart(p geom.Vec2) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engaged {
		return
	}
	s.engaged = true
	s.rawOffset = p.Sub(s.cfg.Center).ClampMag(s.cfg.Radius)
}

// EngageMove updates the offset from a pointer move. Only effective
// while engaged. Positions beyond the radius are rescaled to exactly
// the radius, preserving direction.
func (s *Surface) EngageMove(p geom.Vec2) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.engaged {
		return
	}
	s.rawOffset = p.Sub(s.cfg.Center).ClampMag(s.cfg.Radius)
}

// EngageEnd releases the engagement and snaps the offset back to
// center. Must be called on release even when the pointer has left the
// surface bounds, otherwise the control would hold its last offset.
func (s *Surface) EngageEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engaged = false
	s.rawOffset = geom.Zero
}

// Engaged reports whether a pointer engagement is active.
func (s *Surface) Engaged() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engaged
}

// X returns the normalized horizontal displacement in [-1, 1].
func (s *Surface) X() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rawOffset.X / s.cfg.Radius
}

// Y returns the normalized vertical displacement in [-1, 1].
// Positive Y is downward, matching pointer coordinates.
func (s *Surface) Y() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rawOffset.Y / s.cfg.Radius
}

// Direction returns the coarse compass label for the current offset,
// or Centered while the offset is inside the dead zone.
func (s *Surface) Direction() Direction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.directionLocked()
}

func (s *Surface) directionLocked() Direction {
	if s.rawOffset.Mag() < s.cfg.DeadZone*s.cfg.Radius {
		return Centered
	}
	return directionFor(s.rawOffset.Angle())
}

// Snapshot returns the surface's current wire-level state. The result
// is a pure function of the stored offset.
func (s *Surface) Snapshot() streaming.StickState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return streaming.StickState{
		X:         s.rawOffset.X / s.cfg.Radius,
		Y:         s.rawOffset.Y / s.cfg.Radius,
		Direction: string(s.directionLocked()),
	}
}
