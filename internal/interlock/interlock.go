// Package interlock maintains the console-side arm/fire interlock.
// Arming is a deliberate two-step: fire is refused unless armed. The
// state machine mirrors the robot's turret so the panel can display
// spin-up, cooldown, and ammunition without waiting on the wire.
// Interlock state is never included in outbound control frames; the
// robot enforces its own interlock out-of-band.
package interlock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the interlock's firing-cycle state.
type State string

const (
	Standby  State = "STANDBY"
	SpinUp   State = "SPIN_UP"
	Ready    State = "READY"
	Firing   State = "FIRING"
	Cooldown State = "COOLDOWN"
	Empty    State = "EMPTY"
)

// DefaultAmmo is the magazine capacity of the stock turret.
const DefaultAmmo = 5

// DefaultStepPeriod is the firing-cycle tick, matching the robot
// turret's spin-up and cooldown dwell.
const DefaultStepPeriod = 100 * time.Millisecond

var (
	// ErrNotArmed is returned by Fire while the interlock is safe.
	ErrNotArmed = errors.New("interlock: not armed")

	// ErrNotReady is returned by Fire before spin-up completes or
	// during cooldown.
	ErrNotReady = errors.New("interlock: not ready to fire")

	// ErrEmpty is returned by Fire with no ammunition remaining.
	ErrEmpty = errors.New("interlock: no ammunition")
)

// Interlock gates the fire control. All methods are safe for
// concurrent use.
type Interlock struct {
	mu     sync.Mutex
	armed  bool
	firing bool
	state  State
	ammo   int
}

// New creates an interlock in the safe state with the given
// ammunition count. Zero or negative selects DefaultAmmo.
func New(ammo int) *Interlock {
	if ammo <= 0 {
		ammo = DefaultAmmo
	}
	return &Interlock{state: Standby, ammo: ammo}
}

// Arm enables the firing path.
func (i *Interlock) Arm() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.armed = true
}

// Disarm returns the interlock to safe. Any in-progress firing intent
// is discarded.
func (i *Interlock) Disarm() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.armed = false
	i.firing = false
}

// Armed reports whether the firing path is enabled.
func (i *Interlock) Armed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.armed
}

// State returns the current firing-cycle state.
func (i *Interlock) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Ammo returns the remaining ammunition count.
func (i *Interlock) Ammo() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.ammo
}

// Fire requests one shot. Refused while safe, out of ammunition, or
// outside the Ready state.
func (i *Interlock) Fire() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	switch {
	case !i.armed:
		return ErrNotArmed
	case i.ammo < 1:
		return ErrEmpty
	case i.state != Ready:
		return ErrNotReady
	}
	i.firing = true
	return nil
}

// Advance progresses the firing cycle by one step and returns the new
// state. Matches the robot turret's transitions: arming spins up the
// flywheel, firing decrements ammunition and enters cooldown, and
// disarming from any state drops back to standby.
func (i *Interlock) Advance() State {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch {
	case i.ammo < 1:
		i.state = Empty
	case !i.armed:
		i.state = Standby
	default:
		switch i.state {
		case Standby:
			i.state = SpinUp
		case SpinUp:
			i.state = Ready
		case Ready:
			if i.firing {
				i.state = Firing
			}
		case Firing:
			i.ammo--
			i.firing = false
			i.state = Cooldown
		case Cooldown:
			i.state = Ready
		case Empty:
			// terminal until reload
		}
	}

	return i.state
}

// Run drives the firing cycle, stepping Advance on a ticker until ctx
// is canceled. Without a running driver an armed interlock never
// leaves Standby. Zero or negative period selects DefaultStepPeriod.
func (i *Interlock) Run(ctx context.Context, period time.Duration) {
	if period <= 0 {
		period = DefaultStepPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.Advance()
		}
	}
}
