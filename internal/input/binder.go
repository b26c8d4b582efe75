package input

import (
	"log/slog"

	"github.com/nerftank/console/internal/geom"
	"github.com/nerftank/console/internal/stick"
)

// Region is a rectangular hit area in screen coordinates, used to
// decide which surface a pointer-down engages.
type Region struct {
	Min geom.Vec2
	Max geom.Vec2
}

// Contains reports whether p falls inside the region.
func (r Region) Contains(p geom.Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Binding pairs a surface with its screen region.
type Binding struct {
	Surface *stick.Surface
	Region  Region
}

// Binder routes pointer events onto bound surfaces. A pointer that
// goes down inside a region owns that surface until it goes up;
// releases are honored wherever the pointer is at the time, so a
// surface can never remain stuck off-center after a release outside
// its region.
type Binder struct {
	bindings []Binding
	owners   map[int]*stick.Surface // pointer ID -> engaged surface
	logger   *slog.Logger
}

// NewBinder creates a binder over the given surface bindings.
func NewBinder(logger *slog.Logger, bindings ...Binding) *Binder {
	return &Binder{
		bindings: bindings,
		owners:   make(map[int]*stick.Surface),
		logger:   logger,
	}
}

// Handle applies one pointer event to the bound surfaces.
func (b *Binder) Handle(ev PointerEvent) {
	switch ev.Kind {
	case Down:
		if _, engaged := b.owners[ev.ID]; engaged {
			return
		}
		for _, bind := range b.bindings {
			if !bind.Region.Contains(ev.Pos) {
				continue
			}
			if bind.Surface.Engaged() {
				// Another pointer already owns this surface.
				b.logger.Debug("Ignoring concurrent engagement", "surface", bind.Surface.Name())
				return
			}
			bind.Surface.EngageStart(ev.Pos)
			b.owners[ev.ID] = bind.Surface
			return
		}
	case Move:
		if s, ok := b.owners[ev.ID]; ok {
			s.EngageMove(ev.Pos)
		}
	case Up:
		if s, ok := b.owners[ev.ID]; ok {
			s.EngageEnd()
			delete(b.owners, ev.ID)
		}
	}
}

// Run consumes the source until its event channel closes, releasing
// any still-engaged surfaces on exit.
func (b *Binder) Run(src Source) {
	for ev := range src.Events() {
		b.Handle(ev)
	}
	for id, s := range b.owners {
		s.EngageEnd()
		delete(b.owners, id)
	}
}
