package input

import (
	"io"
	"log/slog"
	"testing"

	"github.com/nerftank/console/internal/geom"
	"github.com/nerftank/console/internal/stick"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBinder() (*Binder, *stick.Surface, *stick.Surface) {
	drive := stick.New("drive", stick.Config{
		Center: geom.Vec2{X: 100, Y: 100},
		Radius: 50,
	})
	turret := stick.New("turret", stick.Config{
		Center: geom.Vec2{X: 300, Y: 100},
		Radius: 50,
	})

	b := NewBinder(testLogger(),
		Binding{Surface: drive, Region: Region{Min: geom.Vec2{X: 50, Y: 50}, Max: geom.Vec2{X: 150, Y: 150}}},
		Binding{Surface: turret, Region: Region{Min: geom.Vec2{X: 250, Y: 50}, Max: geom.Vec2{X: 350, Y: 150}}},
	)
	return b, drive, turret
}

func TestBinder_DownEngagesMatchingSurface(t *testing.T) {
	b, drive, turret := testBinder()

	b.Handle(PointerEvent{ID: 1, Kind: Down, Pos: geom.Vec2{X: 100, Y: 100}})

	if !drive.Engaged() {
		t.Error("expected drive engaged")
	}
	if turret.Engaged() {
		t.Error("expected turret not engaged")
	}
}

func TestBinder_DownOutsideAllRegionsIgnored(t *testing.T) {
	b, drive, turret := testBinder()

	b.Handle(PointerEvent{ID: 1, Kind: Down, Pos: geom.Vec2{X: 200, Y: 400}})

	if drive.Engaged() || turret.Engaged() {
		t.Error("expected no surface engaged")
	}
}

func TestBinder_MoveRoutedToOwningSurface(t *testing.T) {
	b, drive, turret := testBinder()

	b.Handle(PointerEvent{ID: 1, Kind: Down, Pos: geom.Vec2{X: 100, Y: 100}})
	b.Handle(PointerEvent{ID: 1, Kind: Move, Pos: geom.Vec2{X: 150, Y: 100}})

	if drive.X() != 1.0 {
		t.Errorf("expected drive X=1.0, got %f", drive.X())
	}
	if turret.X() != 0 {
		t.Errorf("expected turret untouched, got X=%f", turret.X())
	}
}

func TestBinder_UpOutsideRegionStillReleases(t *testing.T) {
	b, drive, _ := testBinder()

	b.Handle(PointerEvent{ID: 1, Kind: Down, Pos: geom.Vec2{X: 100, Y: 100}})
	// Drag far outside the drive region, then release there.
	b.Handle(PointerEvent{ID: 1, Kind: Move, Pos: geom.Vec2{X: 900, Y: 900}})
	b.Handle(PointerEvent{ID: 1, Kind: Up, Pos: geom.Vec2{X: 900, Y: 900}})

	if drive.Engaged() {
		t.Error("expected drive released after up outside region")
	}
	if drive.X() != 0 || drive.Y() != 0 {
		t.Errorf("expected drive snapped to center, got (%f,%f)", drive.X(), drive.Y())
	}
}

func TestBinder_ConcurrentPointersDriveBothSurfaces(t *testing.T) {
	b, drive, turret := testBinder()

	b.Handle(PointerEvent{ID: 1, Kind: Down, Pos: geom.Vec2{X: 100, Y: 100}})
	b.Handle(PointerEvent{ID: 2, Kind: Down, Pos: geom.Vec2{X: 300, Y: 100}})
	b.Handle(PointerEvent{ID: 1, Kind: Move, Pos: geom.Vec2{X: 150, Y: 100}})
	b.Handle(PointerEvent{ID: 2, Kind: Move, Pos: geom.Vec2{X: 300, Y: 50}})

	if drive.X() != 1.0 {
		t.Errorf("expected drive X=1.0, got %f", drive.X())
	}
	if turret.Y() != -1.0 {
		t.Errorf("expected turret Y=-1.0, got %f", turret.Y())
	}
}

func TestBinder_SecondPointerOnSameSurfaceIgnored(t *testing.T) {
	b, drive, _ := testBinder()

	b.Handle(PointerEvent{ID: 1, Kind: Down, Pos: geom.Vec2{X: 150, Y: 100}})
	b.Handle(PointerEvent{ID: 2, Kind: Down, Pos: geom.Vec2{X: 100, Y: 150}})
	// Second pointer must not have claimed the surface: its moves are dropped.
	b.Handle(PointerEvent{ID: 2, Kind: Move, Pos: geom.Vec2{X: 50, Y: 100}})

	if drive.X() != 1.0 {
		t.Errorf("expected first engagement kept, got X=%f", drive.X())
	}

	// And its release must not end the first engagement.
	b.Handle(PointerEvent{ID: 2, Kind: Up, Pos: geom.Vec2{X: 50, Y: 100}})
	if !drive.Engaged() {
		t.Error("expected drive still engaged by first pointer")
	}
}

func TestBinder_RunReleasesOnSourceClose(t *testing.T) {
	b, drive, _ := testBinder()

	src := &fakeSource{ch: make(chan PointerEvent, 4)}
	src.ch <- PointerEvent{ID: 1, Kind: Down, Pos: geom.Vec2{X: 100, Y: 100}}
	src.ch <- PointerEvent{ID: 1, Kind: Move, Pos: geom.Vec2{X: 150, Y: 100}}
	close(src.ch)

	b.Run(src)

	if drive.Engaged() {
		t.Error("expected drive released when source closed")
	}
}

type fakeSource struct {
	ch chan PointerEvent
}

func (f *fakeSource) Events() <-chan PointerEvent { return f.ch }
func (f *fakeSource) Close() error                { return nil }
