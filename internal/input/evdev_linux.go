//go:build linux

package input

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/nerftank/console/internal/geom"
)

// Linux input event constants, from <linux/input-event-codes.h>.
const (
	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03

	btnTouch = 0x14a

	absX = 0x00
	absY = 0x01

	synReport = 0x00
)

type absInfo struct {
	Value      int32
	Min        int32
	Max        int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// EVIOCGABS(abs) = _IOR('E', 0x40 + abs, struct input_absinfo)
func eviocgabs(code int) uintptr {
	size := uint32(unsafe.Sizeof(absInfo{}))
	return uintptr(2<<30 | size<<16 | uint32('E')<<8 | uint32(0x40+code))
}

func getAbsInfo(fd int, code int) (absInfo, error) {
	var info absInfo
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), eviocgabs(code), uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return absInfo{}, errno
	}
	return info, nil
}

// EvdevSource reads an absolute pointer device (touchscreen, tablet)
// from /dev/input/event* and emits pointer events scaled into the
// panel's screen space. Single pointer only; multitouch slots are not
// tracked.
type EvdevSource struct {
	file   *os.File
	events chan PointerEvent
	logger *slog.Logger

	xMin, xMax int32
	yMin, yMax int32
	width      float64
	height     float64
}

// OpenEvdev opens the device and starts the read loop. width/height
// define the screen space device coordinates are scaled into.
func OpenEvdev(logger *slog.Logger, path string, width, height float64) (*EvdevSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input device: %w", err)
	}

	s := &EvdevSource{
		file:   f,
		events: make(chan PointerEvent, 64),
		logger: logger,
		xMax:   1,
		yMax:   1,
		width:  width,
		height: height,
	}

	fd := int(f.Fd())
	if x, err := getAbsInfo(fd, absX); err == nil {
		s.xMin, s.xMax = x.Min, x.Max
	}
	if y, err := getAbsInfo(fd, absY); err == nil {
		s.yMin, s.yMax = y.Min, y.Max
	}
	logger.Info("Opened input device", "path", path,
		"xRange", fmt.Sprintf("%d..%d", s.xMin, s.xMax),
		"yRange", fmt.Sprintf("%d..%d", s.yMin, s.yMax))

	go s.readLoop()
	return s, nil
}

// Events returns the pointer event stream.
func (s *EvdevSource) Events() <-chan PointerEvent {
	return s.events
}

// Close stops the read loop and closes the event channel.
func (s *EvdevSource) Close() error {
	return s.file.Close()
}

// readLoop parses input_event records and emits one pointer event per
// SYN_REPORT. The kernel struct is 24 bytes on 64-bit timeval
// platforms and 16 bytes on 32-bit ones.
func (s *EvdevSource) readLoop() {
	defer close(s.events)

	var (
		buf     [24 * 64]byte
		pending []byte
		recSize int

		x, y    int32
		touch   bool
		touched bool // value seen this report
	)

	for {
		n, err := s.file.Read(buf[:])
		if err != nil {
			s.logger.Debug("Input device read ended", "error", err)
			return
		}
		pending = append(pending, buf[:n]...)

		if recSize == 0 {
			switch {
			case len(pending)%24 == 0:
				recSize = 24
			case len(pending)%16 == 0:
				recSize = 16
			default:
				recSize = 24
			}
		}

		for len(pending) >= recSize {
			rec := pending[:recSize]
			pending = pending[recSize:]

			off := recSize - 8
			etype := binary.LittleEndian.Uint16(rec[off : off+2])
			code := binary.LittleEndian.Uint16(rec[off+2 : off+4])
			value := int32(binary.LittleEndian.Uint32(rec[off+4 : off+8]))

			switch etype {
			case evAbs:
				switch code {
				case absX:
					x = value
				case absY:
					y = value
				}
			case evKey:
				if code == btnTouch {
					touch = value != 0
					touched = true
				}
			case evSyn:
				if code != synReport {
					continue
				}
				pos := s.scale(x, y)
				switch {
				case touched && touch:
					s.emit(PointerEvent{ID: 0, Kind: Down, Pos: pos})
				case touched && !touch:
					s.emit(PointerEvent{ID: 0, Kind: Up, Pos: pos})
				case touch:
					s.emit(PointerEvent{ID: 0, Kind: Move, Pos: pos})
				}
				touched = false
			}
		}
	}
}

func (s *EvdevSource) scale(x, y int32) geom.Vec2 {
	sx := float64(x-s.xMin) / float64(s.xMax-s.xMin) * s.width
	sy := float64(y-s.yMin) / float64(s.yMax-s.yMin) * s.height
	return geom.Vec2{X: sx, Y: sy}
}

func (s *EvdevSource) emit(ev PointerEvent) {
	select {
	case s.events <- ev:
	default:
		// Input floods must not block the device read loop.
	}
}
