// Package recorder keeps a session blackbox: every control frame the
// sampler produces and every notable session event, buffered in memory
// and flushed to a storage backend in batches. Recording is purely
// diagnostic and never feeds back into the control path.
package recorder

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nerftank/console/internal/queue"
	"github.com/nerftank/console/pkg/streaming"
)

// DefaultFlushInterval is how often buffered frames are written out.
const DefaultFlushInterval = 2 * time.Second

// FrameRecord is one sampled control frame as stored.
type FrameRecord struct {
	ID   uint      `gorm:"primarykey"`
	Time time.Time `gorm:"index"`

	// Sent is false for frames dropped while the channel was not open.
	Sent bool

	DriveX          float64
	DriveY          float64
	DriveDirection  string
	TurretX         float64
	TurretY         float64
	TurretDirection string
}

// SessionEvent is a notable non-frame occurrence: channel transitions,
// robot-reported errors, interlock changes.
type SessionEvent struct {
	ID     uint      `gorm:"primarykey"`
	Time   time.Time `gorm:"index"`
	Kind   string
	Detail string
}

// Backend persists frame batches and session events.
type Backend interface {
	Init() error
	Close() error
	WriteFrames(frames []FrameRecord) error
	WriteEvent(event SessionEvent) error
}

// Recorder buffers frames and flushes them periodically.
type Recorder struct {
	backend Backend
	frames  *queue.Queue[FrameRecord]
	every   time.Duration
	logger  *slog.Logger

	lastFlushNanos atomic.Int64
}

// New creates a recorder over the given backend. A zero interval
// selects DefaultFlushInterval.
func New(logger *slog.Logger, backend Backend, every time.Duration) *Recorder {
	if every == 0 {
		every = DefaultFlushInterval
	}
	return &Recorder{
		backend: backend,
		frames:  queue.New[FrameRecord](),
		every:   every,
		logger:  logger,
	}
}

// RecordFrame buffers one sampled frame. Satisfies the sampler's
// Recorder interface.
func (r *Recorder) RecordFrame(frame streaming.ControlFrame, sent bool) {
	r.frames.Push(FrameRecord{
		Time:            time.Now(),
		Sent:            sent,
		DriveX:          frame.Data.Drive.X,
		DriveY:          frame.Data.Drive.Y,
		DriveDirection:  frame.Data.Drive.Direction,
		TurretX:         frame.Data.Turret.X,
		TurretY:         frame.Data.Turret.Y,
		TurretDirection: frame.Data.Turret.Direction,
	})
}

// RecordEvent writes a session event straight through. Events are rare
// enough that batching buys nothing.
func (r *Recorder) RecordEvent(kind, detail string) {
	err := r.backend.WriteEvent(SessionEvent{
		Time:   time.Now(),
		Kind:   kind,
		Detail: detail,
	})
	if err != nil {
		r.logger.Warn("Failed to record session event", "kind", kind, "error", err)
	}
}

// QueueLen returns the number of frames waiting to be flushed.
func (r *Recorder) QueueLen() int {
	return r.frames.Len()
}

// LastFlushDuration returns how long the most recent flush took.
func (r *Recorder) LastFlushDuration() time.Duration {
	return time.Duration(r.lastFlushNanos.Load())
}

// Flush writes all buffered frames to the backend. Failed batches are
// dropped after logging; the blackbox must never wedge the session.
func (r *Recorder) Flush() {
	frames := r.frames.Drain()
	if len(frames) == 0 {
		return
	}

	start := time.Now()
	if err := r.backend.WriteFrames(frames); err != nil {
		r.logger.Warn("Failed to flush frame batch", "count", len(frames), "error", err)
		return
	}
	r.lastFlushNanos.Store(int64(time.Since(start)))
	r.logger.Debug("Flushed frame batch", "count", len(frames), "duration", time.Since(start))
}

// Run flushes at the configured interval until the context is
// canceled, then performs a final flush.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Flush()
			return
		case <-ticker.C:
			r.Flush()
		}
	}
}
