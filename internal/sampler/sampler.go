// Package sampler runs the fixed-period loop that reads both control
// surfaces and streams one ControlFrame per tick. The snapshot step is
// a pure function so the loop can be tested without real time.
package sampler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/nerftank/console/internal/stick"
	"github.com/nerftank/console/pkg/streaming"
)

// DefaultPeriod is the reference sampling cadence (20 Hz).
const DefaultPeriod = 50 * time.Millisecond

// Channel is the transmit side the loop needs from the transport.
type Channel interface {
	Ready() bool
	Send(data []byte) error
}

// Recorder receives a copy of every frame the loop produces, sent or
// dropped. Optional.
type Recorder interface {
	RecordFrame(frame streaming.ControlFrame, sent bool)
}

// Snapshot builds one ControlFrame from the surfaces' current state.
func Snapshot(drive, turret *stick.Surface) streaming.ControlFrame {
	return streaming.NewControlFrame(drive.Snapshot(), turret.Snapshot())
}

// Loop samples both surfaces every period and attempts transmission.
// Ticks never block and never retry: a frame that cannot be sent is
// dropped, and the next tick supersedes it.
type Loop struct {
	drive    *stick.Surface
	turret   *stick.Surface
	ch       Channel
	recorder Recorder
	period   time.Duration
	logger   *slog.Logger

	framesSent    atomic.Uint64
	framesDropped atomic.Uint64

	// OTel metrics
	sent    metric.Int64Counter
	dropped metric.Int64Counter
}

// Config holds loop construction parameters.
type Config struct {
	Drive  *stick.Surface
	Turret *stick.Surface
	Chan   Channel

	// Period between ticks. Zero selects DefaultPeriod.
	Period time.Duration

	// Recorder is optional.
	Recorder Recorder
}

// NewLoop creates a sampling loop. Uses the global OTel meter for
// metrics (no-op if not configured).
func NewLoop(logger *slog.Logger, cfg Config) (*Loop, error) {
	if cfg.Period == 0 {
		cfg.Period = DefaultPeriod
	}

	l := &Loop{
		drive:    cfg.Drive,
		turret:   cfg.Turret,
		ch:       cfg.Chan,
		recorder: cfg.Recorder,
		period:   cfg.Period,
		logger:   logger,
	}

	m := meter()

	var err error

	l.sent, err = m.Int64Counter(
		"sampler.frames.sent",
		metric.WithDescription("Total control frames transmitted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sent counter: %w", err)
	}

	l.dropped, err = m.Int64Counter(
		"sampler.frames.dropped",
		metric.WithDescription("Total control frames dropped while the channel was not open"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return l, nil
}

// Period returns the loop's tick period.
func (l *Loop) Period() time.Duration {
	return l.period
}

// FramesSent returns the number of frames transmitted so far.
func (l *Loop) FramesSent() uint64 {
	return l.framesSent.Load()
}

// FramesDropped returns the number of frames dropped so far.
func (l *Loop) FramesDropped() uint64 {
	return l.framesDropped.Load()
}

// Tick performs one sample-encode-transmit step. It never returns an
// error and never panics on a closed channel: send failures are a
// diagnostic, not a loop condition.
func (l *Loop) Tick() {
	frame := Snapshot(l.drive, l.turret)

	if !l.ch.Ready() {
		l.drop(frame, "channel not open")
		return
	}

	data, err := json.Marshal(frame)
	if err != nil {
		// Frames are plain structs; this indicates a programming error
		// but must still not stop the loop.
		l.drop(frame, err.Error())
		return
	}

	if err := l.ch.Send(data); err != nil {
		l.drop(frame, err.Error())
		return
	}

	l.framesSent.Add(1)
	l.sent.Add(context.Background(), 1)
	if l.recorder != nil {
		l.recorder.RecordFrame(frame, true)
	}
}

func (l *Loop) drop(frame streaming.ControlFrame, reason string) {
	l.framesDropped.Add(1)
	l.dropped.Add(context.Background(), 1)
	l.logger.Debug("Dropping control frame", "reason", reason)
	if l.recorder != nil {
		l.recorder.RecordFrame(frame, false)
	}
}

// Run ticks at the configured period until the context is canceled.
// There is no other termination condition.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	l.logger.Info("Sampler running", "period", l.period)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Sampler stopped",
				"sent", l.FramesSent(), "dropped", l.FramesDropped())
			return
		case <-ticker.C:
			l.Tick()
		}
	}
}
