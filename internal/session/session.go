// Package session assembles one operator session: the channel to the
// robot, both control surfaces, the interlock, the sampler and the
// inbound message registrations. One session per connection; when the
// channel closes the session is done.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nerftank/console/internal/dispatcher"
	"github.com/nerftank/console/internal/geom"
	"github.com/nerftank/console/internal/input"
	"github.com/nerftank/console/internal/interlock"
	"github.com/nerftank/console/internal/logging"
	"github.com/nerftank/console/internal/recorder"
	"github.com/nerftank/console/internal/sampler"
	"github.com/nerftank/console/internal/stick"
	"github.com/nerftank/console/internal/transport"
	"github.com/nerftank/console/pkg/streaming"
)

// Config holds session construction parameters.
type Config struct {
	// RobotURL is the websocket endpoint, e.g. ws://nerftank.local/ws.
	RobotURL string

	// SamplePeriod between frames. Zero selects the sampler default.
	SamplePeriod time.Duration

	// Surface geometry. Radius applies to both surfaces.
	DriveCenter  geom.Vec2
	TurretCenter geom.Vec2
	Radius       float64
	DeadZone     float64

	// Ammo loaded in the turret magazine. Zero selects the default.
	Ammo int

	// Recorder is the optional session blackbox.
	Recorder *recorder.Recorder
}

// Session owns the moving parts of one console connection.
type Session struct {
	cfg    Config
	logger *slog.Logger

	Channel    *transport.Channel
	Drive      *stick.Surface
	Turret     *stick.Surface
	Interlock  *interlock.Interlock
	Dispatcher *dispatcher.Dispatcher
	Sampler    *sampler.Loop
	Binder     *input.Binder
	Recorder   *recorder.Recorder
}

// New wires up a session. The channel is created but not dialed.
func New(logger *slog.Logger, cfg Config) (*Session, error) {
	if cfg.RobotURL == "" {
		return nil, fmt.Errorf("session: robot URL is required")
	}
	if cfg.Ammo == 0 {
		cfg.Ammo = interlock.DefaultAmmo
	}

	s := &Session{
		cfg:    cfg,
		logger: logger,
	}

	disp, err := dispatcher.New(logging.NewDispatcherLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("session: creating dispatcher: %w", err)
	}
	s.Dispatcher = disp
	s.registerHandlers()

	s.Channel = transport.NewChannel(logger, disp)

	s.Drive = stick.New("drive", stick.Config{
		Center:   cfg.DriveCenter,
		Radius:   cfg.Radius,
		DeadZone: cfg.DeadZone,
	})
	s.Turret = stick.New("turret", stick.Config{
		Center:   cfg.TurretCenter,
		Radius:   cfg.Radius,
		DeadZone: cfg.DeadZone,
	})

	s.Interlock = interlock.New(cfg.Ammo)
	s.Recorder = cfg.Recorder

	var rec sampler.Recorder
	if cfg.Recorder != nil {
		rec = cfg.Recorder
	}
	loop, err := sampler.NewLoop(logger, sampler.Config{
		Drive:    s.Drive,
		Turret:   s.Turret,
		Chan:     s.Channel,
		Period:   cfg.SamplePeriod,
		Recorder: rec,
	})
	if err != nil {
		return nil, fmt.Errorf("session: creating sampler: %w", err)
	}
	s.Sampler = loop

	s.Binder = input.NewBinder(logger,
		input.Binding{Surface: s.Drive, Region: surfaceRegion(cfg.DriveCenter, cfg.Radius)},
		input.Binding{Surface: s.Turret, Region: surfaceRegion(cfg.TurretCenter, cfg.Radius)},
	)

	return s, nil
}

func surfaceRegion(center geom.Vec2, radius float64) input.Region {
	return input.Region{
		Min: geom.Vec2{X: center.X - radius, Y: center.Y - radius},
		Max: geom.Vec2{X: center.X + radius, Y: center.Y + radius},
	}
}

// registerHandlers installs the inbound message routes. "response" is
// reserved and accepted without action; "error" is surfaced to the
// operator log and the blackbox.
func (s *Session) registerHandlers() {
	s.Dispatcher.Register(streaming.TypeResponse, func(raw []byte) error {
		// Reserved. The robot does not send these yet.
		return nil
	})

	s.Dispatcher.Register(streaming.TypeError, func(raw []byte) error {
		var payload streaming.ErrorPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("decoding error payload: %w", err)
		}
		s.logger.Error("Robot reported error", "message", payload.Message)
		if s.Recorder != nil {
			s.Recorder.RecordEvent("robot_error", payload.Message)
		}
		return nil
	}, dispatcher.Logged())
}

// Start dials the robot and launches the sampling loop, the interlock
// firing-cycle driver and, when a recorder is configured, its flush
// worker. It returns once the handshake completes; the loops run until
// ctx is canceled.
func (s *Session) Start(ctx context.Context) error {
	if err := s.Channel.Dial(s.cfg.RobotURL); err != nil {
		if s.Recorder != nil {
			s.Recorder.RecordEvent("channel_failed", err.Error())
		}
		return err
	}

	if s.Recorder != nil {
		s.Recorder.RecordEvent("channel_open", s.cfg.RobotURL)
		go s.Recorder.Run(ctx)
	}
	go s.Sampler.Run(ctx)
	go s.Interlock.Run(ctx, 0)

	return nil
}

// Arm arms the turret interlock and records the change.
func (s *Session) Arm() {
	s.Interlock.Arm()
	if s.Recorder != nil {
		s.Recorder.RecordEvent("interlock", "armed")
	}
	s.logger.Info("Interlock armed", "ammo", s.Interlock.Ammo())
}

// Disarm returns the interlock to safe and records the change.
func (s *Session) Disarm() {
	s.Interlock.Disarm()
	if s.Recorder != nil {
		s.Recorder.RecordEvent("interlock", "disarmed")
	}
	s.logger.Info("Interlock disarmed")
}

// Fire requests a shot through the interlock. The refusal reasons are
// the interlock's; the session only records the outcome.
func (s *Session) Fire() error {
	err := s.Interlock.Fire()
	if err != nil {
		s.logger.Warn("Fire refused", "error", err)
		return err
	}
	if s.Recorder != nil {
		s.Recorder.RecordEvent("fire", fmt.Sprintf("ammo=%d", s.Interlock.Ammo()))
	}
	return nil
}

// Close shuts the channel down and records the closure.
func (s *Session) Close() error {
	err := s.Channel.Close()
	if s.Recorder != nil {
		s.Recorder.RecordEvent("channel_closed", "")
	}
	return err
}
