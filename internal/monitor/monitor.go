package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerftank/console/internal/influx"
	"github.com/nerftank/console/internal/recorder"
	"github.com/nerftank/console/internal/sampler"
	"github.com/nerftank/console/internal/transport"
)

// PointWriter ships measurement points to the metrics store. Satisfied
// by *influx.Manager.
type PointWriter interface {
	WritePoint(ctx context.Context, bucket string, point *influxdb2_write.Point) error
}

// Status is a point-in-time snapshot of console health.
type Status struct {
	Time             time.Time `json:"time"`
	ChannelState     string    `json:"channelState"`
	FramesSent       uint64    `json:"framesSent"`
	FramesDropped    uint64    `json:"framesDropped"`
	RecorderQueueLen int       `json:"recorderQueueLen"`
	RecorderFlushMs  float64   `json:"recorderFlushMs"`
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Channel   *transport.Channel
	Sampler   *sampler.Loop
	Recorder  *recorder.Recorder
	Influx    PointWriter
	Logger    *slog.Logger
	Operator  string
	StatusDir string
	Interval  time.Duration
}

// Service periodically snapshots console health, writes it to a status
// file and, when an Influx manager is present, ships it as a point.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot returns the current console status.
func (s *Service) Snapshot() Status {
	st := Status{
		Time:         time.Now(),
		ChannelState: s.deps.Channel.State().String(),
	}
	if s.deps.Sampler != nil {
		st.FramesSent = s.deps.Sampler.FramesSent()
		st.FramesDropped = s.deps.Sampler.FramesDropped()
	}
	if s.deps.Recorder != nil {
		st.RecorderQueueLen = s.deps.Recorder.QueueLen()
		st.RecorderFlushMs = float64(s.deps.Recorder.LastFlushDuration().Microseconds()) / 1000.0
	}
	return st
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine")

		statusFile, err := os.Create(s.deps.StatusDir + "/status.txt")
		if err != nil {
			logger.Error("Error creating status file", "error", err)
		}
		defer func() {
			if statusFile != nil {
				statusFile.Close()
			}
		}()

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		lastChannelState := s.deps.Channel.State().String()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				status := s.Snapshot()

				if statusFile != nil {
					statusStr, err := json.MarshalIndent(status, "", "  ")
					if err != nil {
						statusStr = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
					}
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					statusFile.Write(append(statusStr, '\n'))
				}

				if s.deps.Influx != nil && status.ChannelState != lastChannelState {
					point := influx.LinkEventPoint(s.deps.Operator, lastChannelState, status.ChannelState, "")
					err := s.deps.Influx.WritePoint(context.Background(), "link_events", point)
					if err != nil {
						logger.Error("Error writing link event point", "error", err)
					}
				}
				lastChannelState = status.ChannelState

				if s.deps.Influx != nil {
					var flush time.Duration
					if s.deps.Recorder != nil {
						flush = s.deps.Recorder.LastFlushDuration()
					}
					point := influx.PerformancePoint(
						s.deps.Operator,
						status.ChannelState,
						int64(status.FramesSent),
						int64(status.FramesDropped),
						status.RecorderQueueLen,
						flush,
					)
					err := s.deps.Influx.WritePoint(context.Background(), "console_performance", point)
					if err != nil {
						logger.Error("Error writing performance point", "error", err)
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
