package monitor

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerftank/console/internal/geom"
	"github.com/nerftank/console/internal/recorder"
	"github.com/nerftank/console/internal/sampler"
	"github.com/nerftank/console/internal/stick"
	"github.com/nerftank/console/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePointWriter captures shipped points as line protocol.
type fakePointWriter struct {
	mu     sync.Mutex
	points map[string][]string
}

func newFakePointWriter() *fakePointWriter {
	return &fakePointWriter{points: make(map[string][]string)}
}

func (f *fakePointWriter) WritePoint(_ context.Context, bucket string, point *influxdb2_write.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points[bucket] = append(f.points[bucket], influxdb2_write.PointToLineProtocol(point, time.Second))
	return nil
}

func (f *fakePointWriter) lines(bucket string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.points[bucket]...)
}

func testService(t *testing.T, statusDir string, interval time.Duration) (*Service, *sampler.Loop) {
	t.Helper()

	logger := testLogger()
	ch := transport.NewChannel(logger, nil)

	drive := stick.New("drive", stick.Config{Center: geom.Vec2{X: 100, Y: 100}, Radius: 80})
	turret := stick.New("turret", stick.Config{Center: geom.Vec2{X: 300, Y: 100}, Radius: 80})

	rec := recorder.New(logger, recorder.NewMemoryBackend(), 0)

	loop, err := sampler.NewLoop(logger, sampler.Config{
		Drive:  drive,
		Turret: turret,
		Chan:   ch,
	})
	require.NoError(t, err)

	svc := NewService(Dependencies{
		Channel:   ch,
		Sampler:   loop,
		Recorder:  rec,
		Logger:    logger,
		Operator:  "test",
		StatusDir: statusDir,
		Interval:  interval,
	})
	return svc, loop
}

func TestSnapshot(t *testing.T) {
	svc, loop := testService(t, t.TempDir(), time.Second)

	// channel was never dialed, so the first tick drops
	loop.Tick()

	st := svc.Snapshot()
	assert.Equal(t, "connecting", st.ChannelState)
	assert.Equal(t, uint64(0), st.FramesSent)
	assert.Equal(t, uint64(1), st.FramesDropped)
	assert.Equal(t, 0, st.RecorderQueueLen)
}

func TestStartWritesStatusFile(t *testing.T) {
	dir := t.TempDir()
	svc, _ := testService(t, dir, 10*time.Millisecond)

	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())

	statusPath := filepath.Join(dir, "status.txt")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(statusPath)
		return err == nil && len(data) > 0
	}, time.Second, 10*time.Millisecond)

	data, err := os.ReadFile(statusPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"channelState"`)
	assert.Contains(t, string(data), `"framesSent"`)

	svc.Stop()
	require.Eventually(t, func() bool {
		return !svc.IsRunning()
	}, time.Second, 10*time.Millisecond)
}

func TestChannelTransitionShipsLinkEvent(t *testing.T) {
	logger := testLogger()
	ch := transport.NewChannel(logger, nil)
	fw := newFakePointWriter()

	svc := NewService(Dependencies{
		Channel:   ch,
		Influx:    fw,
		Logger:    logger,
		Operator:  "test",
		StatusDir: t.TempDir(),
		Interval:  5 * time.Millisecond,
	})
	require.NoError(t, svc.Start())
	defer svc.Stop()

	// let the monitor observe the connecting state first
	require.Eventually(t, func() bool {
		return len(fw.lines("console_performance")) > 0
	}, time.Second, 5*time.Millisecond)

	// a failed dial is a terminal transition to closed
	require.Error(t, ch.Dial("ws://127.0.0.1:1/ws"))

	require.Eventually(t, func() bool {
		return len(fw.lines("link_events")) > 0
	}, time.Second, 5*time.Millisecond)

	line := fw.lines("link_events")[0]
	assert.True(t, strings.HasPrefix(line, "link_event,"))
	assert.Contains(t, line, "from=connecting")
	assert.Contains(t, line, "to=closed")
}

func TestStartIsIdempotent(t *testing.T) {
	svc, _ := testService(t, t.TempDir(), 10*time.Millisecond)

	require.NoError(t, svc.Start())
	require.NoError(t, svc.Start())
	svc.Stop()
}
