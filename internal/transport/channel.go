// Package transport wraps the single persistent WebSocket connection
// to the robot. One channel per session; a closed channel stays closed
// and a new session is required to reconnect.
package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
	maxInboundBytes  = 1 << 20
)

// ErrNotOpen is returned by Send while the channel is not open.
// Frames are state-replacement, so callers drop and move on.
var ErrNotOpen = errors.New("transport: channel not open")

// State is the channel's connection state.
type State int32

const (
	Connecting State = iota
	Open
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Dispatcher receives inbound payloads in arrival order.
type Dispatcher interface {
	DispatchInbound(raw []byte)
}

// Channel is one full-duplex connection to the robot. Sends are only
// accepted while Open; inbound messages are handed to the dispatcher
// from a single read goroutine, preserving order.
type Channel struct {
	mu         sync.Mutex
	conn       *ws.Conn
	state      atomic.Int32
	done       chan struct{}
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewChannel creates an unconnected channel in the Connecting state.
func NewChannel(logger *slog.Logger, dispatcher Dispatcher) *Channel {
	c := &Channel{
		done:       make(chan struct{}),
		dispatcher: dispatcher,
		logger:     logger,
	}
	c.state.Store(int32(Connecting))
	return c
}

// State returns the current connection state.
func (c *Channel) State() State {
	return State(c.state.Load())
}

// Ready reports whether the channel accepts sends.
func (c *Channel) Ready() bool {
	return c.State() == Open
}

// Dial performs the handshake. On failure the channel transitions
// straight to Closed; there is no retry.
func (c *Channel) Dial(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		c.state.Store(int32(Closed))
		return fmt.Errorf("invalid robot URL: %w", err)
	}

	dialer := ws.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		c.state.Store(int32(Closed))
		return fmt.Errorf("websocket dial failed: %w", err)
	}

	conn.SetReadLimit(maxInboundBytes)

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.state.Store(int32(Open))

	c.logger.Info("Channel open", "url", u.String())
	go c.readLoop()
	return nil
}

// Send writes one text message. Returns ErrNotOpen while the channel
// is not open; the frame is the caller's to drop.
func (c *Channel) Send(data []byte) error {
	if c.State() != Open {
		return ErrNotOpen
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotOpen
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.fail(err)
		return err
	}
	if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
		c.fail(err)
		return err
	}
	return nil
}

// readLoop delivers inbound messages until the connection dies.
// Dispatch runs inline so arrival order is preserved.
func (c *Channel) readLoop() {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn("Channel read error", "error", err)
				c.fail(err)
				_ = conn.Close()
			}
			return
		}

		c.dispatcher.DispatchInbound(message)
	}
}

// fail marks the channel terminally closed after a transport error.
// Callers hold no lock ordering obligations; fail is idempotent.
func (c *Channel) fail(err error) {
	if State(c.state.Swap(int32(Closed))) != Closed {
		c.logger.Warn("Channel closed", "error", err)
	}
}

// Close sends a close frame and shuts the channel down. Idempotent.
func (c *Channel) Close() error {
	if !c.state.CompareAndSwap(int32(Open), int32(Closing)) {
		c.state.Store(int32(Closed))
		return nil
	}

	close(c.done)

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	var err error
	if conn != nil {
		_ = conn.WriteMessage(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		)
		err = conn.Close()
	}

	c.state.Store(int32(Closed))
	c.logger.Info("Channel closed")
	return err
}
