package transport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingDispatcher collects raw inbound payloads.
type recordingDispatcher struct {
	mu       sync.Mutex
	payloads []string
}

func (d *recordingDispatcher) DispatchInbound(raw []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payloads = append(d.payloads, string(raw))
}

func (d *recordingDispatcher) all() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := make([]string, len(d.payloads))
	copy(cp, d.payloads)
	return cp
}

// testServer upgrades to WebSocket, records client messages, and can
// push messages to the client.
func testServer(t *testing.T) (*httptest.Server, chan string, chan string) {
	t.Helper()
	received := make(chan string, 16)
	outbound := make(chan string, 16)

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		go func() {
			for msg := range outbound {
				if err := c.WriteMessage(ws.TextMessage, []byte(msg)); err != nil {
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			received <- string(msg)
		}
	}))

	return srv, received, outbound
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestChannel_DialFailureIsTerminal(t *testing.T) {
	c := NewChannel(testLogger(), &recordingDispatcher{})

	err := c.Dial("ws://127.0.0.1:1/ws")

	require.Error(t, err)
	assert.Equal(t, Closed, c.State())
}

func TestChannel_SendBeforeDialReturnsErrNotOpen(t *testing.T) {
	c := NewChannel(testLogger(), &recordingDispatcher{})

	assert.Equal(t, Connecting, c.State())
	assert.ErrorIs(t, c.Send([]byte(`{}`)), ErrNotOpen)
}

func TestChannel_SendDeliversWhileOpen(t *testing.T) {
	srv, received, _ := testServer(t)
	defer srv.Close()

	c := NewChannel(testLogger(), &recordingDispatcher{})
	require.NoError(t, c.Dial(wsURL(srv)))
	defer c.Close()

	require.Equal(t, Open, c.State())
	require.True(t, c.Ready())
	require.NoError(t, c.Send([]byte(`{"type":"stick_data"}`)))

	select {
	case msg := <-received:
		assert.Equal(t, `{"type":"stick_data"}`, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive frame")
	}
}

func TestChannel_InboundDeliveredInOrder(t *testing.T) {
	srv, _, outbound := testServer(t)
	defer srv.Close()

	d := &recordingDispatcher{}
	c := NewChannel(testLogger(), d)
	require.NoError(t, c.Dial(wsURL(srv)))
	defer c.Close()

	outbound <- `{"type":"response","seq":1}`
	outbound <- `{"type":"response","seq":2}`
	outbound <- `{"type":"error","message":"low battery"}`

	require.Eventually(t, func() bool {
		return len(d.all()) == 3
	}, 2*time.Second, 10*time.Millisecond)

	got := d.all()
	assert.Equal(t, `{"type":"response","seq":1}`, got[0])
	assert.Equal(t, `{"type":"response","seq":2}`, got[1])
	assert.Equal(t, `{"type":"error","message":"low battery"}`, got[2])
}

func TestChannel_ServerCloseTransitionsToClosed(t *testing.T) {
	srv, _, _ := testServer(t)

	c := NewChannel(testLogger(), &recordingDispatcher{})
	require.NoError(t, c.Dial(wsURL(srv)))

	srv.CloseClientConnections()

	require.Eventually(t, func() bool {
		return c.State() == Closed
	}, 2*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, c.Send([]byte(`{}`)), ErrNotOpen)
	srv.Close()
}

func TestChannel_CloseIsIdempotent(t *testing.T) {
	srv, _, _ := testServer(t)
	defer srv.Close()

	c := NewChannel(testLogger(), &recordingDispatcher{})
	require.NoError(t, c.Dial(wsURL(srv)))

	require.NoError(t, c.Close())
	assert.Equal(t, Closed, c.State())
	assert.NoError(t, c.Close())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "closing", Closing.String())
	assert.Equal(t, "closed", Closed.String())
}
