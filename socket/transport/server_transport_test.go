package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve upgrades every request into a server transport built from cfg and
// hands it to the test, along with the request headers.
func serve(t *testing.T, cfg WebSocketServerConfig) (string, chan *WebSocketServerTransport, chan http.Header) {
	t.Helper()
	transports := make(chan *WebSocketServerTransport, 4)
	headers := make(chan http.Header, 4)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		transports <- NewWebSocketServerTransport("srv", conn, cfg)
	}))
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + LivePath, transports, headers
}

func waitFor[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
	var zero T
	return zero
}

func dial(t *testing.T, url string, opts ...WebSocketOption) *WebSocketTransport {
	t.Helper()
	c := NewWebSocketTransport(url, opts...)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestServerTransportReadTimeout(t *testing.T) {
	cfg := DefaultWebSocketServerConfig()
	cfg.ReadTimeout = 50 * time.Millisecond
	url, transports, _ := serve(t, cfg)
	dial(t, url)
	srv := waitFor(t, transports)

	start := time.Now()
	_, err := srv.Read()
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, srv.Write([]byte(`{"t":"h"}`)), ErrClosed)
}

func TestServerTransportWithoutReadTimeoutWaits(t *testing.T) {
	cfg := DefaultWebSocketServerConfig()
	cfg.ReadTimeout = 0
	url, transports, _ := serve(t, cfg)
	client := dial(t, url)
	srv := waitFor(t, transports)

	type result struct {
		data []byte
		err  error
	}
	results := make(chan result, 1)
	go func() {
		data, err := srv.Read()
		results <- result{data, err}
	}()

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, results)

	require.NoError(t, client.Send([]byte(`{"h":"ok"}`)))
	got := waitFor(t, results)
	require.NoError(t, got.err)
	assert.Equal(t, `{"h":"ok"}`, string(got.data))
	require.NoError(t, srv.Close())
}

func TestServerTransportWriteReachesClient(t *testing.T) {
	url, transports, _ := serve(t, DefaultWebSocketServerConfig())
	client := dial(t, url)
	srv := waitFor(t, transports)
	t.Cleanup(func() { _ = srv.Close() })

	require.NoError(t, srv.Write([]byte(`{"t":"h"}`)))
	data, err := client.Receive()
	require.NoError(t, err)
	assert.Equal(t, `{"t":"h"}`, string(data))
	assert.Equal(t, "srv", srv.ID())
}

func TestLiveURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:4000/live", LiveURL("localhost", 4000, false))
	assert.Equal(t, "wss://example.com:443/live", LiveURL("example.com", 443, true))
	assert.Equal(t, "ws://[::1]:4000/live", LiveURL("::1", 4000, false))
}

func TestClientTransportSendsHeaders(t *testing.T) {
	url, transports, headers := serve(t, DefaultWebSocketServerConfig())
	dial(t, url, WithHeaders(http.Header{"Origin": {"http://app.test"}}))
	srv := waitFor(t, transports)
	t.Cleanup(func() { _ = srv.Close() })

	assert.Equal(t, "http://app.test", waitFor(t, headers).Get("Origin"))
}

func TestClientTransportSkipsNonTextFrames(t *testing.T) {
	upgraded := make(chan *websocket.Conn, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		upgraded <- conn
	}))
	t.Cleanup(ts.Close)

	client := dial(t, "ws"+strings.TrimPrefix(ts.URL, "http")+LivePath, WithReadTimeout(time.Second))
	conn := waitFor(t, upgraded)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"t":"h"}`)))

	data, err := client.Receive()
	require.NoError(t, err)
	assert.Equal(t, `{"t":"h"}`, string(data))
}

func TestClientTransportClosed(t *testing.T) {
	c := NewWebSocketTransport("ws://127.0.0.1:1/live")
	assert.ErrorIs(t, c.Send([]byte("x")), ErrClosed)
	_, err := c.Receive()
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, c.Close())
}
