package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// LivePath is where a liveview server accepts sockets.
const LivePath = "/live"

// LiveURL is the socket address a liveview page served from host:port
// connects to. secure selects wss.
func LiveURL(host string, port int, secure bool) string {
	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   LivePath,
	}
	if secure {
		u.Scheme = "wss"
	}
	return u.String()
}

// WebSocketTransport is the dialing side of a liveview connection.
type WebSocketTransport struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	url          string
	dialer       *websocket.Dialer
	headers      http.Header
	connected    bool
	readTimeout  time.Duration
	writeTimeout time.Duration
	compression  bool
}

type WebSocketOption func(*WebSocketTransport)

func WithHeaders(headers http.Header) WebSocketOption {
	return func(t *WebSocketTransport) {
		t.headers = headers
	}
}

// WithReadTimeout bounds how long Receive waits for a frame. Zero disables
// the deadline.
func WithReadTimeout(timeout time.Duration) WebSocketOption {
	return func(t *WebSocketTransport) {
		t.readTimeout = timeout
	}
}

func WithWriteTimeout(timeout time.Duration) WebSocketOption {
	return func(t *WebSocketTransport) {
		t.writeTimeout = timeout
	}
}

func WithCompression(enabled bool) WebSocketOption {
	return func(t *WebSocketTransport) {
		t.compression = enabled
	}
}

func NewWebSocketTransport(url string, opts ...WebSocketOption) *WebSocketTransport {
	t := &WebSocketTransport{
		url:          url,
		dialer:       websocket.DefaultDialer,
		headers:      make(http.Header),
		readTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// NewLiveViewTransport dials the liveview socket of the server at host:port,
// the way the browser client does.
func NewLiveViewTransport(host string, port int, opts ...WebSocketOption) *WebSocketTransport {
	return NewWebSocketTransport(LiveURL(host, port, false), opts...)
}

func (t *WebSocketTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connected {
		return nil
	}

	log.Debugf("dialing %s", t.url)

	dialer := *t.dialer
	dialer.HandshakeTimeout = 10 * time.Second
	dialer.EnableCompression = t.compression

	conn, resp, err := dialer.DialContext(ctx, t.url, t.headers)
	if err != nil {
		// A refused upgrade still has a response; its status says why
		// (503 at capacity or shutting down, 403 for a rejected origin).
		if resp != nil {
			err = fmt.Errorf("dial %s: %w (HTTP %d)", t.url, err, resp.StatusCode)
		} else {
			err = fmt.Errorf("dial %s: %w", t.url, err)
		}
		log.Debugf("%v", err)
		return err
	}

	t.conn = conn
	t.connected = true

	return nil
}

func (t *WebSocketTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected || t.conn == nil {
		return ErrClosed
	}

	if t.writeTimeout > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
			return err
		}
	}

	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// Receive blocks for the next text frame. Only one goroutine may call
// Receive.
func (t *WebSocketTransport) Receive() ([]byte, error) {
	t.mu.Lock()
	conn := t.conn
	if !t.connected || conn == nil {
		t.mu.Unlock()
		return nil, ErrClosed
	}

	if t.readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
			t.mu.Unlock()
			return nil, err
		}
	}
	t.mu.Unlock()

	for {
		kind, message, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			if t.conn == conn {
				t.connected = false
				t.conn = nil
				_ = conn.Close()
			}
			t.mu.Unlock()
			return nil, err
		}
		// Liveview messages are JSON text; anything else is not for us.
		if kind != websocket.TextMessage {
			log.Debugf("skipping non-text frame from %s", t.url)
			continue
		}
		return message, nil
	}
}

func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected || t.conn == nil {
		return nil
	}

	err := t.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	if err != nil {
		log.Debugf("close frame to %s not sent: %v", t.url, err)
	}

	err = t.conn.Close()
	t.connected = false
	t.conn = nil

	return err
}
