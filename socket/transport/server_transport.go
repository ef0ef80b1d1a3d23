package transport

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kleeedolinux/liveview/debug"
)

var log = debug.Logger("transport")

var (
	ErrClosed     = errors.New("transport closed")
	ErrBufferFull = errors.New("send buffer full")
)

type ServerTransport interface {
	Read() ([]byte, error)

	Write([]byte) error

	Close() error

	ID() string
}

type WebSocketServerTransport struct {
	id           string
	conn         *websocket.Conn
	sendCh       chan []byte
	closeCh      chan struct{}
	writeWg      sync.WaitGroup
	writeTimeout time.Duration
	readTimeout  time.Duration
	mu           sync.Mutex
	closed       bool
}

type WebSocketServerConfig struct {
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	BufferSize   int
	// ReadLimit caps the size of one incoming frame in bytes.
	ReadLimit int64
}

func DefaultWebSocketServerConfig() WebSocketServerConfig {
	return WebSocketServerConfig{
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  60 * time.Second,
		BufferSize:   100,
		ReadLimit:    64 << 10,
	}
}

func NewWebSocketServerTransport(id string, conn *websocket.Conn, config WebSocketServerConfig) *WebSocketServerTransport {
	if config.BufferSize <= 0 {
		config.BufferSize = 1
	}
	t := &WebSocketServerTransport{
		id:           id,
		conn:         conn,
		sendCh:       make(chan []byte, config.BufferSize),
		closeCh:      make(chan struct{}),
		writeTimeout: config.WriteTimeout,
		readTimeout:  config.ReadTimeout,
	}
	if config.ReadLimit > 0 {
		conn.SetReadLimit(config.ReadLimit)
	}

	t.writeWg.Add(1)
	go t.writePump()

	return t
}

func (t *WebSocketServerTransport) writePump() {
	defer t.writeWg.Done()

	for {
		select {
		case <-t.closeCh:
			return
		case message := <-t.sendCh:
			if t.writeTimeout > 0 {
				_ = t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
			}

			if err := t.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debugf("transport %s: write failed: %v", t.id, err)
				go t.Close()
				return
			}
		}
	}
}

// Read blocks for the next text frame. Only one goroutine may call Read.
func (t *WebSocketServerTransport) Read() ([]byte, error) {
	if t.readTimeout > 0 {
		if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
			return nil, err
		}
	}

	_, message, err := t.conn.ReadMessage()
	if err != nil {
		log.Debugf("transport %s: read failed: %v", t.id, err)
		t.Close()
		return nil, err
	}

	log.Debugf("transport %s: received %s", t.id, message)
	return message, nil
}

// Write queues data for the write pump. A full queue means the client is
// not keeping up, and the connection is closed.
func (t *WebSocketServerTransport) Write(data []byte) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()

	if closed {
		return ErrClosed
	}

	log.Debugf("transport %s: sending %s", t.id, data)

	select {
	case t.sendCh <- data:
		return nil
	default:
		log.Warnf("transport %s: send buffer full, closing connection", t.id)
		t.Close()
		return ErrBufferFull
	}
}

func (t *WebSocketServerTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}

	t.closed = true
	close(t.closeCh)
	t.mu.Unlock()

	t.writeWg.Wait()

	err := t.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	if err != nil {
		log.Debugf("transport %s: close frame not sent: %v", t.id, err)
	}
	return t.conn.Close()
}

func (t *WebSocketServerTransport) ID() string {
	return t.id
}

// Upgrader accepts connections from any origin. Servers that embed liveview
// pages on a known host should copy it and set CheckOrigin.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}
