package socket

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/kleeedolinux/liveview/debug"
	"github.com/kleeedolinux/liveview/event"
	"github.com/kleeedolinux/liveview/wire"
)

var log = debug.Logger("socket")

// Socket is one connected liveview client.
type Socket interface {
	ID() string

	Send(msg wire.Outgoing) error

	// Mounted lists the liveview IDs the client mounted on this socket.
	Mounted() []string

	// Context is cancelled when the socket closes.
	Context() context.Context

	Close() error

	IsConnected() bool
}

// Incoming is one client event frame, classified. Data is nil for
// interactions that carry nothing beyond Msg: clicks and window focus/blur.
type Incoming struct {
	Socket     Socket
	LiveviewID string
	Topic      string
	Msg        json.RawMessage
	Data       event.Data
}

// Handler receives connection lifecycle and classified events. Mount,
// HandleEvent and Disconnect for one socket are made sequentially from that
// socket's receive goroutine, Disconnect last, even when the socket is closed
// from elsewhere. Connect runs before the receive goroutine starts.
type Handler interface {
	Connect(s Socket)
	Disconnect(s Socket, err error)
	Mount(s Socket, liveviewID string)
	HandleEvent(ctx context.Context, in Incoming)
}

// HandlerFuncs adapts plain functions to Handler. Nil fields are skipped.
type HandlerFuncs struct {
	OnConnect    func(s Socket)
	OnDisconnect func(s Socket, err error)
	OnMount      func(s Socket, liveviewID string)
	OnEvent      func(ctx context.Context, in Incoming)
}

func (h HandlerFuncs) Connect(s Socket) {
	if h.OnConnect != nil {
		h.OnConnect(s)
	}
}

func (h HandlerFuncs) Disconnect(s Socket, err error) {
	if h.OnDisconnect != nil {
		h.OnDisconnect(s, err)
	}
}

func (h HandlerFuncs) Mount(s Socket, liveviewID string) {
	if h.OnMount != nil {
		h.OnMount(s, liveviewID)
	}
}

func (h HandlerFuncs) HandleEvent(ctx context.Context, in Incoming) {
	if h.OnEvent != nil {
		h.OnEvent(ctx, in)
	}
}

var (
	ErrConnectionClosed    = errors.New("connection closed")
	ErrNotMounted          = errors.New("liveview not mounted")
	ErrHeartbeatTimeout    = errors.New("no health reply from client")
	ErrTooManyDecodeErrors = errors.New("too many malformed frames")
	ErrServerShutdown      = errors.New("server shut down")
	ErrTooManyConnections  = errors.New("too many connections")
)
