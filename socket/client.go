package socket

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/kleeedolinux/liveview/wire"
)

// Client speaks the browser side of the liveview protocol: it mounts
// liveviews, emits event frames, answers health pings and reconnects after a
// dropped connection. It is meant for tools and tests.
type Client struct {
	mu        sync.RWMutex
	conn      Transport
	mounted   []string
	connected bool
	// closedForGood stops reconnects, after Close or a liveview-gone message.
	closedForGood bool

	onMessage    []func(msg wire.ServerMessage)
	onDisconnect []func(err error)

	reconnectDelay    time.Duration
	maxReconnectDelay time.Duration
	reconnectAttempts int

	ctx        context.Context
	cancelFunc context.CancelFunc
}

type Transport interface {
	Connect(ctx context.Context) error
	Send(data []byte) error
	Receive() ([]byte, error)
	Close() error
}

type ClientOption func(*Client)

func WithReconnectDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.reconnectDelay = d
	}
}

func WithMaxReconnectDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxReconnectDelay = d
	}
}

// WithReconnectAttempts limits reconnects after a drop. Zero disables them;
// a negative value retries forever.
func WithReconnectAttempts(attempts int) ClientOption {
	return func(c *Client) {
		c.reconnectAttempts = attempts
	}
}

func NewClient(transport Transport, opts ...ClientOption) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	client := &Client{
		conn:              transport,
		reconnectDelay:    1 * time.Second,
		maxReconnectDelay: 30 * time.Second,
		reconnectAttempts: -1,
		ctx:               ctx,
		cancelFunc:        cancel,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Connect dials the server and mounts every liveview mounted so far.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	if c.closedForGood {
		c.mu.Unlock()
		return ErrConnectionClosed
	}

	if err := c.conn.Connect(c.ctx); err != nil {
		c.mu.Unlock()
		return err
	}

	c.connected = true
	toMount := append([]string(nil), c.mounted...)
	c.mu.Unlock()

	go c.receiveLoop()

	for _, id := range toMount {
		if err := c.emit(id, wire.TopicMount, nil); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) receiveLoop() {
	for {
		data, err := c.conn.Receive()
		if err != nil {
			c.handleDisconnect(err)
			return
		}

		msg, err := wire.DecodeServerMessage(data)
		if err != nil {
			log.Debugf("client: dropping server message: %v", err)
			continue
		}

		switch msg.T {
		case wire.TypeHealth:
			if err := c.conn.Send(wire.HealthReply()); err != nil {
				c.handleDisconnect(err)
				return
			}
			continue
		case wire.TypeLiveviewGone:
			log.Warnf("client: liveview %s is gone, not reconnecting", msg.I)
			c.mu.Lock()
			c.closedForGood = true
			c.mu.Unlock()
		}

		c.mu.RLock()
		handlers := c.onMessage
		c.mu.RUnlock()
		for _, handler := range handlers {
			handler(msg)
		}

		if msg.T == wire.TypeLiveviewGone {
			c.Close()
			return
		}
	}
}

func (c *Client) handleDisconnect(err error) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}

	c.connected = false
	retry := !c.closedForGood && c.reconnectAttempts != 0
	handlers := c.onDisconnect
	c.mu.Unlock()

	for _, handler := range handlers {
		handler(err)
	}

	if retry {
		go c.reconnect()
	}
}

func (c *Client) reconnect() {
	delay := c.reconnectDelay
	attempts := 0

	for c.reconnectAttempts < 0 || attempts < c.reconnectAttempts {
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(delay):
			if err := c.Connect(); err == nil {
				return
			} else if errors.Is(err, ErrConnectionClosed) {
				return
			}

			attempts++
			delay = c.nextDelay(delay)
		}
	}
}

// nextDelay doubles the reconnect delay, capped at the maximum.
func (c *Client) nextDelay(delay time.Duration) time.Duration {
	return min(2*delay, c.maxReconnectDelay)
}

// Mount registers liveview IDs, sending a mount frame now if connected and
// again after every reconnect.
func (c *Client) Mount(liveviewIDs ...string) error {
	c.mu.Lock()
	for _, id := range liveviewIDs {
		if !slices.Contains(c.mounted, id) {
			c.mounted = append(c.mounted, id)
		}
	}
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		return nil
	}
	for _, id := range liveviewIDs {
		if err := c.emit(id, wire.TopicMount, nil); err != nil {
			return err
		}
	}
	return nil
}

// Emit sends one event frame. data is encoded as the frame's data object,
// using the short keys documented in package wire.
func (c *Client) Emit(liveviewID, topic string, data any) error {
	if !c.IsConnected() {
		return ErrConnectionClosed
	}
	return c.emit(liveviewID, topic, data)
}

func (c *Client) emit(liveviewID, topic string, data any) error {
	frame, err := wire.EncodeFrame(liveviewID, topic, data)
	if err != nil {
		return err
	}
	return c.conn.Send(frame)
}

func (c *Client) OnMessage(handler func(msg wire.ServerMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onMessage = append(c.onMessage, handler)
}

func (c *Client) OnDisconnect(handler func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onDisconnect = append(c.onDisconnect, handler)
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.connected
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.closedForGood = true
	if !c.connected {
		c.mu.Unlock()
		c.cancelFunc()
		return nil
	}
	c.connected = false
	c.mu.Unlock()

	c.cancelFunc()
	return c.conn.Close()
}
