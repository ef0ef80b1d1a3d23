package socket

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kleeedolinux/liveview/event"
	"github.com/kleeedolinux/liveview/socket/transport"
	"github.com/kleeedolinux/liveview/wire"
)

type socketImpl struct {
	id     string
	server *Server

	mu        sync.RWMutex
	mounted   map[string]struct{}
	connected bool
	cause     error

	// done is closed once the receive loop has removed the socket.
	done chan struct{}

	transport transport.ServerTransport
	lastSeen  atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
}

func newSocket(id string, server *Server, t transport.ServerTransport) *socketImpl {
	ctx, cancel := context.WithCancel(context.Background())
	s := &socketImpl{
		id:        id,
		server:    server,
		mounted:   make(map[string]struct{}),
		connected: true,
		done:      make(chan struct{}),
		transport: t,
		ctx:       ctx,
		cancel:    cancel,
	}
	s.touch()
	return s
}

func (s *socketImpl) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

func (s *socketImpl) idleFor() time.Duration {
	return time.Since(time.Unix(0, s.lastSeen.Load()))
}

// receiveLoop processes one frame at a time until the transport fails or the
// client keeps sending frames that do not decode. It owns the socket's
// removal, so Disconnect never overlaps a handler call for the same socket.
func (s *socketImpl) receiveLoop() {
	log.Debugf("socket %s: receive loop started", s.id)
	defer s.finish()

	decodeErrors := 0
	for {
		data, err := s.transport.Read()
		if err != nil {
			log.Debugf("socket %s: read error: %v", s.id, err)
			s.closeWith(err)
			return
		}

		frame, err := wire.DecodeFrame(data)
		if err != nil {
			decodeErrors++
			s.server.metrics.decodeErrors.Inc()
			log.Debugf("socket %s: dropping frame: %v", s.id, err)
			if limit := s.server.maxDecodeErrors; limit > 0 && decodeErrors >= limit {
				log.Warnf("socket %s: %d malformed frames in a row, closing", s.id, decodeErrors)
				s.closeWith(ErrTooManyDecodeErrors)
				return
			}
			continue
		}
		decodeErrors = 0
		s.touch()

		s.handleFrame(frame)
	}
}

func (s *socketImpl) handleFrame(frame wire.Frame) {
	switch {
	case frame.Health:
		return
	case frame.IsMount():
		s.mount(frame.LiveviewID)
		return
	}

	if !s.isMounted(frame.LiveviewID) {
		s.server.metrics.unmounted.Inc()
		log.Warnf("socket %s: event %s for unmounted liveview %q", s.id, frame.Topic, frame.LiveviewID)
		return
	}

	data, ok := event.From(frame.Message)
	s.server.metrics.observeEvent(data, ok)
	if ok {
		log.Debugf("socket %s: %s event for liveview %s", s.id, event.KindOf(data), frame.LiveviewID)
	}

	s.server.handler.HandleEvent(s.ctx, Incoming{
		Socket:     s,
		LiveviewID: frame.LiveviewID,
		Topic:      frame.Topic,
		Msg:        frame.Msg,
		Data:       data,
	})
}

func (s *socketImpl) mount(liveviewID string) {
	if liveviewID == "" {
		log.Warnf("socket %s: mount without liveview id", s.id)
		return
	}

	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		log.Debugf("socket %s: closed, ignoring mount of %s", s.id, liveviewID)
		return
	}
	s.mounted[liveviewID] = struct{}{}
	s.mu.Unlock()

	if previous := s.server.mounts.Mount(liveviewID, s); previous != nil && previous.ID() != s.id {
		if p, ok := previous.(*socketImpl); ok {
			p.forget(liveviewID)
		}
	}
	s.server.metrics.mounts.Inc()
	log.Debugf("socket %s: mounted liveview %s", s.id, liveviewID)

	s.server.handler.Mount(s, liveviewID)
}

func (s *socketImpl) forget(liveviewID string) {
	s.mu.Lock()
	delete(s.mounted, liveviewID)
	s.mu.Unlock()
}

func (s *socketImpl) isMounted(liveviewID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.mounted[liveviewID]
	return ok
}

func (s *socketImpl) ID() string {
	return s.id
}

func (s *socketImpl) Context() context.Context {
	return s.ctx
}

func (s *socketImpl) Mounted() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.mounted))
	for id := range s.mounted {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

func (s *socketImpl) Send(msg wire.Outgoing) error {
	if !s.IsConnected() {
		return ErrConnectionClosed
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.transport.Write(data)
}

func (s *socketImpl) Close() error {
	return s.closeWith(nil)
}

// closeWith closes the socket once, recording why. The handler's Disconnect
// sees cause, which is nil for a local Close. Disconnect itself runs later,
// from the receive loop.
func (s *socketImpl) closeWith(cause error) error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil
	}
	s.connected = false
	s.cause = cause
	s.mu.Unlock()

	log.Debugf("socket %s: closing (%v)", s.id, cause)
	s.cancel()
	return s.transport.Close()
}

func (s *socketImpl) finish() {
	s.closeWith(nil)

	s.mu.RLock()
	cause := s.cause
	s.mu.RUnlock()

	s.server.removeSocket(s, cause)
	close(s.done)
}

func (s *socketImpl) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.connected
}
