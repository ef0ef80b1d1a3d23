package socket

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"

	"github.com/kleeedolinux/liveview/socket/transport"
	"github.com/kleeedolinux/liveview/wire"
)

type Server struct {
	mu      sync.RWMutex
	sockets map[string]*socketImpl
	closed  bool

	handler Handler
	mounts  *MountRegistry
	metrics *Metrics

	pingInterval         time.Duration
	pingTimeout          time.Duration
	maxConcurrency       int
	concurrencySemaphore chan struct{}
	compressionEnabled   bool
	bufferSize           int
	maxDecodeErrors      int
	checkOrigin          func(r *http.Request) bool
}

func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		sockets:         make(map[string]*socketImpl),
		handler:         HandlerFuncs{},
		mounts:          NewMountRegistry(),
		pingInterval:    25 * time.Second,
		pingTimeout:     5 * time.Second,
		maxConcurrency:  100,
		bufferSize:      1024,
		maxDecodeErrors: 5,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	if s.maxConcurrency > 0 {
		s.concurrencySemaphore = make(chan struct{}, s.maxConcurrency)
	}

	return s
}

type ServerOption func(*Server)

func WithHandler(h Handler) ServerOption {
	return func(s *Server) {
		if h != nil {
			s.handler = h
		}
	}
}

// WithPingInterval sets how often the server sends a health ping. A
// non-positive interval turns heartbeats off.
func WithPingInterval(d time.Duration) ServerOption {
	return func(s *Server) {
		s.pingInterval = d
	}
}

// WithPingTimeout sets how long past one interval a client may stay silent
// before its socket is closed.
func WithPingTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.pingTimeout = d
	}
}

// WithMaxConcurrency caps open sockets. Zero means no limit.
func WithMaxConcurrency(maxConcurrent int) ServerOption {
	return func(s *Server) {
		s.maxConcurrency = maxConcurrent
	}
}

func WithCompression(enabled bool) ServerOption {
	return func(s *Server) {
		s.compressionEnabled = enabled
	}
}

func WithBufferSize(size int) ServerOption {
	return func(s *Server) {
		s.bufferSize = size
	}
}

// WithMaxDecodeErrors closes a socket after n consecutive malformed frames.
// Zero keeps the socket open regardless.
func WithMaxDecodeErrors(n int) ServerOption {
	return func(s *Server) {
		s.maxDecodeErrors = n
	}
}

func WithMetrics(m *Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithCheckOrigin replaces the upgrader's origin check, which by default
// accepts any origin.
func WithCheckOrigin(f func(r *http.Request) bool) ServerOption {
	return func(s *Server) {
		s.checkOrigin = f
	}
}

// AllowOrigins returns an origin check for WithCheckOrigin that accepts only
// the listed Origin header values. With no origins it accepts everything.
func AllowOrigins(origins ...string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		return slices.Contains(origins, r.Header.Get("Origin"))
	}
}

// HandleHTTP upgrades the request to a liveview socket.
func (s *Server) HandleHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		w.Header().Set("Upgrade", "websocket")
		http.Error(w, "websocket upgrade required", http.StatusUpgradeRequired)
		return
	}

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		http.Error(w, ErrServerShutdown.Error(), http.StatusServiceUnavailable)
		return
	}

	if s.concurrencySemaphore != nil {
		select {
		case s.concurrencySemaphore <- struct{}{}:
		default:
			log.Warnf("rejecting connection from %s: %v", r.RemoteAddr, ErrTooManyConnections)
			http.Error(w, "Too many connections", http.StatusServiceUnavailable)
			return
		}
	}

	upgrader := transport.Upgrader
	upgrader.EnableCompression = s.compressionEnabled
	upgrader.ReadBufferSize = s.bufferSize
	upgrader.WriteBufferSize = s.bufferSize
	if s.checkOrigin != nil {
		upgrader.CheckOrigin = s.checkOrigin
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.release()
		log.Infof("websocket upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	id := generateID()
	socket := newSocket(id, s, transport.NewWebSocketServerTransport(id, conn, s.transportConfig()))
	s.addSocket(socket)
}

// transportConfig derives the read deadline from the heartbeat. Without
// heartbeats an idle liveview is legitimate, so reads never time out.
func (s *Server) transportConfig() transport.WebSocketServerConfig {
	cfg := transport.DefaultWebSocketServerConfig()
	cfg.BufferSize = s.bufferSize
	if s.pingInterval > 0 {
		cfg.ReadTimeout = 3 * (s.pingInterval + s.pingTimeout)
	} else {
		cfg.ReadTimeout = 0
	}
	return cfg
}

func (s *Server) release() {
	if s.concurrencySemaphore != nil {
		<-s.concurrencySemaphore
	}
}

func (s *Server) addSocket(socket *socketImpl) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		socket.cancel()
		_ = socket.transport.Close()
		s.release()
		return
	}
	s.sockets[socket.id] = socket
	s.mu.Unlock()

	s.metrics.connections.Inc()
	log.Debugf("socket %s connected", socket.id)

	s.handler.Connect(socket)

	go socket.receiveLoop()
	if s.pingInterval > 0 {
		go s.heartbeat(socket)
	}
}

// removeSocket runs once per socket, from the socket's receive loop.
func (s *Server) removeSocket(socket *socketImpl, cause error) {
	s.mu.Lock()
	delete(s.sockets, socket.id)
	s.mu.Unlock()

	unmounted := s.mounts.UnmountAll(socket.id)
	s.metrics.connections.Dec()
	s.release()
	log.Debugf("socket %s disconnected, unmounted %v", socket.id, unmounted)

	s.handler.Disconnect(socket, cause)
}

// heartbeat pings the client every interval and closes the socket once
// nothing has been heard from it for interval+timeout.
func (s *Server) heartbeat(socket *socketImpl) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-socket.ctx.Done():
			return
		case <-ticker.C:
			if socket.idleFor() > s.pingInterval+s.pingTimeout {
				log.Infof("socket %s: no health reply for %s, closing", socket.id, socket.idleFor().Round(time.Millisecond))
				socket.closeWith(ErrHeartbeatTimeout)
				return
			}
			if err := socket.Send(wire.HealthPing()); err != nil {
				log.Debugf("socket %s: health ping failed: %v", socket.id, err)
				return
			}
		}
	}
}

// Send delivers msg to the socket that mounted liveviewID.
func (s *Server) Send(liveviewID string, msg wire.Outgoing) error {
	socket, ok := s.mounts.Lookup(liveviewID)
	if !ok {
		return ErrNotMounted
	}
	return socket.Send(msg)
}

// Broadcast sends msg to every open socket using a bounded worker pool and
// returns the combined send errors.
func (s *Server) Broadcast(msg wire.Outgoing) error {
	s.mu.RLock()
	socketsCopy := make([]Socket, 0, len(s.sockets))
	for _, socket := range s.sockets {
		socketsCopy = append(socketsCopy, socket)
	}
	s.mu.RUnlock()

	socketCount := len(socketsCopy)
	if socketCount == 0 {
		return nil
	}

	var (
		wg      sync.WaitGroup
		errMu   sync.Mutex
		sendErr error
	)
	workerCount := min(socketCount, 20)
	jobs := make(chan Socket, socketCount)

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for socket := range jobs {
				if err := socket.Send(msg); err != nil {
					log.Debugf("broadcast to %s failed: %v", socket.ID(), err)
					errMu.Lock()
					sendErr = multierr.Append(sendErr, err)
					errMu.Unlock()
				}
			}
		}()
	}

	for _, socket := range socketsCopy {
		jobs <- socket
	}
	close(jobs)

	wg.Wait()
	return sendErr
}

func (s *Server) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sockets)
}

func (s *Server) Mounts() *MountRegistry {
	return s.mounts
}

// Shutdown refuses new connections and closes every open socket, waiting
// until each one's Disconnect has run. It stops early if ctx ends, returning
// the context error with any close errors.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	sockets := make([]*socketImpl, 0, len(s.sockets))
	for _, socket := range s.sockets {
		sockets = append(sockets, socket)
	}
	s.mu.Unlock()

	var err error
	for _, socket := range sockets {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return multierr.Append(err, ctxErr)
		}
		err = multierr.Append(err, socket.closeWith(ErrServerShutdown))
	}

	for _, socket := range sockets {
		select {
		case <-socket.done:
		case <-ctx.Done():
			return multierr.Append(err, ctx.Err())
		}
	}

	return err
}
