package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/netutil"

	"github.com/gonzalop/ftlite/internal/ratelimit"
)

// Server is the file transfer server.
//
// It accepts control connections and runs one session per connection in its
// own goroutine. A session reads a single command, acknowledges it, connects
// back to the peer for the data transfer and then closes both connections.
//
// Lifecycle:
//  1. Create server with NewServer()
//  2. Start with ListenAndServe() or Serve()
//  3. Server runs until Shutdown() is called or the listener is closed
//
// Basic example:
//
//	s, err := server.NewServer(":30021", server.WithRootDir("/srv/files"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(s.ListenAndServe())
type Server struct {
	// addr is the TCP address to listen on (e.g., ":30021").
	addr string

	// dir is the published directory.
	dir Directory

	// ownedDir is set when the server opened dir itself and must close it.
	ownedDir     *FSDirectory
	closeDirOnce sync.Once

	logger *slog.Logger

	// maxIdleTime bounds the wait for the command. Defaults to 5 minutes.
	maxIdleTime time.Duration

	// readTimeout overrides maxIdleTime when non-zero.
	readTimeout time.Duration

	// writeTimeout is the deadline for each write on either connection.
	writeTimeout time.Duration

	// dialTimeout bounds the data connection dial. Defaults to 10 seconds.
	dialTimeout time.Duration

	// maxConnections caps concurrent sessions. 0 means no limit.
	maxConnections int

	// bandwidthLimit is the per-transfer limit in bytes per second.
	bandwidthLimit int64

	// globalLimiter is shared by every transfer. Nil when unlimited.
	globalLimiter *ratelimit.Limiter

	metricsCollector MetricsCollector

	// transferLog receives xferlog lines; transferLogMu serializes writes.
	transferLog   io.Writer
	transferLogMu sync.Mutex

	pathRedactor PathRedactor
	redactIPs    bool
	reusePort    bool

	// activeConns counts running sessions.
	activeConns atomic.Int32

	// Shutdown handling
	mu         sync.Mutex
	listener   net.Listener
	conns      map[net.Conn]struct{}
	sessions   sync.WaitGroup
	inShutdown atomic.Bool
}

// NewServer creates a new server with the given address and options.
// The address should be in the form ":port" or "host:port".
//
// Default values:
//   - Directory: the process working directory
//   - Logger: slog.Default()
//   - MaxIdleTime: 5 minutes
//   - DialTimeout: 10 seconds
//   - MaxConnections: 0 (unlimited)
func NewServer(addr string, options ...Option) (*Server, error) {
	s := &Server{
		addr:        addr,
		logger:      slog.Default(),
		maxIdleTime: 5 * time.Minute,
		dialTimeout: 10 * time.Second,
		conns:       make(map[net.Conn]struct{}),
	}

	for _, opt := range options {
		if err := opt(s); err != nil {
			s.closeOwnedDir()
			return nil, err
		}
	}

	if s.dir == nil {
		dir, err := NewFSDirectory(".")
		if err != nil {
			return nil, fmt.Errorf("failed to open working directory: %w", err)
		}
		s.dir = dir
		s.ownedDir = dir
	}

	return s, nil
}

// ListenAndServe listens on the configured address and calls Serve.
// It blocks until the server stops.
func (s *Server) ListenAndServe() error {
	ln, err := s.listen()
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.logger.Info("server listening", "addr", ln.Addr().String())
	return s.Serve(ln)
}

func (s *Server) listen() (net.Listener, error) {
	var lc net.ListenConfig
	if s.reusePort {
		lc.Control = reusePortControl
	}
	return lc.Listen(context.Background(), "tcp", s.addr)
}

// Serve accepts control connections on l until the listener is closed or
// Shutdown is called. Every connection is served in its own goroutine.
// Errors inside a session never stop Serve.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.inShutdown.Load() {
		s.mu.Unlock()
		l.Close()
		return ErrServerClosed
	}
	if s.maxConnections > 0 {
		l = netutil.LimitListener(l, s.maxConnections)
	}
	s.listener = l
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.listener == l {
			s.listener = nil
		}
		s.mu.Unlock()
		l.Close()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			if s.inShutdown.Load() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.logger.Error("accept error", "error", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if !s.acceptSession(conn) {
			s.recordConnection(false, "shutting_down")
			continue
		}
		s.recordConnection(true, "accepted")

		go s.handleConnection(conn)
	}
}

// Shutdown stops the server.
//
// It closes the listener, then waits for running sessions to finish. If ctx
// expires first, the remaining control and data connections are closed and
// ctx.Err() is returned. Either way a directory opened through WithRootDir
// is closed.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.inShutdown.Store(true)
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.closeOwnedDir()
		return err
	case <-ctx.Done():
		s.closeConns()
		s.closeOwnedDir()
		return ctx.Err()
	}
}

// closeOwnedDir releases a directory opened by the server itself.
func (s *Server) closeOwnedDir() {
	if s.ownedDir == nil {
		return
	}
	s.closeDirOnce.Do(func() {
		s.ownedDir.Close()
	})
}

// ActiveSessions returns the number of sessions being served.
func (s *Server) ActiveSessions() int {
	return int(s.activeConns.Load())
}

func (s *Server) closeConns() {
	s.mu.Lock()
	conns := s.conns
	s.conns = make(map[net.Conn]struct{})
	s.mu.Unlock()

	for conn := range maps.Keys(conns) {
		conn.Close()
	}
}

// acceptSession registers a control connection. It returns false, after
// closing conn, if the server is shutting down.
func (s *Server) acceptSession(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inShutdown.Load() {
		conn.Close()
		return false
	}
	s.conns[conn] = struct{}{}
	s.sessions.Add(1)
	return true
}

// handleConnection serves one control connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.sessions.Done()
	defer s.trackConnection(conn, false)

	s.activeConns.Add(1)
	defer s.activeConns.Add(-1)

	session := newSession(s, conn)
	session.serve()
}

// trackConnection adds or removes a connection from the set closed by a
// forced shutdown.
func (s *Server) trackConnection(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

// trackingConn wraps a data connection to untrack it on Close.
type trackingConn struct {
	net.Conn
	server *Server
}

func (c *trackingConn) Close() error {
	c.server.trackConnection(c.Conn, false)
	return c.Conn.Close()
}

func (s *Server) recordConnection(accepted bool, reason string) {
	if s.metricsCollector != nil {
		s.metricsCollector.RecordConnection(accepted, reason)
	}
}

// redactPath returns the path with redaction applied if enabled.
func (s *Server) redactPath(path string) string {
	if s.pathRedactor == nil {
		return path
	}
	return s.pathRedactor(path)
}

// redactIP masks the host part of ip if enabled: the last octet of an IPv4
// address, everything past the /48 prefix of an IPv6 one.
func (s *Server) redactIP(ip string) string {
	if !s.redactIPs {
		return ip
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "redacted"
	}
	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.x", v4[0], v4[1], v4[2])
	}
	return parsed.Mask(net.CIDRMask(48, 128)).String() + "/48"
}
