package server

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/gonzalop/ftlite/internal/ratelimit"
)

// dialData connects back to the peer on port. The peer is the host the
// control connection came from; no local port is bound. Every failure
// wraps ErrDataConnection. The caller owns the returned connection.
func (s *session) dialData(port int) (net.Conn, error) {
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", ErrDataConnection, port)
	}

	remoteAddr := s.conn.RemoteAddr().String()
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	s.server.logger.Debug("dialing data connection",
		"session_id", s.sessionID,
		"remote_ip", s.redactIP(s.remoteIP),
		"data_port", port,
	)

	d := net.Dialer{Timeout: s.server.dialTimeout}
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataConnection, err)
	}

	s.server.trackConnection(conn, true)
	return &trackingConn{Conn: conn, server: s.server}, nil
}

// dataWriter returns the writer payloads go through: write deadlines, then
// the per-transfer and global bandwidth limits.
func (s *session) dataWriter(conn net.Conn) io.Writer {
	var w io.Writer = &deadlineConn{Conn: conn, timeout: s.server.writeTimeout}

	if s.server.bandwidthLimit > 0 {
		w = ratelimit.NewWriter(w, ratelimit.New(s.server.bandwidthLimit))
	}
	if s.server.globalLimiter != nil {
		w = ratelimit.NewWriter(w, s.server.globalLimiter)
	}
	return w
}

// deadlineConn sets a fresh write deadline before every write, so a slow
// but steady transfer is not cut off while a stalled one is.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(b)
}
