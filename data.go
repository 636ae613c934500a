package ftlite

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// listenData opens the listener the server connects back to.
// It listens on the control connection's local address unless WithDataHost
// overrides it, on the WithDataPort port or an ephemeral one.
func (c *Client) listenData(ctrl net.Conn) (*dataListener, error) {
	host := c.dataHost
	if host == "" {
		var err error
		host, _, err = net.SplitHostPort(ctrl.LocalAddr().String())
		if err != nil {
			host = ""
		}
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(c.dataPort)))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for data connection: %w", err)
	}

	return &dataListener{listener: ln, timeout: c.timeout}, nil
}

// dataListener is the client end of a data connection. The server dials
// in only after it has acknowledged the command, so the connection is
// accepted lazily on the first Read.
type dataListener struct {
	listener net.Listener
	conn     net.Conn
	timeout  time.Duration
}

// port returns the port to announce in the command.
func (d *dataListener) port() int {
	if addr, ok := d.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	_, p, _ := net.SplitHostPort(d.listener.Addr().String())
	n, _ := strconv.Atoi(p)
	return n
}

func (d *dataListener) accept() error {
	if d.timeout > 0 {
		if l, ok := d.listener.(*net.TCPListener); ok {
			_ = l.SetDeadline(time.Now().Add(d.timeout))
		}
	}
	conn, err := d.listener.Accept()
	if err != nil {
		return fmt.Errorf("failed to accept data connection: %w", err)
	}
	d.conn = conn
	return nil
}

func (d *dataListener) Read(p []byte) (int, error) {
	if d.conn == nil {
		if err := d.accept(); err != nil {
			return 0, err
		}
	}
	if d.timeout > 0 {
		_ = d.conn.SetReadDeadline(time.Now().Add(d.timeout))
	}
	return d.conn.Read(p)
}

// Close closes the accepted connection, if any, and the listener.
func (d *dataListener) Close() error {
	var connErr error
	if d.conn != nil {
		connErr = d.conn.Close()
	}
	lnErr := d.listener.Close()
	if connErr != nil {
		return connErr
	}
	return lnErr
}

// timeoutConn refreshes the read or write deadline before each operation
// on the control connection.
type timeoutConn struct {
	net.Conn
	timeout time.Duration
}

func (c *timeoutConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

func (c *timeoutConn) Write(b []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}
