package ftlite

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/gonzalop/ftlite/internal/ratelimit"
	"github.com/gonzalop/ftlite/internal/wire"
)

// Client talks to an ftlite server. It holds no connection: every request
// opens its own control connection and data listener and closes both when
// it returns. A Client is safe for concurrent use as long as WithDataPort is
// not set, since each concurrent request needs its own data port.
type Client struct {
	// addr is the server's control address ("host:port")
	addr string

	// timeout bounds dialing and every read or write
	timeout time.Duration

	// logger is used for debug logging
	logger *slog.Logger

	// dialer is used to establish control connections
	dialer *net.Dialer

	// dataHost overrides the address the data listener binds to
	dataHost string

	// dataPort is the data listener port; 0 picks an ephemeral port
	dataPort int

	// limiter throttles data reads; nil when unlimited
	limiter *ratelimit.Limiter
}

// New returns a client for the server at addr, in the form "host:port".
// No connection is made until a request is issued.
//
// Example:
//
//	client, err := ftlite.New("files.example.com:30021")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	names, err := client.List()
func New(addr string, options ...Option) (*Client, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	c := &Client{
		addr:    addr,
		timeout: 30 * time.Second,
		dialer:  &net.Dialer{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})), // No-op logger by default
	}

	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	c.dialer.Timeout = c.timeout

	return c, nil
}

// List returns the names in the server's directory, in the order the
// server sent them.
func (c *Client) List() ([]string, error) {
	var buf bytes.Buffer
	if err := c.do(wire.FormatList, &buf); err != nil {
		return nil, err
	}
	return splitListing(buf.String()), nil
}

// Retrieve downloads the named file and writes its content to w.
// A missing file is reported as a *ProtocolError for which IsNotFound
// returns true.
//
// Example:
//
//	f, _ := os.Create("notes.txt")
//	defer f.Close()
//	if err := client.Retrieve("notes.txt", f); err != nil {
//	    log.Fatal(err)
//	}
func (c *Client) Retrieve(name string, w io.Writer) error {
	if name == "" || strings.ContainsAny(name, " \t\r\n\x00") {
		return fmt.Errorf("invalid file name: %q", name)
	}
	if len(name) > wire.MaxFileNameLength {
		return fmt.Errorf("file name too long: %d bytes, limit is %d", len(name), wire.MaxFileNameLength)
	}

	return c.do(func(port int) string {
		return wire.FormatGet(name, port)
	}, w)
}

// do runs one session: connect, listen for the data connection, send the
// command, check both replies and copy the payload to w.
func (c *Client) do(format func(dataPort int) string, w io.Writer) error {
	conn, err := c.dialer.Dial("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	data, err := c.listenData(conn)
	if err != nil {
		return err
	}
	defer data.Close()

	var ctrl net.Conn = conn
	if c.timeout > 0 {
		ctrl = &timeoutConn{Conn: conn, timeout: c.timeout}
	}

	cmd := format(data.port())
	cmdName := strings.TrimSpace(cmd)
	c.logger.Debug("ftlite command", "command", cmdName)

	if _, err := io.WriteString(ctrl, cmd); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}

	reader := bufio.NewReader(ctrl)

	// Syntax acknowledgment, then the data phase reply.
	for range 2 {
		if err := c.expectAck(reader, cmdName); err != nil {
			return err
		}
	}

	start := time.Now()
	n, err := io.Copy(w, ratelimit.NewReader(data, c.limiter))
	if err != nil {
		return fmt.Errorf("data transfer failed after %d bytes: %w", n, err)
	}

	c.logger.Debug("ftlite data transfer complete",
		"command", cmdName,
		"bytes", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// expectAck reads one reply line and returns a *ProtocolError unless it
// is a positive acknowledgment.
func (c *Client) expectAck(r *bufio.Reader, cmdName string) error {
	reply, err := readReply(r)
	if err != nil {
		return fmt.Errorf("failed to read reply: %w", err)
	}

	c.logger.Debug("ftlite reply", "command", cmdName, "reply", string(reply))

	if !reply.IsAck() {
		return &ProtocolError{Command: cmdName, Response: string(reply)}
	}
	return nil
}

// readReply reads one newline terminated reply. A final line cut short by
// the server closing the connection is still returned.
func readReply(r *bufio.Reader) (wire.Reply, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return wire.Reply(strings.TrimRight(line, "\r\n")), nil
}

// splitListing splits a listing payload into names, dropping empty fields.
func splitListing(payload string) []string {
	var names []string
	for name := range strings.SplitSeq(payload, "\n") {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
