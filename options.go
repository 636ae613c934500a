package ftlite

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/gonzalop/ftlite/internal/ratelimit"
)

// Option is a functional option for configuring a client.
type Option func(*Client) error

// WithTimeout sets the timeout for connecting and for every read or write
// on the control and data connections. Defaults to 30 seconds. Set to 0 to
// disable.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.timeout = timeout
		return nil
	}
}

// WithLogger enables debug logging using the provided logger.
// Commands, replies and transfer sizes are logged at debug level.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	}))
//	client, _ := ftlite.New("localhost:30021", ftlite.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithDialer sets a custom net.Dialer for the control connection.
// This can be used to configure source addresses, keep-alive settings, etc.
func WithDialer(dialer *net.Dialer) Option {
	return func(c *Client) error {
		if dialer == nil {
			return fmt.Errorf("dialer is nil")
		}
		c.dialer = dialer
		return nil
	}
}

// WithDataPort sets the port the client listens on for the server's data
// connection. By default an ephemeral port is used, which is what most
// callers want; a fixed port is useful when a firewall only opens a known
// port.
func WithDataPort(port int) Option {
	return func(c *Client) error {
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid data port: %d", port)
		}
		c.dataPort = port
		return nil
	}
}

// WithDataHost sets the local address the data listener binds to.
// By default the listener binds to the control connection's local address.
// Use "0.0.0.0" to listen on all interfaces.
func WithDataHost(host string) Option {
	return func(c *Client) error {
		c.dataHost = host
		return nil
	}
}

// WithBandwidthLimit limits the download rate to bytesPerSecond.
// If 0, downloads are not throttled.
func WithBandwidthLimit(bytesPerSecond int64) Option {
	return func(c *Client) error {
		c.limiter = ratelimit.New(bytesPerSecond)
		return nil
	}
}
