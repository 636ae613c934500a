package server

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gonzalop/ftlite/internal/ratelimit"
)

// Option is a functional option for configuring a server.
type Option func(*Server) error

// WithDirectory sets the directory the server publishes.
// It can only be set once. If neither WithDirectory nor WithRootDir is
// given, the process working directory is served.
//
// Example:
//
//	dir, _ := server.NewFSDirectory("/srv/files")
//	s, _ := server.NewServer(":30021", server.WithDirectory(dir))
func WithDirectory(dir Directory) Option {
	return func(s *Server) error {
		if s.dir != nil {
			return fmt.Errorf("directory already set")
		}
		if dir == nil {
			return fmt.Errorf("directory is nil")
		}
		s.dir = dir
		return nil
	}
}

// WithRootDir serves the local directory at path. It is shorthand for
// WithDirectory with an FSDirectory.
func WithRootDir(path string) Option {
	return func(s *Server) error {
		dir, err := NewFSDirectory(path)
		if err != nil {
			return err
		}
		if err := WithDirectory(dir)(s); err != nil {
			dir.Close()
			return err
		}
		s.ownedDir = dir
		return nil
	}
}

// WithLogger sets a custom logger for the server.
// If not specified, slog.Default() is used.
//
// Example with debug logging:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	}))
//	s, _ := server.NewServer(":30021", server.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithMaxIdleTime sets how long a control connection may stay silent before
// its command arrives. Defaults to 5 minutes. Ignored when a read timeout is
// set with WithReadTimeout.
func WithMaxIdleTime(duration time.Duration) Option {
	return func(s *Server) error {
		s.maxIdleTime = duration
		return nil
	}
}

// WithReadTimeout sets the deadline for reading the command.
// If 0, WithMaxIdleTime applies.
func WithReadTimeout(timeout time.Duration) Option {
	return func(s *Server) error {
		s.readTimeout = timeout
		return nil
	}
}

// WithWriteTimeout sets the deadline for each write on the control and data
// connections. If 0, no timeout is applied.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(s *Server) error {
		s.writeTimeout = timeout
		return nil
	}
}

// WithDialTimeout sets the timeout for connecting back to the peer's data
// port. Defaults to 10 seconds.
func WithDialTimeout(timeout time.Duration) Option {
	return func(s *Server) error {
		s.dialTimeout = timeout
		return nil
	}
}

// WithMaxConnections limits the number of sessions served at once.
// Connections over the limit wait to be accepted instead of being refused.
// If 0, there is no limit. This is the default.
//
// WithMaxConnections(1) serves one session at a time, in arrival order.
func WithMaxConnections(max int) Option {
	return func(s *Server) error {
		if max < 0 {
			return fmt.Errorf("invalid max connections: %d", max)
		}
		s.maxConnections = max
		return nil
	}
}

// WithBandwidthLimit limits each data transfer to bytesPerSecond.
// If 0, transfers are not throttled.
func WithBandwidthLimit(bytesPerSecond int64) Option {
	return func(s *Server) error {
		s.bandwidthLimit = bytesPerSecond
		return nil
	}
}

// WithGlobalBandwidthLimit limits the combined throughput of all data
// transfers to bytesPerSecond. It composes with WithBandwidthLimit; the more
// restrictive limit wins.
func WithGlobalBandwidthLimit(bytesPerSecond int64) Option {
	return func(s *Server) error {
		s.globalLimiter = ratelimit.New(bytesPerSecond)
		return nil
	}
}

// WithMetricsCollector sets a collector for server metrics.
func WithMetricsCollector(collector MetricsCollector) Option {
	return func(s *Server) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTransferLog writes one xferlog formatted line per completed file
// transfer to w. Writes from concurrent sessions are serialized, so w need
// not be safe for concurrent use. Write errors are ignored.
//
// Example:
//
//	f, _ := os.OpenFile("/var/log/xferlog", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
//	s, _ := server.NewServer(":30021", server.WithTransferLog(f))
func WithTransferLog(w io.Writer) Option {
	return func(s *Server) error {
		s.transferLog = w
		return nil
	}
}

// WithPathRedactor sets a function applied to file names before logging.
func WithPathRedactor(redactor PathRedactor) Option {
	return func(s *Server) error {
		s.pathRedactor = redactor
		return nil
	}
}

// WithRedactIPs masks the last part of peer addresses in logs.
func WithRedactIPs(redact bool) Option {
	return func(s *Server) error {
		s.redactIPs = redact
		return nil
	}
}

// WithReusePort sets SO_REUSEPORT on the listener created by
// ListenAndServe, so several processes can share the control port.
// Returns an error from ListenAndServe on platforms without support.
func WithReusePort(enable bool) Option {
	return func(s *Server) error {
		s.reusePort = enable
		return nil
	}
}
