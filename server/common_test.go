package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

func fatalIfErr(t *testing.T, err error, format string, args ...interface{}) {
	t.Helper()
	if err != nil {
		t.Fatalf(format+": %v", append(args, err)...)
	}
}

// discardLogger keeps test output quiet.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memDirectory is an in-memory Directory that records which files were
// opened.
type memDirectory struct {
	mu         sync.Mutex
	files      map[string][]byte
	entriesErr error
	openErr    error
	opened     []string
}

func newMemDirectory(files map[string][]byte) *memDirectory {
	return &memDirectory{files: files}
}

func (d *memDirectory) Entries() ([]string, error) {
	if d.entriesErr != nil {
		return nil, d.entriesErr
	}
	names := make([]string, 0, len(d.files))
	for name := range d.files {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (d *memDirectory) Open(name string) (io.ReadCloser, error) {
	d.mu.Lock()
	d.opened = append(d.opened, name)
	d.mu.Unlock()

	if d.openErr != nil {
		return nil, d.openErr
	}
	data, ok := d.files[name]
	if !ok {
		return nil, errors.New("no such file")
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (d *memDirectory) openedNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.opened)
}

// startServer serves on a loopback port and shuts down on cleanup.
// It returns the server and its control address.
func startServer(t *testing.T, options ...Option) (*Server, string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	fatalIfErr(t, err, "Failed to listen")

	options = append([]Option{WithLogger(discardLogger())}, options...)
	s, err := NewServer(ln.Addr().String(), options...)
	if err != nil {
		ln.Close()
		t.Fatalf("NewServer failed: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ln)
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
		<-errCh
	})

	return s, ln.Addr().String()
}

// sessionResult is what a peer observed during one session.
type sessionResult struct {
	replies []string
	payload []byte
	dialed  bool
}

// exchange runs one session against addr the way a client would: it opens
// a data listener, sends the command built by format and collects the
// replies and the payload.
func exchange(t *testing.T, addr string, format func(dataPort int) string) sessionResult {
	t.Helper()
	res, err := tryExchange(addr, format)
	fatalIfErr(t, err, "Session with %s failed", addr)
	return res
}

// tryExchange is exchange for goroutines other than the test's own.
func tryExchange(addr string, format func(dataPort int) string) (sessionResult, error) {
	var res sessionResult

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return res, fmt.Errorf("open data listener: %w", err)
	}
	defer ln.Close()
	dataPort := ln.Addr().(*net.TCPAddr).Port

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return res, err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	if _, err := io.WriteString(conn, format(dataPort)); err != nil {
		return res, fmt.Errorf("send command: %w", err)
	}

	r := bufio.NewReader(conn)
	for len(res.replies) < 2 {
		line, err := r.ReadString('\n')
		if line != "" {
			res.replies = append(res.replies, strings.TrimRight(line, "\n"))
		}
		if err != nil {
			break
		}
	}

	tcpLn := ln.(*net.TCPListener)
	_ = tcpLn.SetDeadline(time.Now().Add(200 * time.Millisecond))
	if len(res.replies) == 2 && res.replies[1] == "ACK: data connection successful" {
		_ = tcpLn.SetDeadline(time.Now().Add(5 * time.Second))
	}
	data, err := tcpLn.Accept()
	if err != nil {
		return res, nil
	}
	defer data.Close()
	res.dialed = true

	_ = data.SetReadDeadline(time.Now().Add(10 * time.Second))
	res.payload, err = io.ReadAll(data)
	if err != nil {
		return res, fmt.Errorf("read payload: %w", err)
	}
	return res, nil
}

// syncBuffer is a bytes buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
