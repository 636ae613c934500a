package server

import (
	"fmt"
	"io"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/gonzalop/ftlite/internal/wire"
)

var chunkPool = sync.Pool{
	New: func() any {
		b := make([]byte, wire.ChunkSize)
		return &b
	},
}

// streamFile copies r to w in wire.ChunkSize reads, writing exactly the
// bytes each read returned. It returns the number of bytes written.
// Read failures wrap ErrFileRead; write failures are returned as is.
func streamFile(w io.Writer, r io.Reader) (int64, error) {
	bufp := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(bufp)
	buf := *bufp

	var total int64
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return total, err
			}
			total += int64(n)
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, fmt.Errorf("%w: %w", ErrFileRead, rerr)
		}
	}
}

// exists reports whether name is an entry of the served directory.
func (s *session) exists(name string) (bool, error) {
	if isPseudoEntry(name) {
		return false, nil
	}
	entries, err := s.server.dir.Entries()
	if err != nil {
		return false, err
	}
	return slices.Contains(entries, name), nil
}

// handleGet streams the requested file over data.
//
// The file is opened before the data phase reply: a missing name gets
// ReplyFileNotFound and is never opened, an open failure gets
// ReplyReadFailed. Once the reply is sent, a failure can only be signaled
// by closing the data connection early.
func (s *session) handleGet(data net.Conn) error {
	name := s.cmd.Filename

	found, err := s.exists(name)
	if err != nil {
		if replyErr := s.reply(wire.ReplyReadFailed); replyErr != nil {
			return replyErr
		}
		return fmt.Errorf("%w: list directory: %w", ErrFileRead, err)
	}
	if !found {
		if err := s.reply(wire.ReplyFileNotFound); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrFileNotFound, s.redactPath(name))
	}

	file, err := s.server.dir.Open(name)
	if err != nil {
		if replyErr := s.reply(wire.ReplyReadFailed); replyErr != nil {
			return replyErr
		}
		return fmt.Errorf("%w: open %s: %w", ErrFileRead, s.redactPath(name), err)
	}
	defer file.Close()

	if err := s.reply(wire.ReplyDataConnOK); err != nil {
		return err
	}

	s.setState(stateTransferring)
	start := time.Now()

	n, err := streamFile(s.dataWriter(data), file)
	if err != nil {
		return fmt.Errorf("transfer of %s aborted after %d bytes: %w", s.redactPath(name), n, err)
	}
	duration := time.Since(start)

	throughputMBps := float64(0)
	if duration.Seconds() > 0 {
		throughputMBps = float64(n) / duration.Seconds() / 1024 / 1024
	}

	s.server.logger.Info("transfer_complete",
		"session_id", s.sessionID,
		"remote_ip", s.redactIP(s.remoteIP),
		"path", s.redactPath(name),
		"bytes", n,
		"duration_ms", duration.Milliseconds(),
		"throughput_mbps", fmt.Sprintf("%.2f", throughputMBps),
	)

	if s.server.metricsCollector != nil {
		s.server.metricsCollector.RecordTransfer("get", n, duration)
	}

	s.logTransfer(name, n, duration)
	return nil
}

// logTransfer logs a completed file transfer in xferlog format.
// Format: current-time transfer-time remote-host file-size filename transfer-type special-action-flag direction access-mode username service-name authentication-method authenticated-user-id completion-status
func (s *session) logTransfer(filename string, bytes int64, duration time.Duration) {
	if s.server.transferLog == nil {
		return
	}

	transferTime := int64(duration.Seconds())
	if transferTime == 0 {
		transferTime = 1
	}

	// Binary, no special action, outgoing, anonymous user, no
	// authentication, complete.
	line := fmt.Sprintf("%s %d %s %d %s b _ o a anonymous ftlite 0 * c\n",
		time.Now().Format("Mon Jan 02 15:04:05 2006"),
		transferTime,
		s.remoteIP,
		bytes,
		filename,
	)

	s.server.transferLogMu.Lock()
	defer s.server.transferLogMu.Unlock()
	_, _ = io.WriteString(s.server.transferLog, line)
}
