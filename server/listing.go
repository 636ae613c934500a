package server

import (
	"bytes"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gonzalop/ftlite/internal/wire"
)

// isPseudoEntry reports the names never listed or served.
func isPseudoEntry(name string) bool {
	return name == "" || name == "." || name == ".."
}

// unlistable reports the names left out of a listing: pseudo entries and
// names containing the newline separator.
func unlistable(name string) bool {
	return isPseudoEntry(name) || strings.ContainsAny(name, "\r\n")
}

// buildListing joins entries with newlines, without a trailing one, keeping
// the result within limit bytes. Unlistable names are skipped. Only whole
// names are emitted: the first name that does not fit and every name after
// it are dropped, and their number is returned. An empty directory yields
// an empty payload.
func buildListing(entries []string, limit int) (payload []byte, omitted int) {
	var buf bytes.Buffer
	for i, name := range entries {
		if unlistable(name) {
			continue
		}

		need := len(name)
		if buf.Len() > 0 {
			need++
		}
		if buf.Len()+need > limit {
			for _, rest := range entries[i:] {
				if !unlistable(rest) {
					omitted++
				}
			}
			break
		}

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(name)
	}
	return buf.Bytes(), omitted
}

// handleList sends the directory listing over data.
// The listing is built before the data phase reply so that a directory
// read failure is reported instead of acknowledged.
func (s *session) handleList(data net.Conn) error {
	entries, err := s.server.dir.Entries()
	if err != nil {
		if replyErr := s.reply(wire.ReplyListFailed); replyErr != nil {
			return replyErr
		}
		return fmt.Errorf("%w: list directory: %w", ErrFileRead, err)
	}

	payload, omitted := buildListing(entries, wire.MaxListingSize)
	if omitted > 0 {
		s.server.logger.Warn("listing_truncated",
			"session_id", s.sessionID,
			"omitted_entries", omitted,
			"limit_bytes", wire.MaxListingSize,
		)
	}

	if err := s.reply(wire.ReplyDataConnOK); err != nil {
		return err
	}

	s.setState(stateTransferring)
	start := time.Now()
	if len(payload) > 0 {
		if _, err := s.dataWriter(data).Write(payload); err != nil {
			return fmt.Errorf("send listing: %w", err)
		}
	}
	duration := time.Since(start)

	s.server.logger.Info("listing_sent",
		"session_id", s.sessionID,
		"remote_ip", s.redactIP(s.remoteIP),
		"bytes", len(payload),
		"duration_ms", duration.Milliseconds(),
	)

	if s.server.metricsCollector != nil {
		s.server.metricsCollector.RecordTransfer("list", int64(len(payload)), duration)
	}
	return nil
}
