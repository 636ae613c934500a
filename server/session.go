package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/gonzalop/ftlite/internal/wire"
)

// sessionState tracks where a session is in the protocol.
type sessionState int

const (
	stateIdle sessionState = iota
	stateAwaitingCommand
	stateValidating
	stateAwaitingDataConnection
	stateTransferring
)

func (st sessionState) String() string {
	switch st {
	case stateAwaitingCommand:
		return "awaiting_command"
	case stateValidating:
		return "validating"
	case stateAwaitingDataConnection:
		return "awaiting_data_connection"
	case stateTransferring:
		return "transferring"
	default:
		return "idle"
	}
}

// session is one control connection, from accept to close. It holds
// everything the command pipeline needs; nothing is shared with other
// sessions.
type session struct {
	server *Server
	conn   net.Conn

	sessionID string
	remoteIP  string

	state sessionState
	cmd   Command
}

func newSession(server *Server, conn net.Conn) *session {
	remoteAddr := conn.RemoteAddr().String()
	remoteIP, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		remoteIP = remoteAddr
	}

	return &session{
		server:    server,
		conn:      conn,
		sessionID: uuid.NewString(),
		remoteIP:  remoteIP,
	}
}

// serve runs the session to completion. Whatever happens, the control
// connection is closed when it returns and the error, if any, stays here.
//
// Flow:
//
//	awaiting_command -> validating -> awaiting_data_connection -> transferring -> idle
//
// An invalid command goes from validating straight back to idle, and any
// I/O failure abandons the session.
func (s *session) serve() {
	defer s.close()

	s.server.logger.Info("session_started",
		"session_id", s.sessionID,
		"remote_ip", s.redactIP(s.remoteIP),
	)

	start := time.Now()
	err := s.run()
	if err != nil {
		s.logError(err)
	}

	if s.server.metricsCollector != nil {
		s.server.metricsCollector.RecordCommand(s.cmd.Kind.String(), err == nil, time.Since(start))
	}
}

func (s *session) run() error {
	s.setState(stateAwaitingCommand)
	raw, err := s.readCommand()
	if err != nil {
		return fmt.Errorf("read command: %w", err)
	}

	s.cmd = ParseCommand(raw)
	s.server.logger.Debug("command received",
		"session_id", s.sessionID,
		"remote_ip", s.redactIP(s.remoteIP),
		"command", s.cmd.Kind.String(),
		"path", s.redactPath(s.cmd.Filename),
		"data_port", s.cmd.DataPort,
	)

	s.setState(stateValidating)
	if err := s.acknowledge(s.cmd); err != nil {
		return err
	}
	if s.cmd.Kind == CommandInvalid {
		return ErrInvalidCommand
	}

	s.setState(stateAwaitingDataConnection)
	data, err := s.dialData(s.cmd.DataPort)
	if err != nil {
		if replyErr := s.reply(wire.ReplyDataConnFailed); replyErr != nil {
			return errors.Join(err, replyErr)
		}
		return err
	}
	defer data.Close()

	if s.cmd.Kind == CommandList {
		return s.handleList(data)
	}
	return s.handleGet(data)
}

// readCommand performs the single receive that carries the command.
func (s *session) readCommand() ([]byte, error) {
	timeout := s.server.readTimeout
	if timeout == 0 {
		timeout = s.server.maxIdleTime
	}
	if timeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(timeout))
	}

	buf := make([]byte, wire.MaxCommandSize)
	n, err := s.conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err != nil {
		return nil, err
	}
	return buf[:0], nil
}

// reply sends one control message.
func (s *session) reply(r wire.Reply) error {
	if s.server.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.server.writeTimeout))
	}
	if _, err := io.WriteString(s.conn, r.Line()); err != nil {
		return fmt.Errorf("send reply %q: %w", string(r), err)
	}
	return nil
}

func (s *session) setState(st sessionState) {
	s.server.logger.Debug("session state",
		"session_id", s.sessionID,
		"from", s.state.String(),
		"to", st.String(),
	)
	s.state = st
}

// logError reports a session failure at a level matching its kind.
// Conditions already reported to the peer are not server errors.
func (s *session) logError(err error) {
	level := slog.LevelError
	event := "session_failed"
	switch {
	case errors.Is(err, ErrInvalidCommand), errors.Is(err, ErrFileNotFound):
		level = slog.LevelInfo
		event = "command_rejected"
	case errors.Is(err, ErrDataConnection):
		level = slog.LevelWarn
		event = "data_connection_failed"
	case errors.Is(err, io.EOF):
		level = slog.LevelDebug
		event = "peer_closed"
	}

	s.server.logger.Log(context.Background(), level, event,
		"session_id", s.sessionID,
		"remote_ip", s.redactIP(s.remoteIP),
		"state", s.state.String(),
		"command", s.cmd.Kind.String(),
		"error", err,
	)
}

// close closes the control connection.
func (s *session) close() {
	s.setState(stateIdle)
	s.conn.Close()

	s.server.logger.Debug("session closed",
		"session_id", s.sessionID,
		"remote_ip", s.redactIP(s.remoteIP),
	)
}

func (s *session) redactPath(path string) string {
	return s.server.redactPath(path)
}

func (s *session) redactIP(ip string) string {
	return s.server.redactIP(ip)
}
