package server

import "github.com/gonzalop/ftlite/internal/wire"

// syntaxReply is the first reply of every session. It only says whether
// the command was understood; the data phase has its own reply.
func syntaxReply(cmd Command) wire.Reply {
	if cmd.Kind == CommandInvalid {
		return wire.ReplyInvalidCommand
	}
	return wire.ReplyAck
}

// acknowledge sends the syntax reply for cmd. It must be called before
// any data connection is attempted.
func (s *session) acknowledge(cmd Command) error {
	return s.reply(syntaxReply(cmd))
}
