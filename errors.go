package ftlite

import (
	"fmt"

	"github.com/gonzalop/ftlite/internal/wire"
)

// ProtocolError is returned when the server answers a command with an
// error reply, or with a reply the client did not expect.
type ProtocolError struct {
	// Command is the command that was sent (e.g., "-g notes.txt 30020")
	Command string

	// Response is the reply line received from the server
	// (e.g., "ERROR: file not found")
	Response string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("ftlite: %s failed: %s", e.Command, e.Response)
}

// IsNotFound returns true if the requested file does not exist on the server.
func (e *ProtocolError) IsNotFound() bool {
	return e.Response == string(wire.ReplyFileNotFound)
}

// IsInvalidCommand returns true if the server did not understand the command.
func (e *ProtocolError) IsInvalidCommand() bool {
	return e.Response == string(wire.ReplyInvalidCommand)
}

// IsDataConnFailure returns true if the server could not connect back to
// the client's data port. This is usually a firewall or NAT issue and may
// be worth retrying with WithDataHost or WithDataPort.
func (e *ProtocolError) IsDataConnFailure() bool {
	return e.Response == string(wire.ReplyDataConnFailed)
}
