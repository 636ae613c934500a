package server

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/gonzalop/ftlite/internal/wire"
)

// CommandKind identifies the request carried by a control message.
type CommandKind int

const (
	// CommandInvalid is any message that is not a recognized command.
	CommandInvalid CommandKind = iota

	// CommandList requests the directory listing: "-l <dataPort>".
	CommandList

	// CommandGetFile requests a file: "-g <filename> <dataPort>".
	CommandGetFile
)

// String returns the name used in logs and metrics.
func (k CommandKind) String() string {
	switch k {
	case CommandList:
		return "list"
	case CommandGetFile:
		return "get"
	default:
		return "invalid"
	}
}

// Command is a parsed control message.
type Command struct {
	Kind CommandKind

	// Filename is set for CommandGetFile only.
	Filename string

	// DataPort is the port the peer listens on for the data connection.
	// It is 0 when the argument is missing or not a number; the range is
	// checked when the data connection is dialed.
	DataPort int
}

// ParseCommand turns the bytes of one control receive into a Command.
//
// Input beyond wire.MaxCommandSize is ignored, as is anything after the
// first NUL byte and a trailing line terminator. A message is a list
// command if it starts with "-l" and a get-file command if it starts with
// "-g"; the first field is then skipped and the remaining whitespace
// separated fields are the arguments. A get-file command without a file
// name is invalid. File names longer than wire.MaxFieldLength are truncated.
func ParseCommand(raw []byte) Command {
	if len(raw) > wire.MaxCommandSize {
		raw = raw[:wire.MaxCommandSize]
	}
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	msg := strings.TrimRight(string(raw), "\r\n")

	switch {
	case strings.HasPrefix(msg, wire.ListToken):
		args := strings.Fields(msg)[1:]
		return Command{Kind: CommandList, DataPort: portArg(args, 0)}

	case strings.HasPrefix(msg, wire.GetToken):
		args := strings.Fields(msg)[1:]
		if len(args) == 0 {
			return Command{Kind: CommandInvalid}
		}
		name := args[0]
		if len(name) > wire.MaxFieldLength {
			name = name[:wire.MaxFieldLength]
		}
		return Command{Kind: CommandGetFile, Filename: name, DataPort: portArg(args, 1)}
	}

	return Command{Kind: CommandInvalid}
}

// portArg returns args[i] as a port number, or 0.
func portArg(args []string, i int) int {
	if i >= len(args) {
		return 0
	}
	port, err := strconv.Atoi(args[i])
	if err != nil {
		return 0
	}
	return port
}
