// Package wire holds the protocol constants shared by the ftlite client and
// server: command tokens, size limits and the closed set of control replies.
package wire

import (
	"strconv"
	"strings"
)

// Command tokens. A control message starts with one of these.
const (
	ListToken = "-l"
	GetToken  = "-g"
)

const (
	// MaxCommandSize is the number of bytes read from the control connection
	// for one command.
	MaxCommandSize = 255

	// MaxFieldLength bounds a single command argument (the file name).
	MaxFieldLength = 255

	// MaxFileNameLength is the longest file name whose get-file command,
	// with the widest data port, still fits in MaxCommandSize.
	MaxFileNameLength = MaxCommandSize - len(GetToken+"  65535\n")

	// MaxListingSize bounds the directory listing payload.
	MaxListingSize = 500

	// ChunkSize is the read size used when streaming a file.
	ChunkSize = 256
)

// Reply is a control connection message sent by the server.
type Reply string

// The complete set of control replies.
const (
	ReplyAck            Reply = "ACK"
	ReplyInvalidCommand Reply = "ERROR: invalid command. Use -l <dataPort> or -g <filename> <dataPort>."
	ReplyDataConnOK     Reply = "ACK: data connection successful"
	ReplyFileNotFound   Reply = "ERROR: file not found"
	ReplyDataConnFailed Reply = "ERROR: data connection failed"
	ReplyReadFailed     Reply = "ERROR: file could not be read"
	ReplyListFailed     Reply = "ERROR: directory could not be read"
)

const errorPrefix = "ERROR"

// IsError reports whether the reply signals a failure.
func (r Reply) IsError() bool {
	return strings.HasPrefix(string(r), errorPrefix)
}

// IsAck reports whether the reply is a positive acknowledgment.
func (r Reply) IsAck() bool {
	return strings.HasPrefix(string(r), string(ReplyAck))
}

// Line returns the reply as it is written on the wire.
func (r Reply) Line() string {
	return string(r) + "\n"
}

// FormatList builds a list command for the given data port.
func FormatList(dataPort int) string {
	return ListToken + " " + strconv.Itoa(dataPort) + "\n"
}

// FormatGet builds a get-file command for the given name and data port.
func FormatGet(name string, dataPort int) string {
	return GetToken + " " + name + " " + strconv.Itoa(dataPort) + "\n"
}
