package server

import (
	"errors"
	"fmt"
)

// ErrServerClosed is returned by the Server's Serve and ListenAndServe
// methods after a call to Shutdown.
var ErrServerClosed = errors.New("ftlite: Server closed")

// Session errors. They are wrapped with context and never leave the
// session that produced them; the server logs them and keeps serving.
var (
	// ErrInvalidCommand means the control message matched neither command form.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrDataConnection means the data connection back to the peer could not
	// be established (bad port, resolution failure, refused, timeout).
	ErrDataConnection = errors.New("data connection failed")

	// ErrFileNotFound means the requested name is not an entry of the
	// served directory.
	ErrFileNotFound = errors.New("file not found")

	// ErrFileRead means the file exists but could not be opened or read.
	ErrFileRead = errors.New("file read failed")
)

// ConfigError reports an invalid startup parameter.
type ConfigError struct {
	// Param names the parameter (e.g. "port").
	Param string

	// Value is the rejected input.
	Value string

	// Reason is a human readable explanation.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("ftlite: invalid %s %q: %s", e.Param, e.Value, e.Reason)
}
