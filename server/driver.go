package server

import "io"

// Directory is the storage the server publishes. The server only reads
// from it.
//
// Implementations should:
//   - Return entry names without any path component
//   - Return os.ErrNotExist from Open when the name does not exist
//   - Refuse to open anything that is not a regular file
//
// Implementations must be safe for concurrent use, since every session
// runs in its own goroutine.
type Directory interface {
	// Entries returns the names of the directory's entries.
	Entries() ([]string, error)

	// Open opens the named entry for reading.
	Open(name string) (io.ReadCloser, error)
}
