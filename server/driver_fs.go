package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FSDirectory implements Directory on a local directory.
//
// Files are opened through an os.Root, so a name can never resolve to a
// path outside the directory, whether through ".." or a symlink.
// Listing order is lexical, as returned by os.ReadDir.
type FSDirectory struct {
	path string
	root *os.Root
}

// NewFSDirectory opens path for serving.
// Returns an error if path does not exist or is not a directory.
//
//	dir, err := server.NewFSDirectory("/srv/files")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dir.Close()
func NewFSDirectory(path string) (*FSDirectory, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("directory validation failed: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", path)
	}

	path, err = filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory: %w", err)
	}

	root, err := os.OpenRoot(path)
	if err != nil {
		return nil, err
	}

	return &FSDirectory{path: path, root: root}, nil
}

// Path returns the resolved directory path.
func (d *FSDirectory) Path() string {
	return d.path
}

// Entries lists the directory.
func (d *FSDirectory) Entries() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// Open opens a regular file of the directory for reading.
func (d *FSDirectory) Open(name string) (io.ReadCloser, error) {
	f, err := d.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, errors.New("not a regular file")
	}
	return f, nil
}

// Close releases the directory handle.
func (d *FSDirectory) Close() error {
	return d.root.Close()
}
