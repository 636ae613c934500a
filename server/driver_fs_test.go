package server

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestNewFSDirectory_Invalid(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "file.txt")
	fatalIfErr(t, os.WriteFile(file, []byte("x"), 0644), "WriteFile")

	for _, path := range []string{filepath.Join(tempDir, "missing"), file} {
		if dir, err := NewFSDirectory(path); err == nil {
			dir.Close()
			t.Errorf("NewFSDirectory(%q) succeeded, want error", path)
		}
	}
}

func TestFSDirectory_Entries(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	for _, name := range []string{"c.txt", "a.txt", "b.txt"} {
		fatalIfErr(t, os.WriteFile(filepath.Join(tempDir, name), nil, 0644), "WriteFile %s", name)
	}
	fatalIfErr(t, os.Mkdir(filepath.Join(tempDir, "sub"), 0755), "Mkdir")

	dir, err := NewFSDirectory(tempDir)
	fatalIfErr(t, err, "NewFSDirectory")
	defer dir.Close()

	entries, err := dir.Entries()
	fatalIfErr(t, err, "Entries")

	want := []string{"a.txt", "b.txt", "c.txt", "sub"}
	if !slices.Equal(entries, want) {
		t.Errorf("Entries() = %q, want %q", entries, want)
	}
}

func TestFSDirectory_Open(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	fatalIfErr(t, os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("hello"), 0644), "WriteFile")

	dir, err := NewFSDirectory(tempDir)
	fatalIfErr(t, err, "NewFSDirectory")
	defer dir.Close()

	f, err := dir.Open("notes.txt")
	fatalIfErr(t, err, "Open")
	defer f.Close()

	data, err := io.ReadAll(f)
	fatalIfErr(t, err, "ReadAll")
	if string(data) != "hello" {
		t.Errorf("content = %q, want %q", data, "hello")
	}
}

func TestFSDirectory_OpenRejected(t *testing.T) {
	t.Parallel()
	parent := t.TempDir()
	served := filepath.Join(parent, "served")
	fatalIfErr(t, os.Mkdir(served, 0755), "Mkdir")
	fatalIfErr(t, os.Mkdir(filepath.Join(served, "sub"), 0755), "Mkdir")

	outside := filepath.Join(parent, "secret.txt")
	fatalIfErr(t, os.WriteFile(outside, []byte("secret"), 0644), "WriteFile")
	fatalIfErr(t, os.Symlink(outside, filepath.Join(served, "link.txt")), "Symlink")

	dir, err := NewFSDirectory(served)
	fatalIfErr(t, err, "NewFSDirectory")
	defer dir.Close()

	for _, name := range []string{"sub", "../secret.txt", "link.txt", "missing.txt"} {
		t.Run(name, func(t *testing.T) {
			f, err := dir.Open(name)
			if err == nil {
				f.Close()
				t.Errorf("Open(%q) succeeded, want error", name)
			}
		})
	}
}

func TestFSDirectory_Path(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	dir, err := NewFSDirectory(tempDir)
	fatalIfErr(t, err, "NewFSDirectory")
	defer dir.Close()

	resolved, err := filepath.EvalSymlinks(tempDir)
	fatalIfErr(t, err, "EvalSymlinks")
	if dir.Path() != resolved {
		t.Errorf("Path() = %q, want %q", dir.Path(), resolved)
	}
}
