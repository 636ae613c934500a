// Package server implements the ftlite file transfer server.
//
// # Overview
//
// The protocol uses two TCP connections per request. The client opens a
// control connection and sends one command; the server answers on the
// control connection and then connects back to the client, on a port the
// client chose, to deliver the payload:
//
//	client                                server
//	  | --- control: "-g notes.txt 30020" --> |
//	  | <-- control: "ACK" ------------------ |
//	  | <====== data connection dial ======== |   (to client's port 30020)
//	  | <-- control: "ACK: data connection successful"
//	  | <====== data: file bytes, then close  |
//
// Two commands exist:
//
//	-l <dataPort>              list the served directory
//	-g <filename> <dataPort>   send one file
//
// Every reply is a single text line. Lines starting with "ERROR" report a
// failure: an unknown command, a data connection that could not be
// established, a missing file or a file that could not be read.
//
// # Getting Started
//
//	package main
//
//	import (
//	    "log"
//	    "github.com/gonzalop/ftlite/server"
//	)
//
//	func main() {
//	    s, err := server.NewServer(":30021", server.WithRootDir("/srv/files"))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    log.Fatal(s.ListenAndServe())
//	}
//
// # Data Framing
//
// A listing is the entry names separated by "\n" with no trailing newline,
// at most 500 bytes; names that do not fit are left out whole, and names
// containing a line break are never listed. A file is
// sent as raw bytes in writes of at most 256 bytes. Neither payload is
// padded, and the end of the payload is the close of the data connection.
//
// # Concurrency
//
// Each control connection is served in its own goroutine and sessions share
// no mutable state. Use WithMaxConnections(1) to serve strictly one session
// at a time; further connections then wait in the listen backlog.
//
// # Storage
//
// The served content comes from a Directory. FSDirectory serves a local
// directory through os.Root, so requested names cannot escape it. Custom
// implementations can serve any other backend:
//
//	type Directory interface {
//	    Entries() ([]string, error)
//	    Open(name string) (io.ReadCloser, error)
//	}
//
// # Logging
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	}))
//	s, _ := server.NewServer(":30021",
//	    server.WithLogger(logger),
//	    server.WithTransferLog(xferlog),
//	)
package server
