// Package ftlite implements a client for the ftlite file transfer protocol.
//
// # Overview
//
// An ftlite server publishes one directory. A client can ask for the list
// of its entries or for one file. Each request uses two connections: the
// client opens a control connection to send the command and read short
// text replies, and the server connects back to a port the client listens
// on to deliver the payload. See the server package for the protocol
// details.
//
// # Basic Usage
//
//	client, err := ftlite.New("files.example.com:30021")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	names, err := client.List()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, name := range names {
//	    fmt.Println(name)
//	}
//
//	var buf bytes.Buffer
//	if err := client.Retrieve("notes.txt", &buf); err != nil {
//	    var pe *ftlite.ProtocolError
//	    if errors.As(err, &pe) && pe.IsNotFound() {
//	        log.Printf("no such file")
//	    }
//	}
//
// # Data Connections
//
// The server must be able to reach the client. The data listener binds to
// the local address of the control connection on an ephemeral port; use
// WithDataHost and WithDataPort when a firewall or NAT requires a fixed
// address or port.
//
// # Logging
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	}))
//	client, _ := ftlite.New("localhost:30021", ftlite.WithLogger(logger))
package ftlite
