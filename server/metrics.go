package server

import "time"

// PathRedactor rewrites a file name before it is logged.
//
// Example:
//
//	// Keep only the extension
//	func(name string) string {
//	    return "*" + filepath.Ext(name)
//	}
type PathRedactor func(path string) string

// MetricsCollector is an optional interface for collecting server metrics.
// Implementations can forward to Prometheus, StatsD and similar systems.
//
// Methods are called from session goroutines, possibly concurrently, and
// should not block.
type MetricsCollector interface {
	// RecordCommand records one processed command.
	// kind is "list", "get" or "invalid".
	// success is true when the session completed without error.
	RecordCommand(kind string, success bool, duration time.Duration)

	// RecordTransfer records a completed data transfer.
	// kind is "list" or "get"; bytes is the payload size.
	RecordTransfer(kind string, bytes int64, duration time.Duration)

	// RecordConnection records a control connection.
	// reason is "accepted" or "shutting_down".
	RecordConnection(accepted bool, reason string)
}
