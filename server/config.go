package server

import "strconv"

// Control port bounds. Ports below MinControlPort are reserved.
const (
	MinControlPort = 1024
	MaxControlPort = 65535
)

// ParseControlPort validates the listening port given at startup.
// It returns a *ConfigError for anything that is not an integer in
// [MinControlPort, MaxControlPort].
func ParseControlPort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ConfigError{Param: "port", Value: s, Reason: "not a number"}
	}
	if port <= 0 || port > MaxControlPort {
		return 0, &ConfigError{Param: "port", Value: s, Reason: "out of range 1-65535"}
	}
	if port < MinControlPort {
		return 0, &ConfigError{Param: "port", Value: s, Reason: "reserved port, use 1024-65535"}
	}
	return port, nil
}
