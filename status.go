package webd

import "fmt"

// Status is an HTTP status line emitted by webd.
//
// The set is closed: these are the only statuses the response helpers write.
type Status int

// Status constants.
const (
	StatusSwitchingProtocols Status = iota
	StatusOK
	StatusBadRequest
	StatusNotFound
	StatusMethodNotAllowed
)

// String returns the wire form of the status line, e.g. "200 OK".
func (s Status) String() string {
	switch s {
	case StatusSwitchingProtocols:
		return "101 Switching Protocols"
	case StatusOK:
		return "200 OK"
	case StatusBadRequest:
		return "400 Bad Request"
	case StatusNotFound:
		return "404 Not Found"
	case StatusMethodNotAllowed:
		return "405 Method Not Allowed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}
