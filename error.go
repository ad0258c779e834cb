package webd

import (
	"errors"
	"fmt"
)

// InputError reports malformed protocol data received from the peer: a bad
// request line, an unknown verb, a missing upgrade header, an unrecognized
// frame opcode or invalid UTF-8 in a text message.
//
// Stream read and write failures are never InputErrors; they propagate as
// wrapped I/O errors so callers can tell a broken connection apart from a
// misbehaving peer. Use errors.As to detect an InputError through wrapping.
type InputError struct {
	msg string
}

func (e *InputError) Error() string {
	return e.msg
}

func errInput(f string, v ...interface{}) error {
	return &InputError{msg: fmt.Sprintf(f, v...)}
}

// IsInputError reports whether err is or wraps an *InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// ErrShortHeader is returned by ParseFrameHeader when the buffer does not yet
// contain a complete frame header. It signals "retry with more data", not a
// protocol violation.
var ErrShortHeader = errors.New("webd: frame header incomplete")

// ErrNotWebSocket is returned by Upgrade when the request does not carry the
// upgrade headers. The request and connection are untouched and remain usable
// for ordinary HTTP handling.
var ErrNotWebSocket = errors.New("webd: not a websocket request")

// ErrClosed is returned by Session.SendText and Session.SendBinary after the
// session has closed.
var ErrClosed = errors.New("webd: session closed")
