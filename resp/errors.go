package resp

import (
	"errors"
	"fmt"
	"strings"
)

// ServerError is an error reply sent by the server, e.g.
// "WRONGTYPE Operation against a key holding the wrong kind of value".
//
// Connection handling: the reply was fully read, the connection can be REUSED.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// Prefix returns the leading error code, e.g. "ERR" or "WRONGTYPE".
func (e *ServerError) Prefix() string {
	if i := strings.IndexByte(e.Message, ' '); i > 0 {
		return e.Message[:i]
	}
	return e.Message
}

func (e *ServerError) ShouldCloseConnection() bool {
	return false
}

// ParseError is returned when a reply does not follow the protocol.
//
// Connection handling: the stream position is unknown, CLOSE the connection.
type ParseError struct {
	Message string
	Err     error // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "protocol error: " + e.Message + ": " + e.Err.Error()
	}
	return "protocol error: " + e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) ShouldCloseConnection() bool {
	return true
}

// ConnectionError wraps I/O errors from reading or writing the connection.
//
// Connection handling: the connection is broken, CLOSE it.
type ConnectionError struct {
	Op  string // read or write
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

// ErrorWithConnectionState is implemented by every error of this package.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether err leaves the connection in an
// unknown state. Nil and *ServerError return false; unknown errors return true.
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	return true
}
