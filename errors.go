package valkey

import (
	"errors"
	"strings"
)

// Kind identifies the class of a failure.
//
// Kind implements error so a specific class can be matched with errors.Is:
//
//	if errors.Is(err, valkey.KindTimeout) { ... }
//
// To match every failure produced by this package, use errors.As with *Error.
type Kind int

const (
	// KindCommand is the generic kind for failures that match no other pattern.
	KindCommand Kind = iota
	// KindConnection is returned when the server cannot be reached or the link broke.
	KindConnection
	// KindAuth is returned when the server requires authentication (NOAUTH).
	KindAuth
	// KindTimeout is returned when a request or connection attempt timed out.
	KindTimeout
	// KindWrongType is returned for operations against a key holding the wrong kind of value.
	KindWrongType
	// KindKey is reserved for key related failures. Never produced by Classify.
	KindKey
	// KindSyntax is raised locally when a command is rejected before being sent,
	// e.g. mutually exclusive flags. Never produced by Classify.
	KindSyntax
)

var kindNames = map[Kind]string{
	KindCommand:    "command error",
	KindConnection: "connection error",
	KindAuth:       "auth error",
	KindTimeout:    "timeout error",
	KindWrongType:  "wrong type error",
	KindKey:        "key error",
	KindSyntax:     "syntax error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown error"
}

func (k Kind) Error() string {
	return "valkey: " + k.String()
}

// Error is the error type returned by every Client method.
type Error struct {
	Kind Kind

	// Message is the original failure text.
	Message string

	// Err is the underlying error, if any. Nil when the error was built
	// from text only.
	Err error
}

func (e *Error) Error() string {
	return "valkey: " + e.Kind.String() + ": " + e.Message
}

// Unwrap returns the underlying transport error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the Kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// Classify maps raw failure text into a typed error.
//
// Patterns are checked in order and the first match wins:
//
//	WRONGTYPE              -> KindWrongType (case-sensitive)
//	NOAUTH                 -> KindAuth      (case-sensitive)
//	timeout                -> KindTimeout   (any case)
//	connection             -> KindConnection (any case)
//	anything else          -> KindCommand
//
// KindKey and KindSyntax are never returned.
func Classify(raw string) *Error {
	return &Error{Kind: classifyKind(raw), Message: raw}
}

func classifyKind(raw string) Kind {
	if strings.Contains(raw, "WRONGTYPE") {
		return KindWrongType
	}
	if strings.Contains(raw, "NOAUTH") {
		return KindAuth
	}

	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "timeout"):
		return KindTimeout
	case strings.Contains(lower, "connection"):
		return KindConnection
	default:
		return KindCommand
	}
}

// classifyError wraps a transport error into a typed error, keeping it in the chain.
// Errors that are already typed are returned unchanged.
func classifyError(err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	e := Classify(err.Error())
	e.Err = err
	return e
}

func syntaxError(msg string) *Error {
	return &Error{Kind: KindSyntax, Message: msg}
}

// ErrClientClosed is returned by every command issued after Close.
var ErrClientClosed = &Error{Kind: KindConnection, Message: "client closed"}
