package testutils

import (
	"bytes"
	"net"
	"strings"
	"time"
)

// ConnectionMock is a net.Conn that replays canned RESP replies. It records
// writes and the last deadline passed to SetDeadline, and tracks Close.
type ConnectionMock struct {
	replies  *bytes.Buffer
	written  *bytes.Buffer
	deadline time.Time
	closed   bool
}

// NewConnectionMock returns a mock whose reads return the concatenated replies.
//
//	conn := testutils.NewConnectionMock("+OK\r\n", "$-1\r\n")
func NewConnectionMock(replies ...string) *ConnectionMock {
	return &ConnectionMock{
		replies: bytes.NewBufferString(strings.Join(replies, "")),
		written: &bytes.Buffer{},
	}
}

func (m *ConnectionMock) Read(b []byte) (int, error) {
	return m.replies.Read(b)
}

func (m *ConnectionMock) Write(b []byte) (int, error) {
	return m.written.Write(b)
}

func (m *ConnectionMock) Close() error {
	m.closed = true
	return nil
}

func (m *ConnectionMock) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
}

func (m *ConnectionMock) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 6379}
}

func (m *ConnectionMock) SetDeadline(t time.Time) error {
	m.deadline = t
	return nil
}

func (m *ConnectionMock) SetReadDeadline(t time.Time) error  { return nil }
func (m *ConnectionMock) SetWriteDeadline(t time.Time) error { return nil }

// Written returns the raw bytes written to the mock connection.
func (m *ConnectionMock) Written() string {
	return m.written.String()
}

// Deadline returns the last deadline set on the connection.
func (m *ConnectionMock) Deadline() time.Time {
	return m.deadline
}

func (m *ConnectionMock) Closed() bool {
	return m.closed
}
