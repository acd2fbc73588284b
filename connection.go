package valkey

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"time"

	"github.com/pior/valkey/resp"
)

// aLongTimeAgo is a deadline in the past, used to interrupt blocked I/O.
var aLongTimeAgo = time.Unix(1, 0)

// Connection is a single RESP connection. It is not safe for concurrent use;
// the pool hands it to one caller at a time.
type Connection struct {
	conn   net.Conn
	Reader *bufio.Reader
	Writer *bufio.Writer

	// db is the logical database currently selected on this connection.
	db uint32
}

func NewConnection(conn net.Conn) *Connection {
	return &Connection{
		conn:   conn,
		Reader: bufio.NewReader(conn),
		Writer: bufio.NewWriter(conn),
	}
}

// Execute sends one command and reads its reply.
//
// The context deadline is applied to the socket, and cancellation interrupts
// blocked I/O. A server error reply is returned as *resp.ServerError.
func (c *Connection) Execute(ctx context.Context, args []string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(deadline)
	} else {
		_ = c.conn.SetDeadline(time.Time{})
	}

	interrupted := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(aLongTimeAgo)
		close(interrupted)
	})
	// The connection must not go back to the pool while the callback can
	// still move its deadline.
	defer func() {
		if !stop() {
			<-interrupted
		}
	}()

	reply, err := c.roundTrip(args)
	if err != nil && resp.ShouldCloseConnection(err) {
		// The socket deadline may fire just before the context notices.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &resp.ConnectionError{Op: "read", Err: contextError(ctxErr)}
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, &resp.ConnectionError{Op: "read", Err: contextError(context.DeadlineExceeded)}
		}
	}
	return reply, err
}

func (c *Connection) roundTrip(args []string) (any, error) {
	if err := resp.WriteCommand(c.Writer, args); err != nil {
		return nil, err
	}
	if err := c.Writer.Flush(); err != nil {
		return nil, &resp.ConnectionError{Op: "write", Err: err}
	}
	return resp.ReadReply(c.Reader)
}

func (c *Connection) Close() error {
	return c.conn.Close()
}

// contextError spells out deadline errors as timeouts so they classify as such.
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &timeoutError{err: err}
	}
	return err
}

type timeoutError struct {
	err error
}

func (e *timeoutError) Error() string { return "request timeout: " + e.err.Error() }
func (e *timeoutError) Unwrap() error { return e.err }
