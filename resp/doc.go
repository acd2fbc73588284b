// Package resp implements the client side of the RESP2 wire protocol used by
// Valkey and Redis.
//
// Requests are always sent as arrays of bulk strings:
//
//	err := resp.WriteCommand(w, []string{"SET", "key", "value"})
//
// Replies are decoded into plain Go values:
//
//	simple string  +OK          -> string
//	bulk string    $5 hello     -> string
//	null bulk      $-1          -> nil
//	integer        :42          -> int64
//	array          *2 ...       -> []any (nested arrays allowed)
//	null array     *-1          -> nil
//	error          -ERR ...     -> *ServerError, returned as the error
//
// A *ServerError leaves the connection usable. Any other error means the
// stream can no longer be trusted; use ShouldCloseConnection to decide:
//
//	reply, err := resp.ReadReply(r)
//	if err != nil {
//	    if resp.ShouldCloseConnection(err) {
//	        conn.Close()
//	    }
//	    return err
//	}
package resp
