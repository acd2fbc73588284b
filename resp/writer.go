package resp

import (
	"bufio"
	"strconv"
)

// WriteCommand writes args as an array of bulk strings. The caller flushes w.
//
//	*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n
func WriteCommand(w *bufio.Writer, args []string) error {
	writeHeader(w, TypeArray, len(args))
	for _, arg := range args {
		writeHeader(w, TypeBulkString, len(arg))
		w.WriteString(arg)
		w.WriteString(CRLF)
	}

	// bufio.Writer errors are sticky, checking the last write is enough.
	if _, err := w.WriteString(""); err != nil {
		return &ConnectionError{Op: "write", Err: err}
	}
	return nil
}

func writeHeader(w *bufio.Writer, prefix byte, n int) {
	var buf [24]byte
	b := append(buf[:0], prefix)
	b = strconv.AppendInt(b, int64(n), 10)
	b = append(b, CRLF...)
	w.Write(b)
}
