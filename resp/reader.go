package resp

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
)

var crlfBytes = []byte(CRLF)

// maxDepth bounds the nesting of array replies.
const maxDepth = 32

// ReadReply reads and decodes a single reply from r.
//
// An error reply is returned as a *ServerError with a nil value. Errors
// nested inside an array are kept as *ServerError elements of the array.
//
// Other errors returned:
//   - ConnectionError: I/O failure, including io.EOF
//   - ParseError: malformed reply
func ReadReply(r *bufio.Reader) (any, error) {
	v, err := readValue(r, 0)
	if err != nil {
		return nil, err
	}
	if serr, ok := v.(*ServerError); ok {
		return nil, serr
	}
	return v, nil
}

func readValue(r *bufio.Reader, depth int) (any, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if len(line) == 0 {
		return nil, &ParseError{Message: "empty line"}
	}

	payload := line[1:]

	switch line[0] {
	case TypeSimpleString:
		return string(payload), nil

	case TypeError:
		return &ServerError{Message: string(payload)}, nil

	case TypeInteger:
		n, err := strconv.ParseInt(string(payload), 10, 64)
		if err != nil {
			return nil, &ParseError{Message: "invalid integer " + strconv.Quote(string(payload)), Err: err}
		}
		return n, nil

	case TypeBulkString:
		size, err := parseLength(payload, MaxBulkLength)
		if err != nil {
			return nil, err
		}
		if size < 0 {
			return nil, nil
		}
		return readBulk(r, size)

	case TypeArray:
		if depth >= maxDepth {
			return nil, &ParseError{Message: "array nesting too deep"}
		}
		count, err := parseLength(payload, MaxArrayLength)
		if err != nil {
			return nil, err
		}
		if count < 0 {
			return nil, nil
		}
		items := make([]any, 0, min(count, 1024))
		for range count {
			item, err := readValue(r, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil

	default:
		return nil, &ParseError{Message: "unknown reply type " + strconv.Quote(string(line[:1]))}
	}
}

// readLine returns the next line without its CRLF. The slice is only valid
// until the next read.
func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		buf := append([]byte(nil), line...)
		for err == bufio.ErrBufferFull {
			if len(buf) > MaxLineLength+len(CRLF) {
				return nil, &ParseError{Message: "line longer than " + strconv.Itoa(MaxLineLength) + " bytes"}
			}
			line, err = r.ReadSlice('\n')
			buf = append(buf, line...)
		}
		line = buf
	}
	if len(line) > MaxLineLength+len(CRLF) {
		return nil, &ParseError{Message: "line longer than " + strconv.Itoa(MaxLineLength) + " bytes"}
	}
	if err != nil {
		return nil, &ConnectionError{Op: "read", Err: err}
	}
	if !bytes.HasSuffix(line, crlfBytes) {
		return nil, &ParseError{Message: "line not terminated by CRLF"}
	}
	return line[:len(line)-2], nil
}

func parseLength(b []byte, limit int) (int, error) {
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return 0, &ParseError{Message: "invalid length " + strconv.Quote(string(b)), Err: err}
	}
	if n < -1 || n > limit {
		return 0, &ParseError{Message: "length out of range: " + strconv.Itoa(n)}
	}
	return n, nil
}

func readBulk(r *bufio.Reader, size int) (string, error) {
	buf := make([]byte, size+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", &ConnectionError{Op: "read", Err: err}
	}
	if !bytes.HasSuffix(buf, crlfBytes) {
		return "", &ParseError{Message: "bulk string not terminated by CRLF"}
	}
	return string(buf[:size]), nil
}
