package resp

const (
	CRLF = "\r\n"

	TypeSimpleString = '+'
	TypeError        = '-'
	TypeInteger      = ':'
	TypeBulkString   = '$'
	TypeArray        = '*'
)

// MaxBulkLength is the largest bulk string accepted from a server (512MB).
const MaxBulkLength = 512 * 1024 * 1024

// MaxLineLength bounds simple strings, errors, integers and length headers.
const MaxLineLength = 64 * 1024

// MaxArrayLength bounds the element count of a single array reply.
const MaxArrayLength = 1024 * 1024 * 1024
