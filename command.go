package valkey

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Command is a fully encoded request: the canonical command name and its
// ordered arguments. A Command is never modified after being handed to a transport.
type Command struct {
	Name string
	Args []string
}

// String returns the command as it would be typed in a shell, for logging.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Encode builds a Command from a name, positional arguments and an already
// reduced option vector.
//
// The name is upper-cased. Positional arguments are converted to their
// decimal string form. Options are appended after the positional arguments
// in the given order.
//
//	Encode("get", []any{"k"}, nil)                  // GET k
//	Encode("set", []any{"k", "v"}, []string{"EX", "10"}) // SET k v EX 10
func Encode(name string, positional []any, options []string) Command {
	args := make([]string, 0, len(positional)+len(options))
	for _, p := range positional {
		args = append(args, formatArg(p))
	}
	args = append(args, options...)

	return Command{
		Name: strings.ToUpper(name),
		Args: args,
	}
}

func formatArg(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// KV is a single key/value pair for multi-key writes (MSET, MSETNX).
type KV struct {
	Key   string
	Value any
}

// Pairs converts a map into key/value pairs sorted by key, so the encoded
// command is deterministic.
func Pairs[V any](m map[string]V) []KV {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kvs := make([]KV, len(keys))
	for i, k := range keys {
		kvs[i] = KV{Key: k, Value: m[k]}
	}
	return kvs
}

// flattenPairs turns pairs into alternating key/value positional arguments.
func flattenPairs(kvs []KV) []any {
	out := make([]any, 0, len(kvs)*2)
	for _, kv := range kvs {
		out = append(out, kv.Key, kv.Value)
	}
	return out
}

func flattenKeys(keys []string) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
