package valkey

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/guregu/null.v3"
)

// replyShape selects how a raw transport reply is normalized.
type replyShape int

const (
	replyRaw        replyShape = iota // any, unchanged
	replyNullString                   // null.String
	replyStatus                       // string
	replyInt                          // int64
	replyBool                         // bool, from 0/1
	replyFloat                        // float64
	replyNullList                     // []null.String
	replyMap                          // map[string]string
	replyTime                         // time.Time
)

var replyShapeNames = map[replyShape]string{
	replyRaw:        "raw",
	replyNullString: "nullable string",
	replyStatus:     "status",
	replyInt:        "integer",
	replyBool:       "boolean",
	replyFloat:      "float",
	replyNullList:   "nullable list",
	replyMap:        "map",
	replyTime:       "time",
}

func (s replyShape) String() string {
	return replyShapeNames[s]
}

func normalize(shape replyShape, raw any) (any, error) {
	switch shape {
	case replyNullString:
		return toNullString(raw)
	case replyStatus:
		return toString(raw)
	case replyInt:
		return toInt64(raw)
	case replyBool:
		return toBool(raw)
	case replyFloat:
		return toFloat64(raw)
	case replyNullList:
		return toNullStringList(raw)
	case replyMap:
		return toStringMap(raw)
	case replyTime:
		return toTime(raw)
	default:
		return raw, nil
	}
}

func unexpectedReply(shape replyShape, raw any) *Error {
	return &Error{Kind: KindCommand, Message: fmt.Sprintf("unexpected %T reply for %s shape", raw, shape)}
}

func toNullString(raw any) (null.String, error) {
	switch v := raw.(type) {
	case nil:
		return null.String{}, nil
	case string:
		return null.StringFrom(v), nil
	case []byte:
		return null.StringFrom(string(v)), nil
	case int64:
		return null.StringFrom(strconv.FormatInt(v, 10)), nil
	default:
		return null.String{}, unexpectedReply(replyNullString, raw)
	}
}

func toString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return "", unexpectedReply(replyStatus, raw)
	}
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, unexpectedReply(replyInt, raw)
		}
		return n, nil
	default:
		return 0, unexpectedReply(replyInt, raw)
	}
}

func toBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int64:
		return v == 1, nil
	case int:
		return v == 1, nil
	default:
		return false, unexpectedReply(replyBool, raw)
	}
}

func toFloat64(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, unexpectedReply(replyFloat, raw)
		}
		return f, nil
	default:
		return 0, unexpectedReply(replyFloat, raw)
	}
}

func toNullStringList(raw any) ([]null.String, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, unexpectedReply(replyNullList, raw)
	}
	out := make([]null.String, len(items))
	for i, item := range items {
		s, err := toNullString(item)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// toStringMap accepts a flat [k1, v1, k2, v2, ...] array or a map.
func toStringMap(raw any) (map[string]string, error) {
	switch v := raw.(type) {
	case []any:
		if len(v)%2 != 0 {
			return nil, unexpectedReply(replyMap, raw)
		}
		out := make(map[string]string, len(v)/2)
		for i := 0; i < len(v); i += 2 {
			k, err := toString(v[i])
			if err != nil {
				return nil, err
			}
			val, err := toString(v[i+1])
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, item := range v {
			val, err := toString(item)
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil
	default:
		return nil, unexpectedReply(replyMap, raw)
	}
}

// toTime converts the [seconds, microseconds] pair returned by TIME.
func toTime(raw any) (time.Time, error) {
	items, ok := raw.([]any)
	if !ok || len(items) != 2 {
		return time.Time{}, unexpectedReply(replyTime, raw)
	}
	sec, err := toInt64(items[0])
	if err != nil {
		return time.Time{}, err
	}
	usec, err := toInt64(items[1])
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, usec*int64(time.Microsecond)), nil
}
