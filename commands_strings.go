package valkey

import (
	"context"

	"gopkg.in/guregu/null.v3"
)

// Get returns the value of key. The result is invalid (null) when the key
// does not exist.
func (c *Client) Get(ctx context.Context, key string) (null.String, error) {
	return run[null.String](ctx, c, cmdGet, []any{key}, nil)
}

// Set stores value at key. Modifiers are either a *SetOptions builder or a
// SetArgs literal:
//
//	client.Set(ctx, "k", "v", valkey.NewSetOptions().EX(10).NX())
//	client.Set(ctx, "k", "v", valkey.SetArgs{PX: null.IntFrom(500), Get: true})
//
// The reply is "OK", null when a NX/XX condition was not met, or the old
// value when Get is set.
func (c *Client) Set(ctx context.Context, key string, value any, opts ...SetModifier) (null.String, error) {
	return run[null.String](ctx, c, cmdSet, []any{key, value}, reduceSet(opts...))
}

// GetEx returns the value of key and optionally updates its expiry.
func (c *Client) GetEx(ctx context.Context, key string, opts ...GetExModifier) (null.String, error) {
	return run[null.String](ctx, c, cmdGetEx, []any{key}, reduceGetEx(opts...))
}

// GetDel returns the value of key and deletes it.
func (c *Client) GetDel(ctx context.Context, key string) (null.String, error) {
	return run[null.String](ctx, c, cmdGetDel, []any{key}, nil)
}

// GetRange returns the substring of the value at key between start and end,
// both inclusive. Negative offsets count from the end.
func (c *Client) GetRange(ctx context.Context, key string, start, end int64) (string, error) {
	return run[string](ctx, c, cmdGetRange, []any{key, start, end}, nil)
}

// StrLen returns the length of the string at key, or 0 when key is missing.
func (c *Client) StrLen(ctx context.Context, key string) (int64, error) {
	return run[int64](ctx, c, cmdStrLen, []any{key}, nil)
}

// Append appends value to the string at key and returns the new length.
func (c *Client) Append(ctx context.Context, key string, value any) (int64, error) {
	return run[int64](ctx, c, cmdAppend, []any{key, value}, nil)
}

// SetRange overwrites part of the string at key, starting at offset, and
// returns the new length.
func (c *Client) SetRange(ctx context.Context, key string, offset int64, value any) (int64, error) {
	return run[int64](ctx, c, cmdSetRange, []any{key, offset, value}, nil)
}

// MSet sets several keys in the given order. Use Pairs to build the pairs
// from a map.
func (c *Client) MSet(ctx context.Context, pairs ...KV) (string, error) {
	return run[string](ctx, c, cmdMSet, flattenPairs(pairs), nil)
}

// MSetNX sets several keys only if none of them exists. It reports whether
// the keys were set.
func (c *Client) MSetNX(ctx context.Context, pairs ...KV) (bool, error) {
	return run[bool](ctx, c, cmdMSetNX, flattenPairs(pairs), nil)
}

// MGet returns the values of keys in order. Missing keys are null.
func (c *Client) MGet(ctx context.Context, keys ...string) ([]null.String, error) {
	return run[[]null.String](ctx, c, cmdMGet, flattenKeys(keys), nil)
}

// Incr increments the integer at key by one and returns the new value.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return run[int64](ctx, c, cmdIncr, []any{key}, nil)
}

// IncrBy increments the integer at key by increment.
func (c *Client) IncrBy(ctx context.Context, key string, increment int64) (int64, error) {
	return run[int64](ctx, c, cmdIncrBy, []any{key, increment}, nil)
}

// IncrByFloat increments the number at key by a floating point increment.
func (c *Client) IncrByFloat(ctx context.Context, key string, increment float64) (float64, error) {
	return run[float64](ctx, c, cmdIncrByFloat, []any{key, increment}, nil)
}

// Decr decrements the integer at key by one and returns the new value.
func (c *Client) Decr(ctx context.Context, key string) (int64, error) {
	return run[int64](ctx, c, cmdDecr, []any{key}, nil)
}

// DecrBy decrements the integer at key by decrement.
func (c *Client) DecrBy(ctx context.Context, key string, decrement int64) (int64, error) {
	return run[int64](ctx, c, cmdDecrBy, []any{key, decrement}, nil)
}
