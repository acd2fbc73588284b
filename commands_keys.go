package valkey

import (
	"context"

	"gopkg.in/guregu/null.v3"
)

// Del removes keys and returns how many existed.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	return run[int64](ctx, c, cmdDel, flattenKeys(keys), nil)
}

// Exists returns how many of keys exist. A key given twice is counted twice.
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	return run[int64](ctx, c, cmdExists, flattenKeys(keys), nil)
}

// Expire sets a timeout on key, in seconds. It reports whether the timeout
// was set. At most one of the ExpireOptions conditions may be set; otherwise
// a KindSyntax error is returned and nothing is sent.
func (c *Client) Expire(ctx context.Context, key string, seconds int64, opts ...ExpireOptions) (bool, error) {
	return c.expire(ctx, cmdExpire, key, seconds, opts)
}

// PExpire is Expire with a timeout in milliseconds.
func (c *Client) PExpire(ctx context.Context, key string, millis int64, opts ...ExpireOptions) (bool, error) {
	return c.expire(ctx, cmdPExpire, key, millis, opts)
}

// ExpireAt sets the expiry of key to a Unix timestamp, in seconds.
func (c *Client) ExpireAt(ctx context.Context, key string, timestamp int64, opts ...ExpireOptions) (bool, error) {
	return c.expire(ctx, cmdExpireAt, key, timestamp, opts)
}

// PExpireAt sets the expiry of key to a Unix timestamp, in milliseconds.
func (c *Client) PExpireAt(ctx context.Context, key string, timestamp int64, opts ...ExpireOptions) (bool, error) {
	return c.expire(ctx, cmdPExpireAt, key, timestamp, opts)
}

func (c *Client) expire(ctx context.Context, id commandID, key string, value int64, opts []ExpireOptions) (bool, error) {
	var merged ExpireOptions
	for _, o := range opts {
		merged.NX = merged.NX || o.NX
		merged.XX = merged.XX || o.XX
		merged.GT = merged.GT || o.GT
		merged.LT = merged.LT || o.LT
	}

	args, err := merged.ToArgs()
	if err != nil {
		return false, c.fail(ctx, Command{Name: commands[id].wire[0]}, classifyError(err))
	}
	return run[bool](ctx, c, id, []any{key, value}, args)
}

// TTL returns the remaining time to live of key, in seconds: -2 when the key
// does not exist, -1 when it has no expiry.
func (c *Client) TTL(ctx context.Context, key string) (int64, error) {
	return run[int64](ctx, c, cmdTTL, []any{key}, nil)
}

// PTTL is TTL in milliseconds.
func (c *Client) PTTL(ctx context.Context, key string) (int64, error) {
	return run[int64](ctx, c, cmdPTTL, []any{key}, nil)
}

// ExpireTime returns the absolute Unix timestamp at which key expires, in
// seconds, with the same -1 and -2 sentinels as TTL.
func (c *Client) ExpireTime(ctx context.Context, key string) (int64, error) {
	return run[int64](ctx, c, cmdExpireTime, []any{key}, nil)
}

// PExpireTime is ExpireTime in milliseconds.
func (c *Client) PExpireTime(ctx context.Context, key string) (int64, error) {
	return run[int64](ctx, c, cmdPExpireTime, []any{key}, nil)
}

// Persist removes the expiry of key. It reports whether an expiry was removed.
func (c *Client) Persist(ctx context.Context, key string) (bool, error) {
	return run[bool](ctx, c, cmdPersist, []any{key}, nil)
}

// RandomKey returns a random key, or null when the database is empty.
func (c *Client) RandomKey(ctx context.Context) (null.String, error) {
	return run[null.String](ctx, c, cmdRandomKey, nil, nil)
}

// Rename renames key to newKey, overwriting newKey if it exists.
func (c *Client) Rename(ctx context.Context, key, newKey string) (string, error) {
	return run[string](ctx, c, cmdRename, []any{key, newKey}, nil)
}

// RenameNX renames key only if newKey does not exist.
func (c *Client) RenameNX(ctx context.Context, key, newKey string) (bool, error) {
	return run[bool](ctx, c, cmdRenameNX, []any{key, newKey}, nil)
}

// Restore creates key from a value serialized with DUMP. ttl is in
// milliseconds; zero means no expiry.
func (c *Client) Restore(ctx context.Context, key string, ttl int64, serialized []byte, opts ...RestoreOptions) (string, error) {
	var args []string
	for _, o := range opts {
		args = append(args, o.ToArgs()...)
	}
	return run[string](ctx, c, cmdRestore, []any{key, ttl, serialized}, args)
}

// ConfigSet sets a server configuration parameter.
func (c *Client) ConfigSet(ctx context.Context, parameter string, value any) (string, error) {
	return run[string](ctx, c, cmdConfigSet, []any{parameter, value}, nil)
}

// ConfigGet returns the configuration parameters matching the given
// patterns.
func (c *Client) ConfigGet(ctx context.Context, parameters ...string) (map[string]string, error) {
	return run[map[string]string](ctx, c, cmdConfigGet, flattenKeys(parameters), nil)
}

// Move moves key to another database. It reports whether the key was moved.
func (c *Client) Move(ctx context.Context, key string, db int64) (bool, error) {
	return run[bool](ctx, c, cmdMove, []any{key, db}, nil)
}
