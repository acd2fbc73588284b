package valkey

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/guregu/null.v3"
)

// Info returns the server information, optionally limited to sections.
func (c *Client) Info(ctx context.Context, sections ...string) (string, error) {
	return run[string](ctx, c, cmdInfo, flattenKeys(sections), nil)
}

// Ping returns "PONG", or message when one is given.
func (c *Client) Ping(ctx context.Context, message ...string) (string, error) {
	return run[string](ctx, c, cmdPing, flattenKeys(message), nil)
}

// Select changes the logical database of the connection.
func (c *Client) Select(ctx context.Context, index int64) (string, error) {
	return run[string](ctx, c, cmdSelect, []any{index}, nil)
}

// DBSize returns the number of keys in the current database.
func (c *Client) DBSize(ctx context.Context) (int64, error) {
	return run[int64](ctx, c, cmdDBSize, nil, nil)
}

// FlushAll removes every key of every database.
func (c *Client) FlushAll(ctx context.Context, mode ...FlushMode) (string, error) {
	return run[string](ctx, c, cmdFlushAll, nil, flushArgs(mode))
}

// FlushDB removes every key of the current database.
func (c *Client) FlushDB(ctx context.Context, mode ...FlushMode) (string, error) {
	return run[string](ctx, c, cmdFlushDB, nil, flushArgs(mode))
}

func flushArgs(mode []FlushMode) []string {
	for _, m := range mode {
		if m == FlushAsync {
			return FlushAsync.ToArgs()
		}
	}
	return nil
}

// Time returns the server clock.
func (c *Client) Time(ctx context.Context) (time.Time, error) {
	return run[time.Time](ctx, c, cmdTime, nil, nil)
}

// ClientID returns the server-side id of the connection serving the call.
func (c *Client) ClientID(ctx context.Context) (int64, error) {
	return run[int64](ctx, c, cmdClientID, nil, nil)
}

// ClientSetName names the connection serving the call.
func (c *Client) ClientSetName(ctx context.Context, name string) (string, error) {
	return run[string](ctx, c, cmdClientSetName, []any{name}, nil)
}

// ClientGetName returns the connection name, or null when none was set.
func (c *Client) ClientGetName(ctx context.Context) (null.String, error) {
	return run[null.String](ctx, c, cmdClientGetName, nil, nil)
}

// ClientKill closes the client connections matching the filters and returns
// how many were closed.
func (c *Client) ClientKill(ctx context.Context, opts ClientKillOptions) (int64, error) {
	v, err := c.exec(ctx, cmdClientKill, nil, opts.ToArgs())
	if err != nil {
		return 0, err
	}

	switch v := v.(type) {
	case int64:
		return v, nil
	case string:
		// Legacy single-address form replies with a status.
		if v == "OK" {
			return 1, nil
		}
	}
	return 0, &Error{Kind: KindCommand, Message: fmt.Sprintf("unexpected %T reply", v)}
}

// ClientList returns the client connections, one per line.
func (c *Client) ClientList(ctx context.Context, opts ...ClientListOptions) (string, error) {
	var args []string
	for _, o := range opts {
		args = append(args, o.ToArgs()...)
	}
	return run[string](ctx, c, cmdClientList, nil, args)
}

// ClusterCommand sends a CLUSTER subcommand and returns the raw reply.
//
//	client.ClusterCommand(ctx, "INFO")
func (c *Client) ClusterCommand(ctx context.Context, subcommand string, args ...any) (any, error) {
	return run[any](ctx, c, cmdCluster, append([]any{subcommand}, args...), nil)
}
