package valkey

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"
)

type scriptedReply struct {
	value any
	err   error
}

// fakeExecutor records every command and answers from a script.
type fakeExecutor struct {
	mu       sync.Mutex
	commands []Command
	replies  []scriptedReply
	closed   int
}

func (f *fakeExecutor) reply(value any) *fakeExecutor {
	f.replies = append(f.replies, scriptedReply{value: value})
	return f
}

func (f *fakeExecutor) fail(err error) *fakeExecutor {
	f.replies = append(f.replies, scriptedReply{err: err})
	return f
}

func (f *fakeExecutor) Execute(_ context.Context, cmd Command) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.commands = append(f.commands, cmd)
	if len(f.replies) == 0 {
		return "OK", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.value, r.err
}

func (f *fakeExecutor) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeExecutor) sent() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.commands...)
}

func newFakeClient(t *testing.T, exec *fakeExecutor) *Client {
	t.Helper()

	client, err := NewClient(context.Background(), Config{
		Transport: TransportFunc(func(context.Context, Descriptor) (Executor, error) {
			return exec, nil
		}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClient_PassesDescriptor(t *testing.T) {
	var got Descriptor
	client, err := NewClient(context.Background(), Config{
		Connection: ConnectionOptions{
			Port:     null.IntFrom(6380),
			Password: null.StringFrom("pw"),
			Timeout:  NullDurationFrom(time.Second),
		},
		Transport: TransportFunc(func(_ context.Context, d Descriptor) (Executor, error) {
			got = d
			return &fakeExecutor{}, nil
		}),
	})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, "127.0.0.1:6380", got.Addresses[0].String())
	assert.Equal(t, &Credentials{Password: "pw"}, got.Auth)
	assert.Equal(t, time.Second, got.RequestTimeout)
	assert.Equal(t, got, client.Descriptor())
}

func TestNewClient_InvalidOptions(t *testing.T) {
	opened := false
	_, err := NewClient(context.Background(), Config{
		Connection: ConnectionOptions{Port: null.IntFrom(-1)},
		Transport: TransportFunc(func(context.Context, Descriptor) (Executor, error) {
			opened = true
			return &fakeExecutor{}, nil
		}),
	})
	assert.True(t, errors.Is(err, KindSyntax))
	assert.False(t, opened)
}

func TestNewClient_OpenFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"unclassified is a connection error", errors.New("no route"), KindConnection},
		{"auth", errors.New("NOAUTH Authentication required."), KindAuth},
		{"timeout", errors.New("connect timeout"), KindTimeout},
		{"connection", errors.New("connection refused"), KindConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, hook := test.NewNullLogger()
			logger.SetLevel(logrus.DebugLevel)

			client, err := NewClient(context.Background(), Config{
				Logger: logger,
				Transport: TransportFunc(func(context.Context, Descriptor) (Executor, error) {
					return nil, tt.err
				}),
			})
			assert.Nil(t, client)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
			assert.ErrorIs(t, err, tt.err)

			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, "open failed", hook.LastEntry().Message)
			assert.Equal(t, "valkey", hook.LastEntry().Data["component"])
		})
	}
}

func TestClient_Close(t *testing.T) {
	exec := &fakeExecutor{}
	client := newFakeClient(t, exec)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
	assert.Equal(t, 1, exec.closed)

	_, err := client.Get(context.Background(), "k")
	assert.Same(t, ErrClientClosed, err)
	assert.True(t, errors.Is(err, KindConnection))
	assert.Empty(t, exec.sent())

	stats := client.Stats()
	assert.Equal(t, uint64(1), stats.Commands)
	assert.Equal(t, uint64(1), stats.ErrorsByKind[KindConnection])
}

func TestClient_SetNXTwice(t *testing.T) {
	exec := (&fakeExecutor{}).reply("OK").reply(nil)
	client := newFakeClient(t, exec)
	ctx := context.Background()

	first, err := client.Set(ctx, "k", "v1", NewSetOptions().NX())
	require.NoError(t, err)
	assert.Equal(t, null.StringFrom("OK"), first)

	second, err := client.Set(ctx, "k", "v2", SetArgs{NX: true})
	require.NoError(t, err)
	assert.False(t, second.Valid)

	assert.Equal(t, []Command{
		{Name: "SET", Args: []string{"k", "v1", "NX"}},
		{Name: "SET", Args: []string{"k", "v2", "NX"}},
	}, exec.sent())
}

func TestClient_ExpiryLifecycle(t *testing.T) {
	exec := (&fakeExecutor{}).
		reply("OK").
		reply(int64(10)).
		reply(int64(1)).
		reply(int64(-1)).
		reply("v").
		reply(int64(-1))
	client := newFakeClient(t, exec)
	ctx := context.Background()

	_, err := client.Set(ctx, "k", "v", NewSetOptions().EX(10))
	require.NoError(t, err)

	ttl, err := client.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(10), ttl)

	persisted, err := client.Persist(ctx, "k")
	require.NoError(t, err)
	assert.True(t, persisted)

	ttl, err = client.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), ttl)

	v, err := client.GetEx(ctx, "k", NewGetExOptions().Persist())
	require.NoError(t, err)
	assert.Equal(t, null.StringFrom("v"), v)

	_, err = client.TTL(ctx, "k")
	require.NoError(t, err)

	assert.Equal(t, []Command{
		{Name: "SET", Args: []string{"k", "v", "EX", "10"}},
		{Name: "TTL", Args: []string{"k"}},
		{Name: "PERSIST", Args: []string{"k"}},
		{Name: "TTL", Args: []string{"k"}},
		{Name: "GETEX", Args: []string{"k", "PERSIST"}},
		{Name: "TTL", Args: []string{"k"}},
	}, exec.sent())
}

func TestClient_MSetMGet(t *testing.T) {
	exec := (&fakeExecutor{}).reply("OK").reply([]any{"1", "2", nil})
	client := newFakeClient(t, exec)
	ctx := context.Background()

	status, err := client.MSet(ctx, Pairs(map[string]string{"b": "2", "a": "1"})...)
	require.NoError(t, err)
	assert.Equal(t, "OK", status)

	values, err := client.MGet(ctx, "a", "b", "missing")
	require.NoError(t, err)
	assert.Equal(t, []null.String{null.StringFrom("1"), null.StringFrom("2"), {}}, values)

	assert.Equal(t, []Command{
		{Name: "MSET", Args: []string{"a", "1", "b", "2"}},
		{Name: "MGET", Args: []string{"a", "b", "missing"}},
	}, exec.sent())
}

func TestClient_GetDel(t *testing.T) {
	exec := (&fakeExecutor{}).reply("OK").reply("v").reply(nil)
	client := newFakeClient(t, exec)
	ctx := context.Background()

	_, err := client.Set(ctx, "k", "v")
	require.NoError(t, err)

	v, err := client.GetDel(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, null.StringFrom("v"), v)

	v, err = client.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, v.Valid)
}

func TestClient_ErrorClassification(t *testing.T) {
	exec := (&fakeExecutor{}).
		fail(errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")).
		fail(errors.New("request timeout: context deadline exceeded")).
		fail(errors.New("ERR unknown command"))
	client := newFakeClient(t, exec)
	ctx := context.Background()

	_, err := client.Incr(ctx, "list")
	assert.True(t, errors.Is(err, KindWrongType))

	_, err = client.Get(ctx, "k")
	assert.True(t, errors.Is(err, KindTimeout))

	_, err = client.Do(ctx, "bogus")
	assert.True(t, errors.Is(err, KindCommand))

	var typed *Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, "ERR unknown command", typed.Message)

	stats := client.Stats()
	assert.Equal(t, uint64(3), stats.Commands)
	assert.Equal(t, uint64(3), stats.Errors)
	assert.Equal(t, uint64(1), stats.ErrorsByKind[KindWrongType])
	assert.Equal(t, uint64(1), stats.ErrorsByKind[KindTimeout])
	assert.Equal(t, uint64(1), stats.ErrorsByKind[KindCommand])
}

func TestClient_ExpireConflictingConditions(t *testing.T) {
	exec := (&fakeExecutor{}).reply(int64(0))
	client := newFakeClient(t, exec)
	ctx := context.Background()

	_, err := client.Expire(ctx, "k", 10, ExpireOptions{NX: true}, ExpireOptions{GT: true})
	assert.True(t, errors.Is(err, KindSyntax))
	assert.Empty(t, exec.sent())

	ok, err := client.PExpire(ctx, "k", 1500, ExpireOptions{XX: true})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []Command{{Name: "PEXPIRE", Args: []string{"k", "1500", "XX"}}}, exec.sent())
}

func TestClient_ArityIsCheckedLocally(t *testing.T) {
	exec := &fakeExecutor{}
	client := newFakeClient(t, exec)
	ctx := context.Background()

	_, err := client.Del(ctx)
	assert.True(t, errors.Is(err, KindSyntax))

	_, err = client.Ping(ctx, "a", "b")
	assert.True(t, errors.Is(err, KindSyntax))

	_, err = client.MGet(ctx)
	assert.True(t, errors.Is(err, KindSyntax))

	assert.Empty(t, exec.sent())
	assert.Equal(t, uint64(3), client.Stats().ErrorsByKind[KindSyntax])
}

func TestClient_UnexpectedReplyShape(t *testing.T) {
	exec := (&fakeExecutor{}).reply([]any{"not", "an", "int"})
	client := newFakeClient(t, exec)

	_, err := client.DBSize(context.Background())
	assert.True(t, errors.Is(err, KindCommand))
}

func TestClient_Encoding(t *testing.T) {
	exec := &fakeExecutor{}
	client := newFakeClient(t, exec)
	ctx := context.Background()

	_, _ = client.Set(ctx, "k", 42, NewSetOptions().PX(500).XX().Get())
	_, _ = client.GetRange(ctx, "k", 0, -1)
	_, _ = client.IncrByFloat(ctx, "f", 0.5)
	_, _ = client.ExpireAt(ctx, "k", 1700000000, ExpireOptions{LT: true})
	_, _ = client.Restore(ctx, "k", 0, []byte("payload"), RestoreOptions{Replace: true})
	_, _ = client.ConfigSet(ctx, "maxmemory", "1mb")
	_, _ = client.FlushDB(ctx, FlushAsync)
	_, _ = client.FlushAll(ctx)
	_, _ = client.ClientList(ctx, ClientListOptions{Type: "normal"})
	_, _ = client.ClusterCommand(ctx, "INFO")
	_, _ = client.Move(ctx, "k", 2)
	_, _ = client.Info(ctx, "server", "memory")

	assert.Equal(t, []Command{
		{Name: "SET", Args: []string{"k", "42", "PX", "500", "XX", "GET"}},
		{Name: "GETRANGE", Args: []string{"k", "0", "-1"}},
		{Name: "INCRBYFLOAT", Args: []string{"f", "0.5"}},
		{Name: "EXPIREAT", Args: []string{"k", "1700000000", "LT"}},
		{Name: "RESTORE", Args: []string{"k", "0", "payload", "REPLACE"}},
		{Name: "CONFIG", Args: []string{"SET", "maxmemory", "1mb"}},
		{Name: "FLUSHDB", Args: []string{"ASYNC"}},
		{Name: "FLUSHALL"},
		{Name: "CLIENT", Args: []string{"LIST", "TYPE", "normal"}},
		{Name: "CLUSTER", Args: []string{"INFO"}},
		{Name: "MOVE", Args: []string{"k", "2"}},
		{Name: "INFO", Args: []string{"server", "memory"}},
	}, exec.sent())
}

func TestClient_ClientKill(t *testing.T) {
	exec := (&fakeExecutor{}).reply(int64(2)).reply("OK")
	client := newFakeClient(t, exec)
	ctx := context.Background()

	n, err := client.ClientKill(ctx, ClientKillOptions{Type: null.StringFrom("normal"), SkipMe: null.BoolFrom(true)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = client.ClientKill(ctx, ClientKillOptions{Addr: null.StringFrom("10.0.0.1:5000")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Equal(t, []Command{
		{Name: "CLIENT", Args: []string{"KILL", "TYPE", "normal", "SKIPME", "yes"}},
		{Name: "CLIENT", Args: []string{"KILL", "ADDR", "10.0.0.1:5000"}},
	}, exec.sent())
}

func TestClient_Time(t *testing.T) {
	exec := (&fakeExecutor{}).reply([]any{"1700000000", "123456"})
	client := newFakeClient(t, exec)

	ts, err := client.Time(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts.Unix())
	assert.Equal(t, 123456000, ts.Nanosecond())
}

func TestClient_ConfigGet(t *testing.T) {
	exec := (&fakeExecutor{}).reply([]any{"maxmemory", "0", "maxmemory-policy", "noeviction"})
	client := newFakeClient(t, exec)

	cfg, err := client.ConfigGet(context.Background(), "maxmemory*")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"maxmemory": "0", "maxmemory-policy": "noeviction"}, cfg)
	assert.Equal(t, []Command{{Name: "CONFIG", Args: []string{"GET", "maxmemory*"}}}, exec.sent())
}

func TestClient_Do(t *testing.T) {
	exec := (&fakeExecutor{}).reply([]any{"a", int64(1)})
	client := newFakeClient(t, exec)

	v, err := client.Do(context.Background(), "object", "encoding", "k")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", int64(1)}, v)
	assert.Equal(t, []Command{{Name: "OBJECT", Args: []string{"encoding", "k"}}}, exec.sent())
}

func TestClient_ConcurrentUse(t *testing.T) {
	exec := &fakeExecutor{}
	client := newFakeClient(t, exec)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Ping(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, exec.sent(), 20)
	assert.Equal(t, uint64(20), client.Stats().Commands)
}
