package valkey

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config holds the configuration of a Client.
type Config struct {
	// Connection is merged over DefaultConnectionOptions to build the
	// descriptor handed to the transport.
	Connection ConnectionOptions

	// Transport opens the link to the server.
	// If nil, a TCPTransport with default settings is used.
	Transport Transport

	// Logger receives debug logs about the client lifecycle and failed commands.
	// If nil, logs are discarded.
	Logger logrus.FieldLogger

	// TracerProvider is used to create a span per command.
	// If nil, no spans are recorded.
	TracerProvider trace.TracerProvider
}

// Client issues typed commands through a Transport.
//
// The client holds no lock: it is safe for concurrent use when its
// transport is. The bundled TCPTransport is.
type Client struct {
	descriptor Descriptor
	executor   Executor
	closed     atomic.Bool

	logger logrus.FieldLogger
	tracer trace.Tracer
	stats  *clientStatsCollector
}

// NewClient builds the connection descriptor and opens the transport.
//
// Failures to open are classified like command failures; a failure that
// matches no pattern is reported as KindConnection.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	descriptor, err := BuildDescriptor(config.Connection)
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	logger = logger.WithField("component", "valkey")

	tp := config.TracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}

	transport := config.Transport
	if transport == nil {
		transport = NewTCPTransport(TCPTransportConfig{Logger: logger})
	}

	executor, err := transport.Open(ctx, descriptor)
	if err != nil {
		typed := classifyError(err)
		if typed.Kind == KindCommand {
			typed = &Error{Kind: KindConnection, Message: typed.Message, Err: err}
		}
		logger.WithFields(logrus.Fields{
			"addr": descriptor.Addresses[0].String(),
			"kind": typed.Kind.String(),
		}).WithError(err).Debug("open failed")
		return nil, typed
	}

	logger.WithFields(logrus.Fields{
		"addr":        descriptor.Addresses[0].String(),
		"fingerprint": descriptor.FingerprintString(),
	}).Debug("client opened")

	return &Client{
		descriptor: descriptor,
		executor:   executor,
		logger:     logger,
		tracer:     tp.Tracer(tracerName),
		stats:      newClientStatsCollector(),
	}, nil
}

// Descriptor returns the descriptor the transport was opened with.
func (c *Client) Descriptor() Descriptor {
	return c.descriptor
}

// Close releases the transport handle. It is safe to call more than once;
// only the first call closes the handle.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.logger.Debug("client closed")
	return c.executor.Close()
}

// Stats returns a snapshot of the client statistics.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// Do sends an arbitrary command and returns the raw reply.
// The name is upper-cased and the arguments are converted like the
// positional arguments of every other command.
//
//	client.Do(ctx, "object", "encoding", "key")
func (c *Client) Do(ctx context.Context, name string, args ...any) (any, error) {
	return c.send(ctx, Encode(name, args, nil), replyRaw)
}

// exec resolves the command in the registry, validates it and sends it.
func (c *Client) exec(ctx context.Context, id commandID, positional []any, options []string) (any, error) {
	def, ok := commands[id]
	if !ok {
		return nil, c.fail(ctx, Command{}, syntaxError(fmt.Sprintf("unknown command %d", id)))
	}
	if err := def.checkArity(len(positional)); err != nil {
		return nil, c.fail(ctx, Command{Name: def.wire[0]}, err)
	}
	if !def.options && len(options) > 0 {
		return nil, c.fail(ctx, Command{Name: def.wire[0]}, syntaxError(def.name()+" takes no options"))
	}
	return c.send(ctx, def.encode(positional, options), def.reply)
}

func (c *Client) send(ctx context.Context, cmd Command, shape replyShape) (any, error) {
	if c.closed.Load() {
		c.stats.recordCommand()
		c.stats.recordError(ErrClientClosed.Kind)
		return nil, ErrClientClosed
	}

	c.stats.recordCommand()

	ctx, span := c.startSpan(ctx, cmd)

	raw, err := c.executor.Execute(ctx, cmd)
	if err != nil {
		typed := classifyError(err)
		c.recordFailure(cmd, typed)
		endSpan(span, typed)
		return nil, typed
	}

	value, err := normalize(shape, raw)
	if err != nil {
		typed := classifyError(err)
		c.recordFailure(cmd, typed)
		endSpan(span, typed)
		return nil, typed
	}

	endSpan(span, nil)
	return value, nil
}

// fail reports an error raised before the command reached the transport.
func (c *Client) fail(ctx context.Context, cmd Command, err *Error) *Error {
	c.stats.recordCommand()
	_, span := c.startSpan(ctx, cmd)
	c.recordFailure(cmd, err)
	endSpan(span, err)
	return err
}

func (c *Client) recordFailure(cmd Command, err *Error) {
	c.stats.recordError(err.Kind)
	c.logger.WithFields(logrus.Fields{
		"command": cmd.Name,
		"kind":    err.Kind.String(),
	}).Debug(err.Message)
}

// run executes a registered command and returns its normalized reply as T.
func run[T any](ctx context.Context, c *Client, id commandID, positional []any, options []string) (T, error) {
	var zero T

	v, err := c.exec(ctx, id, positional, options)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}

	t, ok := v.(T)
	if !ok {
		return zero, &Error{Kind: KindCommand, Message: fmt.Sprintf("unexpected %T reply", v)}
	}
	return t, nil
}
