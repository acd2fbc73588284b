package valkey

import "context"

// Transport establishes the link to the server.
//
// Open receives the descriptor built from the client's ConnectionOptions
// exactly once, when the client is created.
type Transport interface {
	Open(ctx context.Context, d Descriptor) (Executor, error)
}

// Executor is an open handle returned by Transport.Open.
//
// Execute returns the raw reply: string, int64, []any (possibly nested) or
// nil. Failures are returned as errors whose text is classified by the
// client. The client does not serialize calls; an Executor used by several
// goroutines must be safe for concurrent use.
type Executor interface {
	Execute(ctx context.Context, cmd Command) (any, error)
	Close() error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, d Descriptor) (Executor, error)

func (f TransportFunc) Open(ctx context.Context, d Descriptor) (Executor, error) {
	return f(ctx, d)
}
