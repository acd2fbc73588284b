package valkey

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TCPTransportConfig holds the configuration of a TCPTransport.
type TCPTransportConfig struct {
	// MaxSize is the maximum number of connections per server.
	// Defaults to 10.
	MaxSize int32

	// ConnectTimeout bounds dialing, authentication and database selection
	// of a new connection, retries included. Defaults to 5 seconds.
	ConnectTimeout time.Duration

	// DialRetries is the number of additional dial attempts after a failure.
	// Zero means a single attempt.
	DialRetries int

	// DialRetryInterval is the first wait between dial attempts. It grows
	// exponentially. Defaults to 50ms.
	DialRetryInterval time.Duration

	// Dialer is the net.Dialer used to create new connections.
	// If nil, the default net.Dialer is used.
	Dialer *net.Dialer

	// NewCircuitBreaker creates the circuit breaker of a server.
	// If nil, no circuit breaker is used.
	NewCircuitBreaker NewCircuitBreakerFunc

	// Logger receives connection lifecycle logs. If nil, logs are discarded.
	Logger logrus.FieldLogger
}

func (c TCPTransportConfig) withDefaults() TCPTransportConfig {
	if c.MaxSize <= 0 {
		c.MaxSize = 10
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.DialRetryInterval <= 0 {
		c.DialRetryInterval = 50 * time.Millisecond
	}
	if c.Dialer == nil {
		c.Dialer = &net.Dialer{}
	}
	if c.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.Logger = l
	}
	return c
}

// TCPTransport is the bundled Transport. Each Open creates a pool of RESP
// connections to the descriptor address. It is safe for concurrent use.
type TCPTransport struct {
	config TCPTransportConfig

	mu    sync.Mutex
	nodes map[*nodePool]struct{}
}

var _ Transport = (*TCPTransport)(nil)

func NewTCPTransport(config TCPTransportConfig) *TCPTransport {
	return &TCPTransport{
		config: config.withDefaults(),
		nodes:  make(map[*nodePool]struct{}),
	}
}

// Open creates the connection pool and establishes a first connection, so
// that an unreachable server or bad credentials fail here rather than on
// the first command.
func (t *TCPTransport) Open(ctx context.Context, d Descriptor) (Executor, error) {
	logger := t.config.Logger.WithFields(logrus.Fields{
		"addr":        d.Addresses[0].String(),
		"fingerprint": d.FingerprintString(),
	})

	np, err := newNodePool(d, t.config, logger)
	if err != nil {
		return nil, err
	}

	if err := np.ping(ctx); err != nil {
		np.Close()
		return nil, err
	}

	t.mu.Lock()
	t.nodes[np] = struct{}{}
	t.mu.Unlock()

	logger.Debug("transport opened")

	return &tcpExecutor{
		transport: t,
		node:      np,
		timeout:   d.RequestTimeout,
	}, nil
}

// PoolStats returns the stats of every open pool.
func (t *TCPTransport) PoolStats() []NodeStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := make([]NodeStats, 0, len(t.nodes))
	for np := range t.nodes {
		stats = append(stats, np.Stats())
	}
	return stats
}

func (t *TCPTransport) release(np *nodePool) {
	t.mu.Lock()
	delete(t.nodes, np)
	t.mu.Unlock()
}

type tcpExecutor struct {
	transport *TCPTransport
	node      *nodePool
	timeout   time.Duration
	closeOnce sync.Once
}

func (e *tcpExecutor) Execute(ctx context.Context, cmd Command) (any, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return e.node.Execute(ctx, cmd)
}

func (e *tcpExecutor) Close() error {
	e.closeOnce.Do(func() {
		e.transport.release(e.node)
		e.node.Close()
		e.node.logger.Debug("transport closed")
	})
	return nil
}

// Stats returns the stats of the executor pool.
func (e *tcpExecutor) Stats() NodeStats {
	return e.node.Stats()
}
