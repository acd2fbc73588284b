package valkey

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/puddle/v2"
	"github.com/pior/valkey/resp"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// nodePool is the connection pool of one server, wrapped by its circuit breaker.
type nodePool struct {
	addr   string
	auth   *Credentials
	logger logrus.FieldLogger

	pool           *puddle.Pool[*Connection]
	circuitBreaker *gobreaker.CircuitBreaker[any] // nil if not configured

	// db is the logical database every connection should have selected.
	// It changes when a SELECT succeeds.
	db atomic.Uint32

	createdConns   atomic.Int64
	destroyedConns atomic.Int64
}

func newNodePool(d Descriptor, config TCPTransportConfig, logger logrus.FieldLogger) (*nodePool, error) {
	np := &nodePool{
		addr:   d.Addresses[0].String(),
		auth:   d.Auth,
		logger: logger,
	}
	np.db.Store(d.DB)

	pool, err := puddle.NewPool(&puddle.Config[*Connection]{
		Constructor: func(ctx context.Context) (*Connection, error) {
			conn, err := np.connect(ctx, config)
			if err == nil {
				np.createdConns.Add(1)
			}
			return conn, err
		},
		Destructor: func(c *Connection) {
			np.destroyedConns.Add(1)
			_ = c.Close()
		},
		MaxSize: config.MaxSize,
	})
	if err != nil {
		return nil, err
	}
	np.pool = pool

	if config.NewCircuitBreaker != nil {
		np.circuitBreaker = config.NewCircuitBreaker(np.addr+"/"+d.FingerprintString(), logger)
	}

	return np, nil
}

// connect dials the server, retrying with exponential backoff, then
// authenticates and selects the database.
func (np *nodePool) connect(ctx context.Context, config TCPTransportConfig) (*Connection, error) {
	if config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
	}

	dial := func() (net.Conn, error) {
		return config.Dialer.DialContext(ctx, "tcp", np.addr)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = config.DialRetryInterval
	retries := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(config.DialRetries)), ctx)

	netConn, err := backoff.RetryNotifyWithData[net.Conn](dial, retries, func(err error, next time.Duration) {
		np.logger.WithError(err).WithField("addr", np.addr).WithField("retry_in", next).Warn("dial failed")
	})
	if err != nil {
		return nil, fmt.Errorf("connection error: %w", err)
	}

	conn := NewConnection(netConn)
	if err := np.handshake(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func (np *nodePool) handshake(ctx context.Context, conn *Connection) error {
	if np.auth != nil {
		args := []string{"AUTH"}
		if np.auth.Username != "" {
			args = append(args, np.auth.Username)
		}
		args = append(args, np.auth.Password)

		if _, err := conn.Execute(ctx, args); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}
	return np.ensureDB(ctx, conn)
}

// ensureDB selects the pool database on conn if it differs.
func (np *nodePool) ensureDB(ctx context.Context, conn *Connection) error {
	db := np.db.Load()
	if conn.db == db {
		return nil
	}
	if _, err := conn.Execute(ctx, []string{"SELECT", strconv.FormatUint(uint64(db), 10)}); err != nil {
		return err
	}
	conn.db = db
	return nil
}

// Execute runs the command on a pooled connection, through the circuit
// breaker when one is configured.
func (np *nodePool) Execute(ctx context.Context, cmd Command) (any, error) {
	if np.circuitBreaker == nil {
		return np.execDirect(ctx, cmd)
	}

	reply, err := np.circuitBreaker.Execute(func() (any, error) {
		return np.execDirect(ctx, cmd)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("connection unavailable: %w", err)
	}
	return reply, err
}

func (np *nodePool) execDirect(ctx context.Context, cmd Command) (any, error) {
	resource, err := np.pool.Acquire(ctx)
	if err != nil {
		if errors.Is(err, puddle.ErrClosedPool) {
			return nil, fmt.Errorf("connection closed: %w", err)
		}
		return nil, contextError(err)
	}

	conn := resource.Value()

	if cmd.Name != "SELECT" {
		if err := np.ensureDB(ctx, conn); err != nil {
			np.releaseOnError(resource, err)
			return nil, err
		}
	}

	reply, err := conn.Execute(ctx, append([]string{cmd.Name}, cmd.Args...))
	if err != nil {
		np.releaseOnError(resource, err)
		return nil, err
	}

	if cmd.Name == "SELECT" && len(cmd.Args) == 1 {
		if db, perr := strconv.ParseUint(cmd.Args[0], 10, 32); perr == nil {
			conn.db = uint32(db)
			np.db.Store(uint32(db))
		}
	}

	resource.Release()
	return reply, nil
}

func (np *nodePool) releaseOnError(resource *puddle.Resource[*Connection], err error) {
	if resp.ShouldCloseConnection(err) {
		resource.Destroy()
	} else {
		resource.Release()
	}
}

// ping checks that a connection can be established.
func (np *nodePool) ping(ctx context.Context) error {
	_, err := np.execDirect(ctx, Command{Name: "PING"})
	return err
}

func (np *nodePool) Close() {
	np.pool.Close()
}

// NodeStats contains the stats of one server pool.
type NodeStats struct {
	Addr                 string
	PoolStats            PoolStats
	CircuitBreakerState  gobreaker.State
	CircuitBreakerCounts gobreaker.Counts
}

func (np *nodePool) Stats() NodeStats {
	s := np.pool.Stat()

	stats := NodeStats{
		Addr: np.addr,
		PoolStats: PoolStats{
			TotalConns:        s.TotalResources(),
			IdleConns:         s.IdleResources(),
			ActiveConns:       s.AcquiredResources(),
			AcquireCount:      uint64(s.AcquireCount()),
			AcquireWaitCount:  uint64(s.EmptyAcquireCount()),
			CreatedConns:      uint64(np.createdConns.Load()),
			DestroyedConns:    uint64(np.destroyedConns.Load()),
			AcquireErrors:     uint64(s.CanceledAcquireCount()),
			AcquireWaitTimeNs: uint64(s.EmptyAcquireWaitTime().Nanoseconds()),
		},
	}
	if np.circuitBreaker != nil {
		stats.CircuitBreakerState = np.circuitBreaker.State()
		stats.CircuitBreakerCounts = np.circuitBreaker.Counts()
	}
	return stats
}
