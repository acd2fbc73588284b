package valkey

import (
	"github.com/prometheus/client_golang/prometheus"
)

// nodeStatser is implemented by executors that pool connections, like the
// one returned by TCPTransport.
type nodeStatser interface {
	Stats() NodeStats
}

// StatsCollector exposes the stats of a Client as Prometheus metrics.
//
//	registry.MustRegister(valkey.NewStatsCollector(client))
type StatsCollector struct {
	client *Client

	commands      *prometheus.Desc
	errors        *prometheus.Desc
	poolConns     *prometheus.Desc
	poolCreated   *prometheus.Desc
	poolDestroyed *prometheus.Desc
	acquireErrors *prometheus.Desc
	breakerState  *prometheus.Desc
}

var _ prometheus.Collector = (*StatsCollector)(nil)

func NewStatsCollector(client *Client) *StatsCollector {
	return &StatsCollector{
		client: client,
		commands: prometheus.NewDesc(
			"valkey_commands_total",
			"Total number of commands issued",
			nil, nil,
		),
		errors: prometheus.NewDesc(
			"valkey_command_errors_total",
			"Total number of failed commands",
			[]string{"kind"}, nil,
		),
		poolConns: prometheus.NewDesc(
			"valkey_pool_connections",
			"Connection pool statistics",
			[]string{"server", "state"}, nil, // total, active, idle
		),
		poolCreated: prometheus.NewDesc(
			"valkey_pool_connections_created_total",
			"Total connections created",
			[]string{"server"}, nil,
		),
		poolDestroyed: prometheus.NewDesc(
			"valkey_pool_connections_destroyed_total",
			"Total connections destroyed",
			[]string{"server"}, nil,
		),
		acquireErrors: prometheus.NewDesc(
			"valkey_pool_acquire_errors_total",
			"Total canceled connection acquires",
			[]string{"server"}, nil,
		),
		breakerState: prometheus.NewDesc(
			"valkey_circuit_breaker_state",
			"Circuit breaker state (0=closed, 1=half-open, 2=open)",
			[]string{"server"}, nil,
		),
	}
}

func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.commands
	ch <- c.errors
	ch <- c.poolConns
	ch <- c.poolCreated
	ch <- c.poolDestroyed
	ch <- c.acquireErrors
	ch <- c.breakerState
}

func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.client.Stats()

	ch <- prometheus.MustNewConstMetric(c.commands, prometheus.CounterValue, float64(stats.Commands))
	for kind, n := range stats.ErrorsByKind {
		ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(n), kind.String())
	}

	statser, ok := c.client.executor.(nodeStatser)
	if !ok {
		return
	}
	node := statser.Stats()
	pool := node.PoolStats

	ch <- prometheus.MustNewConstMetric(c.poolConns, prometheus.GaugeValue, float64(pool.TotalConns), node.Addr, "total")
	ch <- prometheus.MustNewConstMetric(c.poolConns, prometheus.GaugeValue, float64(pool.ActiveConns), node.Addr, "active")
	ch <- prometheus.MustNewConstMetric(c.poolConns, prometheus.GaugeValue, float64(pool.IdleConns), node.Addr, "idle")
	ch <- prometheus.MustNewConstMetric(c.poolCreated, prometheus.CounterValue, float64(pool.CreatedConns), node.Addr)
	ch <- prometheus.MustNewConstMetric(c.poolDestroyed, prometheus.CounterValue, float64(pool.DestroyedConns), node.Addr)
	ch <- prometheus.MustNewConstMetric(c.acquireErrors, prometheus.CounterValue, float64(pool.AcquireErrors), node.Addr)
	ch <- prometheus.MustNewConstMetric(c.breakerState, prometheus.GaugeValue, float64(node.CircuitBreakerState), node.Addr)
}
