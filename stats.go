package valkey

import (
	"sync/atomic"
)

// ClientStats contains statistics about the commands issued by a Client.
//
// For Prometheus integration, see NewStatsCollector.
type ClientStats struct {
	Commands uint64 // Total commands issued, including failed ones
	Errors   uint64 // Total failed commands

	// ErrorsByKind breaks Errors down by error kind. Kinds that never
	// occurred are absent.
	ErrorsByKind map[Kind]uint64
}

// PoolStats contains statistics about the connection pool of a TCPTransport.
type PoolStats struct {
	// Lifetime counters
	AcquireCount      uint64 // Total acquire attempts
	AcquireWaitCount  uint64 // Acquires that had to wait for a connection
	CreatedConns      uint64 // Total connections created
	DestroyedConns    uint64 // Total connections destroyed
	AcquireErrors     uint64 // Canceled acquire attempts
	AcquireWaitTimeNs uint64 // Total nanoseconds spent waiting

	// Current state gauges
	TotalConns  int32 // Total connections in pool (active + idle)
	IdleConns   int32 // Idle connections available
	ActiveConns int32 // Connections currently in use
}

const numKinds = int(KindSyntax) + 1

// clientStatsCollector records client stats with atomic counters.
type clientStatsCollector struct {
	commands atomic.Uint64
	errors   atomic.Uint64
	byKind   [numKinds]atomic.Uint64
}

func newClientStatsCollector() *clientStatsCollector {
	return &clientStatsCollector{}
}

func (c *clientStatsCollector) recordCommand() {
	c.commands.Add(1)
}

func (c *clientStatsCollector) recordError(kind Kind) {
	c.errors.Add(1)
	if int(kind) >= 0 && int(kind) < numKinds {
		c.byKind[kind].Add(1)
	}
}

func (c *clientStatsCollector) snapshot() ClientStats {
	stats := ClientStats{
		Commands:     c.commands.Load(),
		Errors:       c.errors.Load(),
		ErrorsByKind: make(map[Kind]uint64),
	}
	for i := range c.byKind {
		if n := c.byKind[i].Load(); n > 0 {
			stats.ErrorsByKind[Kind(i)] = n
		}
	}
	return stats
}
