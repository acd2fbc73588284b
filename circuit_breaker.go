package valkey

import (
	"context"
	"errors"
	"time"

	"github.com/pior/valkey/resp"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// NewCircuitBreakerFunc creates the circuit breaker of a server.
// The name identifies the server in logs and stats.
type NewCircuitBreakerFunc func(name string, logger logrus.FieldLogger) *gobreaker.CircuitBreaker[any]

// NewCircuitBreakerConfig returns a NewCircuitBreakerFunc for common use cases.
//
// The breaker trips after at least 3 requests with a failure ratio of 60% or
// more. Error replies from the server and requests canceled by the caller
// count as successes: only connection and protocol failures are failures.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) NewCircuitBreakerFunc {
	return func(name string, logger logrus.FieldLogger) *gobreaker.CircuitBreaker[any] {
		settings := gobreaker.Settings{
			Name:        name,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			IsSuccessful: func(err error) bool {
				if errors.Is(err, context.Canceled) {
					return true
				}
				return !resp.ShouldCloseConnection(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				if logger != nil {
					logger.WithFields(logrus.Fields{
						"breaker": name,
						"from":    from.String(),
						"to":      to.String(),
					}).Warn("circuit breaker state changed")
				}
			},
		}
		return gobreaker.NewCircuitBreaker[any](settings)
	}
}
