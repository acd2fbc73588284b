package valkey

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCollector_ClientOnly(t *testing.T) {
	exec := (&fakeExecutor{}).reply("v").fail(errors.New("WRONGTYPE Operation against a key holding the wrong kind of value"))
	client := newFakeClient(t, exec)
	ctx := context.Background()

	_, _ = client.Get(ctx, "k")
	_, _ = client.Incr(ctx, "k")

	collector := NewStatsCollector(client)

	registry := prometheus.NewPedanticRegistry()
	require.NoError(t, registry.Register(collector))

	expected := `
# HELP valkey_command_errors_total Total number of failed commands
# TYPE valkey_command_errors_total counter
valkey_command_errors_total{kind="wrong type error"} 1
# HELP valkey_commands_total Total number of commands issued
# TYPE valkey_commands_total counter
valkey_commands_total 2
`
	err := testutil.GatherAndCompare(registry, strings.NewReader(expected),
		"valkey_commands_total", "valkey_command_errors_total")
	require.NoError(t, err)

	// fakeExecutor has no pool, so only the client metrics are collected.
	assert.Equal(t, 2, testutil.CollectAndCount(collector))
}
