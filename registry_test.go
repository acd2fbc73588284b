package valkey

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands_TableIsComplete(t *testing.T) {
	for id := cmdGet; id <= cmdCluster; id++ {
		def, ok := commands[id]
		require.True(t, ok, "command %d has no entry", id)
		require.NotEmpty(t, def.wire, "command %d", id)
		for _, w := range def.wire {
			assert.Equal(t, strings.ToUpper(w), w, "command %d", id)
		}
	}
}

func TestCommandSpec_CheckArity(t *testing.T) {
	tests := []struct {
		id      commandID
		n       int
		wantErr string
	}{
		{cmdGet, 1, ""},
		{cmdGet, 0, "wrong number of arguments for 'get': expected 1, got 0"},
		{cmdGet, 2, "wrong number of arguments for 'get': expected 1, got 2"},
		{cmdDBSize, 0, ""},
		{cmdDel, 3, ""},
		{cmdDel, 0, "wrong number of arguments for 'del': expected at least 1, got 0"},
		{cmdPing, 0, ""},
		{cmdPing, 1, ""},
		{cmdPing, 2, "wrong number of arguments for 'ping': expected at most 1, got 2"},
		{cmdInfo, 0, ""},
		{cmdInfo, 4, ""},
		{cmdConfigGet, 0, "wrong number of arguments for 'config get': expected at least 1, got 0"},
		{cmdMSet, 4, ""},
	}

	for _, tt := range tests {
		def := commands[tt.id]
		t.Run(def.name(), func(t *testing.T) {
			err := def.checkArity(tt.n)
			if tt.wantErr == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, KindSyntax, err.Kind)
			assert.Equal(t, tt.wantErr, err.Message)
			assert.True(t, errors.Is(err, KindSyntax))
		})
	}
}

func TestCommandSpec_EncodeSubcommand(t *testing.T) {
	cmd := commands[cmdConfigGet].encode([]any{"maxmemory", "save"}, nil)
	assert.Equal(t, Command{Name: "CONFIG", Args: []string{"GET", "maxmemory", "save"}}, cmd)

	cmd = commands[cmdClientKill].encode(nil, []string{"ID", "7"})
	assert.Equal(t, Command{Name: "CLIENT", Args: []string{"KILL", "ID", "7"}}, cmd)

	cmd = commands[cmdGet].encode([]any{"k"}, nil)
	assert.Equal(t, Command{Name: "GET", Args: []string{"k"}}, cmd)
}
