package valkey

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		raw  string
		want Kind
	}{
		{"ERR WRONGTYPE Operation against a key holding the wrong kind of value", KindWrongType},
		{"WRONGTYPE Operation against a key holding the wrong kind of value", KindWrongType},
		{"NOAUTH Authentication required.", KindAuth},
		{"request timeout: context deadline exceeded", KindTimeout},
		{"Timeout while waiting", KindTimeout},
		{"TIMEOUT", KindTimeout},
		{"connection refused", KindConnection},
		{"Connection reset by peer", KindConnection},
		{"Something else entirely", KindCommand},
		{"ERR unknown command 'foo'", KindCommand},
		{"", KindCommand},

		// store-defined prefixes are case-sensitive
		{"wrongtype lower case", KindCommand},
		{"noauth lower case", KindCommand},

		// first match wins
		{"WRONGTYPE connection timeout", KindWrongType},
		{"NOAUTH connection", KindAuth},
		{"connection timeout", KindTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			err := Classify(tt.raw)
			assert.Equal(t, tt.want, err.Kind)
			assert.Equal(t, tt.raw, err.Message)
			assert.Nil(t, err.Err)
		})
	}
}

func TestClassify_NeverProducesReservedKinds(t *testing.T) {
	inputs := []string{"KEY", "key error", "ERR syntax error", "SYNTAX", "no such key"}
	for _, raw := range inputs {
		kind := Classify(raw).Kind
		assert.NotEqual(t, KindKey, kind, raw)
		assert.NotEqual(t, KindSyntax, kind, raw)
	}
}

func TestClassify_IsPure(t *testing.T) {
	raw := "connection lost"
	first := Classify(raw)
	second := Classify(raw)
	assert.Equal(t, first, second)
	assert.NotSame(t, first, second)
}

func TestError_Matching(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Classify("NOAUTH Authentication required."))

	assert.True(t, errors.Is(err, KindAuth))
	assert.False(t, errors.Is(err, KindTimeout))
	assert.False(t, errors.Is(err, KindCommand))

	var typed *Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, KindAuth, typed.Kind)
	assert.Equal(t, "valkey: auth error: NOAUTH Authentication required.", typed.Error())
}

func TestClassifyError_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:1: connect: connection refused")
	err := classifyError(cause)

	assert.Equal(t, KindConnection, err.Kind)
	assert.ErrorIs(t, err, cause)
}

func TestClassifyError_TypedUnchanged(t *testing.T) {
	original := syntaxError("bad flags")
	err := classifyError(fmt.Errorf("context: %w", original))
	assert.Same(t, original, err)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "wrong type error", KindWrongType.String())
	assert.Equal(t, "unknown error", Kind(99).String())
	assert.Equal(t, "valkey: timeout error", KindTimeout.Error())
}
