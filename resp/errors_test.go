package resp

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldCloseConnection(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"server error", &ServerError{Message: "ERR x"}, false},
		{"wrapped server error", fmt.Errorf("exec: %w", &ServerError{Message: "ERR x"}), false},
		{"parse error", &ParseError{Message: "bad"}, true},
		{"connection error", &ConnectionError{Op: "read", Err: io.EOF}, true},
		{"unknown error", errors.New("something"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldCloseConnection(tt.err))
		})
	}
}

func TestServerError_Prefix(t *testing.T) {
	assert.Equal(t, "NOAUTH", (&ServerError{Message: "NOAUTH Authentication required."}).Prefix())
	assert.Equal(t, "ERR", (&ServerError{Message: "ERR"}).Prefix())
	assert.Equal(t, "", (&ServerError{Message: ""}).Prefix())
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "connection error during read: EOF", (&ConnectionError{Op: "read", Err: io.EOF}).Error())
	assert.Equal(t, "protocol error: bad", (&ParseError{Message: "bad"}).Error())
	assert.Equal(t, "protocol error: bad: EOF", (&ParseError{Message: "bad", Err: io.EOF}).Error())
	assert.ErrorIs(t, &ParseError{Message: "bad", Err: io.EOF}, io.EOF)
}
