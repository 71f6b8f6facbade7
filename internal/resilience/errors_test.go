package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit", Transient(errors.New("busy"), 503), true},
		{"wrapped with fmt", fmt.Errorf("call: %w", Transient(errors.New("busy"), 429)), true},
		{"wrapped with eris", eris.Wrap(Transient(errors.New("busy"), 429), "googleads: suggest"), true},
		{"plain", errors.New("invalid argument"), false},
		{"reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"dns timeout", &net.DNSError{IsTimeout: true, Err: "timeout"}, true},
		{"message", errors.New("Post \"https://x\": unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTransient_NilPassesThrough(t *testing.T) {
	assert.NoError(t, Transient(nil, 500))
}

func TestTransientError_Unwrap(t *testing.T) {
	base := errors.New("root")
	err := Transient(base, 502)

	var te *TransientError
	assert.True(t, errors.As(err, &te))
	assert.Equal(t, 502, te.StatusCode)
	assert.ErrorIs(t, err, base)
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, RetryableStatus(code), code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 501} {
		assert.False(t, RetryableStatus(code), code)
	}
}
