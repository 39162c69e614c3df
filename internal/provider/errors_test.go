package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantKind   Kind
		retryable  bool
	}{
		{"unauthorized", 401, KindAuth, false},
		{"forbidden", 403, KindAuth, false},
		{"throttled", 429, KindRateLimit, true},
		{"server error", 500, KindNetwork, true},
		{"bad gateway", 502, KindNetwork, true},
		{"bad request", 400, KindValidation, false},
		{"unprocessable", 422, KindValidation, false},
		{"teapot", 418, KindUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify("test", tt.statusCode, nil)
			assert.Equal(t, tt.wantKind, err.Kind)
			assert.Equal(t, tt.retryable, err.Retryable())
		})
	}
}

func TestClassifyTransportErrors(t *testing.T) {
	for _, cause := range []error{
		context.DeadlineExceeded,
		context.Canceled,
		errors.New("connection reset by peer"),
	} {
		err := Classify("test", 0, cause)
		assert.Equal(t, KindNetwork, err.Kind)
		assert.True(t, err.Retryable())
		assert.ErrorIs(t, err, cause)
	}
}

func TestClassifyPassesThroughClassifiedErrors(t *testing.T) {
	orig := NewError(KindAuth, "test", errors.New("bad key"))
	wrapped := fmt.Errorf("calling provider: %w", orig)

	got := Classify("test", 0, wrapped)
	assert.Equal(t, KindAuth, got.Kind)
	assert.False(t, got.Retryable())
}

func TestKindOf(t *testing.T) {
	err := Errorf(KindRateLimit, "test", "slow down")
	wrapped := fmt.Errorf("outer: %w", err)

	assert.Equal(t, KindRateLimit, KindOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestErrorMessage(t *testing.T) {
	err := NewError(KindNetwork, "serpapi", errors.New("timeout"))
	require.EqualError(t, err, "serpapi: network: timeout")

	var perr *Error
	require.ErrorAs(t, fmt.Errorf("wrap: %w", err), &perr)
	assert.Equal(t, "serpapi", perr.Provider)
}
