package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Circuit Breaker Tests

func TestCircuitBreaker_NewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker("test")

	assert.Equal(t, "test", cb.name)
	assert.Equal(t, uint32(100), cb.maxRequests)
	assert.Equal(t, 60*time.Second, cb.interval)
	assert.Equal(t, 60*time.Second, cb.timeout)
	assert.Equal(t, 0.6, cb.failureRatio)
	assert.Equal(t, StateClosed, cb.state)
}

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	expectedResult := "success"
	result, err := cb.Execute(ctx, func() (any, error) {
		return expectedResult, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, expectedResult, result)
	assert.Equal(t, StateClosed, cb.state)
	assert.Equal(t, uint32(1), cb.counts.Requests)
	assert.Equal(t, uint32(1), cb.counts.TotalSuccesses)
	assert.Equal(t, uint32(0), cb.counts.TotalFailures)
}

func TestCircuitBreaker_ExecuteFailure(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	expectedError := errors.New("test error")
	result, err := cb.Execute(ctx, func() (any, error) {
		return nil, expectedError
	})

	assert.Error(t, err)
	assert.Equal(t, expectedError, err)
	assert.Nil(t, result)
	assert.Equal(t, uint32(1), cb.counts.Requests)
	assert.Equal(t, uint32(0), cb.counts.TotalSuccesses)
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	failing := func() (any, error) {
		return nil, errors.New("gateway down")
	}

	// The breaker trips once the request count reaches maxRequests with the
	// failure ratio exceeded.
	for i := 0; i < int(cb.maxRequests); i++ {
		cb.Execute(ctx, failing)
	}

	assert.Equal(t, StateOpen, cb.state)

	_, err := cb.Execute(ctx, func() (any, error) {
		t.Fatal("request must not pass through an open breaker")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrOpen)
}

// GenerateCode Tests

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(4)
	require.NoError(t, err)

	// 4 random bytes hex-encode to 8 characters.
	assert.Len(t, code, 8)
	for _, c := range code {
		assert.Contains(t, "0123456789ABCDEF", string(c))
	}
}

func TestGenerateCode_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateCode(8)
		require.NoError(t, err)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}
