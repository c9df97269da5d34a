package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldTreatAsSuccess_EmbeddedStatusCode(t *testing.T) {
	assert.True(t, ShouldTreatAsSuccess(errors.New("soap fault: upnp response 200 OK")))
	assert.True(t, ShouldTreatAsSuccess(errors.New("parse error: status 204 no content")))
	assert.False(t, ShouldTreatAsSuccess(errors.New("soap fault: upnp response 500 Internal Server Error")))
	assert.False(t, ShouldTreatAsSuccess(errors.New("connection refused")))
	assert.False(t, ShouldTreatAsSuccess(nil))
}

func TestBounded_TreatsEmbedded2xxAsSuccess(t *testing.T) {
	var calls int32
	op := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, errors.New("malformed body, status 202 Accepted")
	}

	result, err := Bounded(context.Background(), "test-op", 5, op)
	require.NoError(t, err)
	assert.Equal(t, 0, result)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestBounded_ExhaustsAndReturnsLastError(t *testing.T) {
	wantErr := errors.New("device unreachable")
	var calls int32
	op := func(ctx context.Context) (struct{}, error) {
		atomic.AddInt32(&calls, 1)
		return struct{}{}, wantErr
	}

	start := time.Now()
	_, err := Bounded(context.Background(), "test-op", 3, op)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	// Two sleeps of BaseDelay between three attempts, none after the last.
	assert.GreaterOrEqual(t, elapsed, 2*BaseDelay)
}

func TestBounded_ReturnsContextErrorOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	op := func(ctx context.Context) (struct{}, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			cancel()
		}
		return struct{}{}, errors.New("renderer busy")
	}

	_, err := Bounded(ctx, "test-op", 0, op)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestBounded_SucceedsWithoutRetryingFurther(t *testing.T) {
	var calls int32
	op := func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) < 2 {
			return "", errors.New("transient failure")
		}
		return "ok", nil
	}

	result, err := Bounded(context.Background(), "test-op", 0, op)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestForever_DelegatesToBoundedWithNoLimit(t *testing.T) {
	var calls int32
	op := func(ctx context.Context) (struct{}, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return struct{}{}, errors.New("not ready yet")
		}
		return struct{}{}, nil
	}

	_, err := Forever(context.Background(), "test-op", op)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}
