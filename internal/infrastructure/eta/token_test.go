package eta

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSource_CachesUntilMargin(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	calls := 0

	ts := NewTokenSource(func(ctx context.Context) (string, int, error) {
		calls++
		return "tok-1", 3600, nil
	}, 5*time.Minute)
	ts.now = func() time.Time { return clock }

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, calls)

	// Well within lifetime: cached, no second exchange.
	clock = base.Add(30 * time.Minute)
	tok, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, calls)

	// Inside the 5 minute safety margin of the 1 h lifetime: refreshed.
	clock = base.Add(56 * time.Minute)
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTokenSource_DefaultLifetime(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	calls := 0

	// Authority responses sometimes omit expires_in; 3600 s is assumed.
	ts := NewTokenSource(func(ctx context.Context) (string, int, error) {
		calls++
		return "tok", 0, nil
	}, 5*time.Minute)
	ts.now = func() time.Time { return clock }

	_, err := ts.Token(context.Background())
	require.NoError(t, err)

	clock = base.Add(54 * time.Minute)
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestTokenSource_ExchangeFailure(t *testing.T) {
	ts := NewTokenSource(func(ctx context.Context) (string, int, error) {
		return "", 0, errors.New("connection refused")
	}, time.Minute)

	_, err := ts.Token(context.Background())
	require.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestTokenSource_Invalidate(t *testing.T) {
	calls := 0
	ts := NewTokenSource(func(ctx context.Context) (string, int, error) {
		calls++
		return "tok", 3600, nil
	}, time.Minute)

	_, err := ts.Token(context.Background())
	require.NoError(t, err)
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	ts.Invalidate()
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
