package eta

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ExchangeFunc performs one client-credentials exchange against the token
// endpoint and returns the access token plus its advertised lifetime in
// seconds. The transport retry policy is applied inside the function.
type ExchangeFunc func(ctx context.Context) (token string, expiresIn int, err error)

// TokenSource caches the current access token for the tenant and refreshes it
// through a client-credentials exchange when absent or near expiry. The
// safety margin is subtracted from the advertised lifetime at store time, so
// a cached token is never handed out within that margin of its real expiry.
//
// The mutex is held across the exchange: concurrent submissions observe at
// most one in-flight refresh (tokens are idempotently replaceable, but there
// is no reason to hit the authority twice).
type TokenSource struct {
	mu           sync.Mutex
	exchange     ExchangeFunc
	safetyMargin time.Duration
	now          func() time.Time

	token  string
	expiry time.Time
}

// NewTokenSource builds the cache. margin <= 0 falls back to 5 minutes.
func NewTokenSource(exchange ExchangeFunc, margin time.Duration) *TokenSource {
	if margin <= 0 {
		margin = 5 * time.Minute
	}
	return &TokenSource{
		exchange:     exchange,
		safetyMargin: margin,
		now:          time.Now,
	}
}

// Token returns a valid cached token or performs a refresh. An exhausted
// exchange surfaces as ErrAuthenticationFailed.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Before(ts.expiry) {
		return ts.token, nil
	}

	token, expiresIn, err := ts.exchange(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	if expiresIn <= 0 {
		expiresIn = 3600 // authority default when the field is absent
	}

	ts.token = token
	ts.expiry = ts.now().Add(time.Duration(expiresIn)*time.Second - ts.safetyMargin)
	return ts.token, nil
}

// Invalidate drops the cached token, forcing the next caller to refresh.
// Used when the authority answers 401 despite a token we considered valid.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = ""
	ts.expiry = time.Time{}
}
