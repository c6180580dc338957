package credential

import (
	"context"
	"sync"
	"time"
)

// Cached wraps a Provider with reuse-until-expiry caching. At most one
// refresh is in flight at a time: concurrent callers block on the mutex and
// observe the freshly cached value instead of fetching their own.
type Cached struct {
	inner Provider
	now   func() time.Time

	mu   sync.Mutex
	cred Credential
}

func NewCached(inner Provider) *Cached {
	return &Cached{inner: inner, now: time.Now}
}

func (c *Cached) Acquire(ctx context.Context) (Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cred.Valid(c.now()) {
		return c.cred, nil
	}

	cred, err := c.inner.Acquire(ctx)
	if err != nil {
		return Credential{}, err
	}
	c.cred = cred
	return cred, nil
}
