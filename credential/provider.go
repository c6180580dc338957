// Package credential obtains and caches the bearer token or static key used
// to authenticate against the completion endpoint and the bot connector.
package credential

import (
	"context"
	"time"
)

// Credential is an opaque bearer value. Expiry is zero for static keys, which
// never expire.
type Credential struct {
	Token  string
	Expiry time.Time
}

// Valid reports whether the credential can still be used at the given time.
func (c Credential) Valid(now time.Time) bool {
	if c.Token == "" {
		return false
	}
	if c.Expiry.IsZero() {
		return true
	}
	return now.Before(c.Expiry)
}

// Provider acquires a credential. Implementations may block on network I/O.
type Provider interface {
	Acquire(ctx context.Context) (Credential, error)
}

// AuthError wraps a failed acquisition: the identity source was unreachable
// or denied the request.
type AuthError struct {
	Cause error
}

func (e *AuthError) Error() string {
	if e.Cause == nil {
		return "credential: acquisition failed"
	}
	return "credential: acquisition failed: " + e.Cause.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// StaticKey is the pre-shared key variant: the key is returned as-is with no
// expiry tracking.
type StaticKey struct {
	key string
}

func NewStaticKey(key string) *StaticKey {
	return &StaticKey{key: key}
}

func (s *StaticKey) Acquire(ctx context.Context) (Credential, error) {
	if s.key == "" {
		return Credential{}, &AuthError{}
	}
	return Credential{Token: s.key}, nil
}
