package auth

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// TokenBlacklist is a bounded, concurrency-safe set of revoked access
// tokens. Entries expire after the configured TTL, which should be at
// least the access token validity so a revoked token can never outlive
// its blacklist entry.
type TokenBlacklist struct {
	set *expirable.LRU[string, struct{}]
}

// NewTokenBlacklist creates a blacklist holding at most size entries,
// each expiring after ttl.
func NewTokenBlacklist(size int, ttl time.Duration) *TokenBlacklist {
	return &TokenBlacklist{
		set: expirable.NewLRU[string, struct{}](size, nil, ttl),
	}
}

// Revoke adds a token to the blacklist.
func (b *TokenBlacklist) Revoke(token string) {
	b.set.Add(token, struct{}{})
}

// IsRevoked reports whether a token has been revoked and not yet expired.
func (b *TokenBlacklist) IsRevoked(token string) bool {
	_, ok := b.set.Get(token)
	return ok
}
