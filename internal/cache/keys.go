package cache

import "time"

// Cached listings. Per-entity pages always read through to the database.
const (
	UsersListKey = "blogly:users:list"
	TagsListKey  = "blogly:tags:list"
)

// DefaultTTL applies when the configured TTL is not positive.
const DefaultTTL = time.Minute

var ttl = DefaultTTL

// SetTTL configures the expiry for cached listings.
func SetTTL(d time.Duration) {
	if d <= 0 {
		d = DefaultTTL
	}
	ttl = d
}

// TTL returns the expiry for cached listings.
func TTL() time.Duration {
	return ttl
}
