package cache

import (
	"time"
)

// CacheService is the shared politeness cache. The fetcher keys
// rate-limit blocks by host in it so every worker honors a block any
// of them triggered.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}
