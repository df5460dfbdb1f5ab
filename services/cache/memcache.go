package cache

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService implements CacheService over memcache. It backs the
// fetcher's per-host rate-limit blocks, shared across worker processes
// pointed at the same memcached.
type MemcacheService struct {
	client *memcache.Client
}

// NewMemcacheService creates a memcache-backed cache service
func NewMemcacheService(serverAddr string) *MemcacheService {
	return &MemcacheService{
		client: memcache.New(serverAddr),
	}
}

// Get retrieves a value. A miss returns memcache.ErrCacheMiss.
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Set stores a value with an expiration. Sub-second expirations round
// up to one second; a zero expiration in memcache would mean "never",
// which is never what a politeness block wants.
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	seconds := int32(expiration.Seconds())
	if expiration > 0 && seconds == 0 {
		seconds = 1
	}
	return m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: seconds,
	})
}

// Delete removes a value
func (m *MemcacheService) Delete(key string) error {
	return m.client.Delete(key)
}
