package op

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

const assertionCacheSize = 10000

// assertionCache remembers the jti of the client assertions
// until they expire, so each assertion authenticates only once.
// The least recently used entries are evicted when it is full.
type assertionCache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

func newAssertionCache(size int) (*assertionCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &assertionCache{cache: cache}, nil
}

// use records the jti of the client until expiresAt. It returns false
// when the jti was used before and has not expired at now.
func (c *assertionCache) use(clientID, jti string, expiresAt, now time.Time) bool {
	key := clientID + "\x00" + jti
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.cache.Get(key); ok && now.Before(v.(time.Time)) {
		return false
	}
	c.cache.Add(key, expiresAt)
	return true
}
