package training

import "sync"

// SignatureCache remembers the last generated signature per session. It is
// bounded; when full the least recently touched session is evicted.
type SignatureCache struct {
	entries map[string]*cacheEntry
	mu      sync.Mutex
	maxSize int
	clock   uint64
}

type cacheEntry struct {
	signature string
	touched   uint64
}

// NewSignatureCache creates a cache holding at most maxSize sessions.
func NewSignatureCache(maxSize int) *SignatureCache {
	if maxSize <= 0 {
		maxSize = 64
	}
	return &SignatureCache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
	}
}

// Get returns the last signature stored for session.
func (c *SignatureCache) Get(session string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[session]
	if !ok {
		return "", false
	}
	c.clock++
	entry.touched = c.clock
	return entry.signature, true
}

// Set stores the signature for session.
func (c *SignatureCache) Set(session, signature string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clock++
	if entry, ok := c.entries[session]; ok {
		entry.signature, entry.touched = signature, c.clock
		return
	}
	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[session] = &cacheEntry{signature: signature, touched: c.clock}
}

// Len returns the number of sessions held.
func (c *SignatureCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldest removes the least recently touched entry.
func (c *SignatureCache) evictOldest() {
	var oldestKey string
	var oldest uint64
	found := false

	for key, entry := range c.entries {
		if !found || entry.touched < oldest {
			oldestKey, oldest, found = key, entry.touched, true
		}
	}

	if found {
		delete(c.entries, oldestKey)
	}
}

// Clear empties the cache.
func (c *SignatureCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}
