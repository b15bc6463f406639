// internal/app/system/scopecache/scopecache.go
package scopecache

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultTTL is used when New is given a non-positive TTL.
const DefaultTTL = 5 * time.Minute

// LookupFunc resolves the owning consulting admin for a client.
// A nil ID with a nil error means the client exists but has no owner.
type LookupFunc func(ctx context.Context, clientID primitive.ObjectID) (*primitive.ObjectID, error)

// Cache memoizes client ownership lookups with a per-entry TTL.
//
// Ownership is read on hot paths (every audit write stamps the owning
// admin) but changes rarely, so entries are served from memory and
// refreshed from the store only after they expire or are invalidated.
// Ownerless clients are cached like any other result; lookup errors are
// returned to the caller and nothing is cached for them.
type Cache struct {
	ttl    time.Duration
	lookup LookupFunc

	mu      sync.Mutex
	entries map[primitive.ObjectID]*entry
}

type entry struct {
	owner *primitive.ObjectID
	timer *time.Timer
}

// New creates a cache backed by lookup. A non-positive ttl falls back to
// DefaultTTL.
func New(ttl time.Duration, lookup LookupFunc) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		lookup:  lookup,
		entries: make(map[primitive.ObjectID]*entry),
	}
}

// OwnerAdminID returns the owning consulting admin for the client,
// consulting the cache first.
func (c *Cache) OwnerAdminID(ctx context.Context, clientID primitive.ObjectID) (*primitive.ObjectID, error) {
	c.mu.Lock()
	if e, ok := c.entries[clientID]; ok {
		owner := e.owner
		c.mu.Unlock()
		return owner, nil
	}
	c.mu.Unlock()

	// Concurrent misses for the same client may each hit the store;
	// the last result wins, which is fine for a read-through cache.
	owner, err := c.lookup(ctx, clientID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.entries[clientID]; ok {
		old.timer.Stop()
	}
	e := &entry{owner: owner}
	e.timer = time.AfterFunc(c.ttl, func() { c.expire(clientID, e) })
	c.entries[clientID] = e
	return owner, nil
}

// expire removes the entry only if it is still the one the timer was
// armed for. A timer that fires after Invalidate or a refresh must not
// evict the newer entry.
func (c *Cache) expire(clientID primitive.ObjectID, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[clientID]; ok && cur == e {
		delete(c.entries, clientID)
	}
}

// Invalidate drops the cached owner for a client. Callers invoke it after
// reassigning a client so readers do not see the old admin for up to a
// full TTL.
func (c *Cache) Invalidate(clientID primitive.ObjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[clientID]; ok {
		e.timer.Stop()
		delete(c.entries, clientID)
	}
}

// Len reports the number of cached clients.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
