package service

import (
	"sync"

	"phishguard/internal/model"
)

// RecentCache is the bounded most-recent-first verdict list backing the
// dashboard's "recent scans" panel. It lives in memory only, deliberately
// decoupled from the ledger: a slow or failed history append never delays
// what the user sees. Pushes are serialized; when concurrent scans finish
// out of submission order, whichever verdict arrives first lands first.
type RecentCache struct {
	mu    sync.Mutex
	cap   int
	items []model.Verdict
}

func NewRecentCache(capacity int) *RecentCache {
	if capacity <= 0 {
		capacity = 5
	}
	return &RecentCache{cap: capacity}
}

// Push prepends the verdict and truncates to capacity.
func (c *RecentCache) Push(v model.Verdict) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = append([]model.Verdict{v}, c.items...)
	if len(c.items) > c.cap {
		c.items = c.items[:c.cap]
	}
}

// List returns a copy of the current most-recent-first view.
func (c *RecentCache) List() []model.Verdict {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Verdict, len(c.items))
	copy(out, c.items)
	return out
}

// Len reports the number of cached verdicts.
func (c *RecentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Recents keys per-user caches by owner ID. Session-scoped state; nothing
// here survives a restart.
type Recents struct {
	mu       sync.Mutex
	capacity int
	caches   map[string]*RecentCache
}

func NewRecents(capacity int) *Recents {
	return &Recents{
		capacity: capacity,
		caches:   make(map[string]*RecentCache),
	}
}

// For returns the cache for one owner, creating it on first use.
func (r *Recents) For(ownerID string) *RecentCache {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.caches[ownerID]
	if !ok {
		c = NewRecentCache(r.capacity)
		r.caches[ownerID] = c
	}
	return c
}

// Drop discards an owner's cache, e.g. on logout.
func (r *Recents) Drop(ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.caches, ownerID)
}
