// Package cpucache is the bounded, priority-admitted pool of decoded tile
// buffers that sits between the GPU cache and the tile store: a request
// records desire without blocking, a periodic tick drives loads for
// non-resident entries, and admission/eviction at load completion is
// decided strictly by priority (spec §4.6).
package cpucache

import (
	"context"
	"sync"

	"github.com/fintelia/terra/internal/layer"
	"github.com/fintelia/terra/internal/vnode"
)

// entryKey identifies one cached tile.
type entryKey struct {
	Layer layer.Type
	Node  vnode.VNode
}

// entry holds one cache slot's state, whether or not it has finished
// loading. Non-resident entries have bytes == nil.
type entry struct {
	priority       vnode.Priority
	lastUsedFrame  uint64
	bytes          []byte
	loadInFlight   bool
}

// Loader fetches a tile's bytes, typically by delegating to a tile store
// (and, transitively, the tile generators). Cache does not know how a tile
// is produced — this is its only collaborator.
type Loader interface {
	Load(ctx context.Context, layerType layer.Type, node vnode.VNode) ([]byte, error)
}

// Cache is a bounded, priority-admitted pool of decoded tile buffers.
// Single-writer, multi-reader per spec §5: mutations (Tick's admissions,
// Request's priority bumps) take the exclusive lock; Lookup takes the
// shared one.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	entries  map[entryKey]*entry
	loader   Loader
}

// New creates a Cache admitting up to capacity resident tiles, using loader
// to fetch tiles that are requested but not yet resident.
func New(capacity int, loader Loader) *Cache {
	return &Cache{
		capacity: capacity,
		entries:  make(map[entryKey]*entry),
		loader:   loader,
	}
}

// Request records desire for a (layer, node) tile at the given priority.
// If the entry already exists (resident or not), its priority is raised to
// the new value when that is higher (never lowered); otherwise a new non-resident entry is created. Request
// never blocks — it only records state for the next Tick to act on.
func (c *Cache) Request(layerType layer.Type, node vnode.VNode, priority vnode.Priority) {
	key := entryKey{layerType, node}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		if priority > e.priority {
			e.priority = priority
		}
		return
	}
	c.entries[key] = &entry{priority: priority}
}

// Lookup returns a resident tile's bytes, or ok=false if the tile is not
// currently resident (whether never requested, still loading, or dropped).
func (c *Cache) Lookup(layerType layer.Type, node vnode.VNode) (data []byte, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, found := c.entries[entryKey{layerType, node}]
	if !found || e.bytes == nil {
		return nil, false
	}
	return e.bytes, true
}

// Tick drives one round of loading: every requested-but-non-resident entry
// without an in-flight load is fetched from the loader (synchronously, on
// the calling goroutine — callers wanting concurrency should call Tick from
// a worker pool themselves, same as the teacher's single compute-thread-pool
// model). Loads complete out of request order; admission at completion is
// decided strictly by priority (spec §4.6): if the cache has spare capacity
// the tile is admitted outright, otherwise it replaces the lowest-priority
// resident entry only if that entry's priority is strictly less than the
// newcomer's, and is dropped (never recorded as resident) otherwise.
func (c *Cache) Tick(ctx context.Context, frameIdx uint64) error {
	type pending struct {
		key      entryKey
		priority vnode.Priority
	}

	c.mu.Lock()
	var toLoad []pending
	for key, e := range c.entries {
		if e.bytes == nil && !e.loadInFlight {
			e.loadInFlight = true
			toLoad = append(toLoad, pending{key, e.priority})
		}
	}
	c.mu.Unlock()

	for _, p := range toLoad {
		data, err := c.loader.Load(ctx, p.key.Layer, p.key.Node)

		c.mu.Lock()
		e, stillWanted := c.entries[p.key]
		if !stillWanted {
			c.mu.Unlock()
			continue
		}
		e.loadInFlight = false
		if err != nil {
			c.mu.Unlock()
			continue
		}

		if c.residentCountLocked() < c.capacity {
			e.bytes = data
			e.lastUsedFrame = frameIdx
		} else if victim := c.lowestPriorityResidentLocked(); victim != nil && victim.priority < e.priority {
			victim.bytes = nil
			e.bytes = data
			e.lastUsedFrame = frameIdx
		}
		// else: newcomer dropped, cache unchanged.
		c.mu.Unlock()
	}
	return nil
}

func (c *Cache) residentCountLocked() int {
	n := 0
	for _, e := range c.entries {
		if e.bytes != nil {
			n++
		}
	}
	return n
}

func (c *Cache) lowestPriorityResidentLocked() *entry {
	var min *entry
	for _, e := range c.entries {
		if e.bytes == nil {
			continue
		}
		if min == nil || e.priority < min.priority {
			min = e
		}
	}
	return min
}

// Evict drops any entry (resident or not) whose priority has fallen below
// cutoff, freeing its slot for reuse. Callers invoke this once per frame
// with the selector's current hysteresis cutoff (spec §4.8's cutoff/K).
func (c *Cache) Evict(cutoff vnode.Priority) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if e.priority < cutoff {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of entries currently resident.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.residentCountLocked()
}
