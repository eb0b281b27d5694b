// Package gpucache models the GPU-resident tile cache: a fixed-size slot
// array per layer that the frame selector diffs against a desired set each
// frame, uploading newcomers through an injected Uploader and evicting by
// priority (spec §4.7). It owns no real GPU objects — committing upload
// bytes to device memory is an external collaborator, out of scope per
// spec §1 — so Uploader is the only seam to a real graphics API.
package gpucache

import (
	"context"
	"sort"
	"sync"

	"github.com/fintelia/terra/internal/layer"
	"github.com/fintelia/terra/internal/vnode"
)

// Uploader commits a tile's bytes into a device-memory slot. Real
// implementations would issue a GPU command-encoder write; this package
// only ever calls it with the information needed to do so.
type Uploader interface {
	Upload(ctx context.Context, layerType layer.Type, slot int, data []byte) error
}

// slotState describes one slot; occupied is false for an empty slot.
type slotState struct {
	node     vnode.VNode
	occupied bool
	priority vnode.Priority
}

// layerTable is one layer's fixed-size slot array plus a node->slot index.
type layerTable struct {
	slots  []slotState
	bySlot map[vnode.VNode]int
}

// Cache is the GPU-resident tile cache, one fixed-size slot array per
// layer. Owned by the render thread per spec §5; other goroutines must not
// call Ensure concurrently with each other for the same layer, though
// LookupSlot is safe to call from any goroutine.
type Cache struct {
	mu       sync.RWMutex
	uploader Uploader
	tables   map[layer.Type]*layerTable
}

// New creates a Cache with the given number of slots per layer.
func New(uploader Uploader, slotsPerLayer map[layer.Type]int) *Cache {
	tables := make(map[layer.Type]*layerTable, len(slotsPerLayer))
	for layerType, slots := range slotsPerLayer {
		tables[layerType] = &layerTable{
			slots:  make([]slotState, slots),
			bySlot: make(map[vnode.VNode]int, slots),
		}
	}
	return &Cache{uploader: uploader, tables: tables}
}

// Desired pairs a node with its computed priority, the selector's per-frame
// input to Ensure.
type Desired struct {
	Node     vnode.VNode
	Priority vnode.Priority
}

// TileSource supplies the encoded bytes for a tile that Ensure has decided
// to upload; the cpucache.Cache typically fills this role.
type TileSource interface {
	Lookup(layerType layer.Type, node vnode.VNode) (data []byte, ok bool)
}

// Ensure computes the symmetric difference between desired and the layer's
// current resident set, then admits newcomers sorted by descending
// priority: each either takes an empty slot, or replaces the minimum-
// priority resident slot whose priority is strictly less than the
// newcomer's. Newcomers whose data isn't yet available from source (still
// loading in the CPU cache) are skipped this frame and retried next frame
// once the CPU cache has it. Uploads for one call to Ensure are logically
// one batch (spec §4.7: "batched per frame and submitted via a single
// command encoder"); this implementation issues them via uploader in
// descending-priority order, which a real Uploader can still coalesce
// into one encoder submission if it wishes.
func (c *Cache) Ensure(ctx context.Context, layerType layer.Type, desired []Desired, source TileSource) error {
	c.mu.Lock()
	table, ok := c.tables[layerType]
	if !ok {
		c.mu.Unlock()
		return nil
	}

	desiredSet := make(map[vnode.VNode]vnode.Priority, len(desired))
	for _, d := range desired {
		desiredSet[d.Node] = d.Priority
	}

	// Drop residents no longer desired.
	for node, slot := range table.bySlot {
		if _, stillWanted := desiredSet[node]; !stillWanted {
			table.slots[slot] = slotState{}
			delete(table.bySlot, node)
		}
	}

	var newcomers []Desired
	for node, priority := range desiredSet {
		if _, resident := table.bySlot[node]; !resident {
			newcomers = append(newcomers, Desired{node, priority})
		}
	}
	sort.Slice(newcomers, func(i, j int) bool { return newcomers[i].Priority > newcomers[j].Priority })
	c.mu.Unlock()

	for _, newcomer := range newcomers {
		data, ok := source.Lookup(layerType, newcomer.Node)
		if !ok {
			continue
		}

		c.mu.Lock()
		slotIdx, admit := c.admitLocked(table, newcomer)
		if admit {
			table.slots[slotIdx] = slotState{node: newcomer.Node, occupied: true, priority: newcomer.Priority}
			table.bySlot[newcomer.Node] = slotIdx
		}
		c.mu.Unlock()

		if !admit {
			continue
		}
		if err := c.uploader.Upload(ctx, layerType, slotIdx, data); err != nil {
			return err
		}
	}
	return nil
}

// admitLocked finds a slot for newcomer: an empty slot if one exists,
// otherwise the minimum-priority resident slot if its priority is strictly
// less than newcomer's. Returns ok=false if no slot is available.
func (c *Cache) admitLocked(table *layerTable, newcomer Desired) (slot int, ok bool) {
	minIdx, minPriority := -1, vnode.Priority(0)
	for i, s := range table.slots {
		if !s.occupied {
			return i, true
		}
		if minIdx == -1 || s.priority < minPriority {
			minIdx, minPriority = i, s.priority
		}
	}
	if minIdx >= 0 && minPriority < newcomer.Priority {
		delete(table.bySlot, table.slots[minIdx].node)
		return minIdx, true
	}
	return 0, false
}

// LookupSlot returns the slot index a node currently occupies in a layer's
// array, or ok=false if it is not resident.
func (c *Cache) LookupSlot(layerType layer.Type, node vnode.VNode) (slot int, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	table, exists := c.tables[layerType]
	if !exists {
		return 0, false
	}
	slot, ok = table.bySlot[node]
	return slot, ok
}

// Invalidate drops a node from a layer's resident set regardless of
// priority, for when the tile's on-disk content version has changed (spec
// §4.7's "generation counter to invalidate slots whose tile content
// version on disk has changed").
func (c *Cache) Invalidate(layerType layer.Type, node vnode.VNode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	table, ok := c.tables[layerType]
	if !ok {
		return
	}
	if slot, resident := table.bySlot[node]; resident {
		table.slots[slot] = slotState{}
		delete(table.bySlot, node)
	}
}

// Resident reports how many slots of a layer are currently occupied.
func (c *Cache) Resident(layerType layer.Type) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	table, ok := c.tables[layerType]
	if !ok {
		return 0
	}
	return len(table.bySlot)
}
