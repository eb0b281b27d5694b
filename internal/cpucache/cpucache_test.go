package cpucache

import (
	"context"
	"errors"
	"testing"

	"github.com/fintelia/terra/internal/layer"
	"github.com/fintelia/terra/internal/vnode"
)

type fakeLoader struct {
	data map[vnode.VNode][]byte
	err  error
}

func (f *fakeLoader) Load(ctx context.Context, layerType layer.Type, node vnode.VNode) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data[node], nil
}

func TestRequestThenTickAdmitsTile(t *testing.T) {
	node := vnode.Roots()[0]
	loader := &fakeLoader{data: map[vnode.VNode][]byte{node: {1, 2, 3}}}
	c := New(4, loader)

	c.Request(layer.Heightmaps, node, 1.0)
	if _, ok := c.Lookup(layer.Heightmaps, node); ok {
		t.Fatal("tile should not be resident before Tick")
	}

	if err := c.Tick(context.Background(), 1); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	data, ok := c.Lookup(layer.Heightmaps, node)
	if !ok {
		t.Fatal("tile should be resident after Tick")
	}
	if len(data) != 3 {
		t.Fatalf("data = %v, want 3 bytes", data)
	}
}

func TestTickEvictsLowerPriorityOnFullCache(t *testing.T) {
	roots := vnode.Roots()
	loader := &fakeLoader{data: map[vnode.VNode][]byte{
		roots[0]: {0},
		roots[1]: {1},
	}}
	c := New(1, loader)

	c.Request(layer.Heightmaps, roots[0], 1.0)
	if err := c.Tick(context.Background(), 1); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if _, ok := c.Lookup(layer.Heightmaps, roots[0]); !ok {
		t.Fatal("first tile should be resident")
	}

	c.Request(layer.Heightmaps, roots[1], 5.0)
	if err := c.Tick(context.Background(), 2); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if _, ok := c.Lookup(layer.Heightmaps, roots[1]); !ok {
		t.Fatal("higher-priority newcomer should have evicted the lower-priority resident")
	}
	if _, ok := c.Lookup(layer.Heightmaps, roots[0]); ok {
		t.Fatal("lower-priority resident should have been evicted")
	}
}

func TestTickDropsLowerPriorityNewcomerOnFullCache(t *testing.T) {
	roots := vnode.Roots()
	loader := &fakeLoader{data: map[vnode.VNode][]byte{
		roots[0]: {0},
		roots[1]: {1},
	}}
	c := New(1, loader)

	c.Request(layer.Heightmaps, roots[0], 5.0)
	if err := c.Tick(context.Background(), 1); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	c.Request(layer.Heightmaps, roots[1], 1.0)
	if err := c.Tick(context.Background(), 2); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if _, ok := c.Lookup(layer.Heightmaps, roots[1]); ok {
		t.Fatal("lower-priority newcomer should have been dropped")
	}
	if _, ok := c.Lookup(layer.Heightmaps, roots[0]); !ok {
		t.Fatal("existing higher-priority resident should remain")
	}
}

func TestRequestBumpsPriorityWithoutBlocking(t *testing.T) {
	node := vnode.Roots()[0]
	c := New(4, &fakeLoader{})
	c.Request(layer.Albedo, node, 1.0)
	c.Request(layer.Albedo, node, 2.0)

	c.mu.RLock()
	got := c.entries[entryKey{layer.Albedo, node}].priority
	c.mu.RUnlock()
	if got != 2.0 {
		t.Fatalf("priority = %v, want 2.0 (bumped, not overwritten downward)", got)
	}
}

func TestEvictDropsBelowCutoff(t *testing.T) {
	roots := vnode.Roots()
	c := New(4, &fakeLoader{data: map[vnode.VNode][]byte{roots[0]: {1}, roots[1]: {2}}})
	c.Request(layer.Heightmaps, roots[0], 0.1)
	c.Request(layer.Heightmaps, roots[1], 10.0)
	if err := c.Tick(context.Background(), 1); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	c.Evict(1.0)
	if _, ok := c.Lookup(layer.Heightmaps, roots[0]); ok {
		t.Fatal("entry below cutoff should have been evicted")
	}
	if _, ok := c.Lookup(layer.Heightmaps, roots[1]); !ok {
		t.Fatal("entry above cutoff should remain")
	}
}

func TestTickHandlesLoadError(t *testing.T) {
	node := vnode.Roots()[0]
	c := New(4, &fakeLoader{err: errors.New("boom")})
	c.Request(layer.Heightmaps, node, 1.0)
	if err := c.Tick(context.Background(), 1); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if _, ok := c.Lookup(layer.Heightmaps, node); ok {
		t.Fatal("failed load should not become resident")
	}
}
