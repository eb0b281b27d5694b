package selector

import (
	"context"
	"testing"

	"github.com/fintelia/terra/internal/gpucache"
	"github.com/fintelia/terra/internal/layer"
	"github.com/fintelia/terra/internal/vnode"
)

type fakeUploader struct{}

func (fakeUploader) Upload(ctx context.Context, layerType layer.Type, slot int, data []byte) error {
	return nil
}

type fakeSource map[vnode.VNode][]byte

func (f fakeSource) Lookup(layerType layer.Type, node vnode.VNode) ([]byte, bool) {
	data, ok := f[node]
	return data, ok
}

func TestSelectIncludesDistantRootsAtLeafLevel(t *testing.T) {
	far := vnode.Vec3{X: 0, Y: 0, Z: vnode.EarthRadius * 5}
	draw := Select(Config{}, far)
	if len(draw) == 0 {
		t.Fatal("expected at least one draw-set entry for a far-away camera")
	}
	for _, entry := range draw {
		if entry.Node.Level() != 0 {
			t.Fatalf("far camera should only draw roots, got level %d", entry.Node.Level())
		}
	}
}

func TestSelectDescendsNearCamera(t *testing.T) {
	node := vnode.Roots()[4]
	camera := node.CenterWspace(vnode.EarthRadius)
	draw := Select(Config{}, camera)
	if len(draw) == 0 {
		t.Fatal("expected a non-empty draw set")
	}
	maxLevel := uint8(0)
	for _, entry := range draw {
		if entry.Node.Level() > maxLevel {
			maxLevel = entry.Node.Level()
		}
	}
	if maxLevel == 0 {
		t.Fatal("a camera sitting on a node's surface should cause subdivision past level 0")
	}
}

func TestDesiredSetFiltersByPresentCap(t *testing.T) {
	roots := vnode.Roots()
	deep := roots[0].Children()[0]
	draw := []DrawEntry{{Node: roots[0], Priority: 1}, {Node: deep, Priority: 1}}

	cfg := Config{PresentLevelCaps: map[layer.Type]uint8{layer.Heightmaps: 0}}
	desired := DesiredSet(cfg, draw, layer.Heightmaps)
	if len(desired) != 1 || desired[0].Node != roots[0] {
		t.Fatalf("expected only the level-0 node past the cap, got %v", desired)
	}
}

func TestBuildDrawListFallsBackToResidentAncestor(t *testing.T) {
	uploader := fakeUploader{}
	gpu := gpucache.New(uploader, map[layer.Type]int{layer.Albedo: 4})

	root := vnode.Roots()[0]
	child := root.Children()[0]
	grandchild := child.Children()[0]

	source := fakeSource{root: {1}}
	if err := gpu.Ensure(context.Background(), layer.Albedo, []gpucache.Desired{{Node: root, Priority: 1}}, source); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	list := BuildDrawList(gpu, layer.Albedo, []DrawEntry{{Node: grandchild, Priority: 1}})
	if len(list) != 1 {
		t.Fatalf("expected one draw-list entry, got %d", len(list))
	}
	entry := list[0]
	if entry.Generations != 2 {
		t.Fatalf("Generations = %d, want 2 (grandchild -> child -> root)", entry.Generations)
	}
	if entry.Scale() != 0.25 {
		t.Fatalf("Scale() = %v, want 0.25", entry.Scale())
	}
	rootSlot, _ := gpu.LookupSlot(layer.Albedo, root)
	if entry.Slot != rootSlot {
		t.Fatalf("Slot = %d, want the root's slot %d", entry.Slot, rootSlot)
	}
}

func TestBuildDrawListOmitsNodeWithNoResidentAncestor(t *testing.T) {
	uploader := fakeUploader{}
	gpu := gpucache.New(uploader, map[layer.Type]int{layer.Albedo: 4})
	node := vnode.Roots()[0]

	list := BuildDrawList(gpu, layer.Albedo, []DrawEntry{{Node: node, Priority: 1}})
	if len(list) != 0 {
		t.Fatalf("expected an empty draw list when nothing is resident, got %v", list)
	}
}

func TestBuildDrawListUsesOwnSlotWhenResident(t *testing.T) {
	uploader := fakeUploader{}
	gpu := gpucache.New(uploader, map[layer.Type]int{layer.Albedo: 4})
	node := vnode.Roots()[0]

	source := fakeSource{node: {1}}
	if err := gpu.Ensure(context.Background(), layer.Albedo, []gpucache.Desired{{Node: node, Priority: 1}}, source); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	list := BuildDrawList(gpu, layer.Albedo, []DrawEntry{{Node: node, Priority: 1}})
	if len(list) != 1 || list[0].Generations != 0 {
		t.Fatalf("expected the node's own slot with Generations=0, got %v", list)
	}
}
