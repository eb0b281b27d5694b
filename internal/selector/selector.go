// Package selector runs the per-frame quadtree traversal that turns a
// camera position into a draw list: descending the virtual quadtree by
// priority, deriving per-layer desired sets, driving the GPU cache's
// ensure step, and falling back to the nearest resident ancestor for
// nodes whose own tile isn't uploaded yet (spec §4.8).
package selector

import (
	"context"

	"github.com/fintelia/terra/internal/gpucache"
	"github.com/fintelia/terra/internal/layer"
	"github.com/fintelia/terra/internal/vnode"
)

// defaultHysteresisK is the fraction of the descend cutoff a node may fall to
// without leaving the draw set, smoothing the boundary between "still
// subdividing" and "drawn as a leaf" so nodes don't pop in and out of the
// draw list as the camera moves slightly. Interpreted as a multiplicative
// fraction (threshold = cutoff * K) rather than a literal division — see
// the Open Question note in DESIGN.md.
const defaultHysteresisK = 0.25

// RequiredLayers are the layers every drawn node needs for rendering
// (spec §4.8 step 3). Heightmaps are requested separately, only for
// physics queries, via PhysicsLayer.
var RequiredLayers = [3]layer.Type{layer.Displacements, layer.Normals, layer.Albedo}

// PhysicsLayer is the layer requested for physics queries rather than
// rendering.
const PhysicsLayer = layer.Heightmaps

// Config bundles the tunables governing one Selector's traversal.
type Config struct {
	// Cutoff is the minimum priority a node must have to be worth
	// subdividing into children (spec §4.8 step 2). Defaults to
	// vnode.Cutoff if zero.
	Cutoff vnode.Priority
	// HysteresisK scales Cutoff down to the draw-set inclusion threshold
	// for nodes that stopped subdividing. Defaults to defaultHysteresisK
	// if zero.
	HysteresisK float64
	// PlanetRadius is the sphere radius nodes are projected onto when
	// computing distance/priority to the camera.
	PlanetRadius float64
	// PresentLevelCaps bounds how deep each layer's tiles are
	// independently generated; nodes deeper than a layer's cap are
	// excluded from that layer's desired set (they rely on the ancestor
	// fallback in BuildDrawList instead).
	PresentLevelCaps map[layer.Type]uint8
}

func (c Config) cutoff() vnode.Priority {
	if c.Cutoff == 0 {
		return vnode.Cutoff
	}
	return c.Cutoff
}

func (c Config) hysteresisK() float64 {
	if c.HysteresisK == 0 {
		return defaultHysteresisK
	}
	return c.HysteresisK
}

func (c Config) drawThreshold() vnode.Priority {
	return vnode.FromFloat32(c.cutoff().Float32() * float32(c.hysteresisK()))
}

func (c Config) presentCap(layerType layer.Type) uint8 {
	if cap, ok := c.PresentLevelCaps[layerType]; ok {
		return cap
	}
	return vnode.MaxLevel
}

// DrawEntry is one node the traversal decided to draw, with its computed
// priority.
type DrawEntry struct {
	Node     vnode.VNode
	Priority vnode.Priority
}

// Select performs spec §4.8 steps 1-2: breadth-first descent from the six
// roots, computing each node's priority against camera (world space), and
// building the draw set.
func Select(cfg Config, camera vnode.Vec3) []DrawEntry {
	cutoff := cfg.cutoff()
	threshold := cfg.drawThreshold()

	var draw []DrawEntry
	vnode.BreadthFirst(func(node vnode.VNode) bool {
		priority := node.Priority(camera)
		descend := priority >= cutoff && node.Level() < vnode.MaxLevel
		if !descend && priority >= threshold {
			draw = append(draw, DrawEntry{Node: node, Priority: priority})
		}
		return descend
	})
	return draw
}

// DesiredSet filters the draw set down to the nodes a layer's desired set
// should contain: everything in the draw set at or above that layer's
// present-level cap (spec §4.8 step 3).
func DesiredSet(cfg Config, draw []DrawEntry, layerType layer.Type) []gpucache.Desired {
	maxLevel := cfg.presentCap(layerType)
	desired := make([]gpucache.Desired, 0, len(draw))
	for _, entry := range draw {
		if entry.Node.Level() <= maxLevel {
			desired = append(desired, gpucache.Desired{Node: entry.Node, Priority: entry.Priority})
		}
	}
	return desired
}

// EnsureLayer drives GPU.ensure for one layer given the draw set (spec
// §4.8 step 4).
func EnsureLayer(ctx context.Context, cfg Config, gpu *gpucache.Cache, layerType layer.Type, draw []DrawEntry, source gpucache.TileSource) error {
	return gpu.Ensure(ctx, layerType, DesiredSet(cfg, draw, layerType), source)
}

// DrawListEntry is one entry of the final per-layer draw list: either the
// node's own GPU slot, or the nearest resident ancestor's slot plus the
// sub-region UV transform needed to sample it as if it were this node's
// own tile (spec §4.8 step 5).
type DrawListEntry struct {
	Node        vnode.VNode
	Slot        int
	Generations int
	OffsetX     uint32
	OffsetY     uint32
}

// Scale returns the UV scale factor for sampling the ancestor slot's
// texture as this node's own: 1.0 when the node's own tile is resident
// (Generations == 0), halving once per generation climbed.
func (e DrawListEntry) Scale() float64 {
	return 1.0 / float64(uint32(1)<<uint(e.Generations))
}

// BuildDrawList resolves each draw-set node to a GPU slot, falling back to
// the nearest resident ancestor via VNode.FindAncestor when the node's own
// tile isn't uploaded yet. Nodes with no resident ancestor at all (e.g. the
// very first frame, before any root tile has loaded) are omitted.
func BuildDrawList(gpu *gpucache.Cache, layerType layer.Type, draw []DrawEntry) []DrawListEntry {
	list := make([]DrawListEntry, 0, len(draw))
	for _, entry := range draw {
		if slot, ok := gpu.LookupSlot(layerType, entry.Node); ok {
			list = append(list, DrawListEntry{Node: entry.Node, Slot: slot})
			continue
		}

		ancestor, generations, offsetX, offsetY, found := entry.Node.FindAncestor(func(candidate vnode.VNode) bool {
			_, ok := gpu.LookupSlot(layerType, candidate)
			return ok
		})
		if !found {
			continue
		}
		slot, _ := gpu.LookupSlot(layerType, ancestor)
		list = append(list, DrawListEntry{
			Node:        entry.Node,
			Slot:        slot,
			Generations: generations,
			OffsetX:     offsetX,
			OffsetY:     offsetY,
		})
	}
	return list
}
