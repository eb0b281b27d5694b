// Command terrainfo is a small diagnostic tool: it reports a tile store's
// per-layer tile counts by lifecycle state, and can inspect a single
// VNode's address, geometry, and priority against a given camera position.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/fintelia/terra/internal/coordsys"
	"github.com/fintelia/terra/internal/layer"
	"github.com/fintelia/terra/internal/tilestore"
	"github.com/fintelia/terra/internal/vnode"
)

func main() {
	var (
		storeDir string
		nodeSpec string
		cameraLL string
	)

	flag.StringVar(&storeDir, "store", "", "Tile store root directory; prints per-layer tile state counts")
	flag.StringVar(&nodeSpec, "node", "", "Inspect one node, given as level/face/x/y (e.g. 4/2/3/1)")
	flag.StringVar(&cameraLL, "camera", "", "Camera position as lat,lon,altitude-meters, for -node's priority (default: planet center)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: terrainfo [-store <dir>] [-node level/face/x/y [-camera lat,lon,alt]]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if storeDir == "" && nodeSpec == "" {
		flag.Usage()
		os.Exit(1)
	}

	if storeDir != "" {
		if err := printStoreStats(storeDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if nodeSpec != "" {
		if err := printNodeInfo(nodeSpec, cameraLL); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func printStoreStats(storeDir string) error {
	params := layer.DefaultParams(512)
	store, err := tilestore.Open(storeDir, params, "")
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	fmt.Printf("Store: %s\n", storeDir)
	for _, layerType := range layer.AllTypes() {
		stats, err := store.Stats(layerType)
		if err != nil {
			return fmt.Errorf("stats for %s: %w", layerType, err)
		}
		if len(stats) == 0 {
			fmt.Printf("  %-14s (no recorded tiles)\n", layerType)
			continue
		}
		fmt.Printf("  %-14s", layerType)
		for _, state := range []tilestore.State{tilestore.Base, tilestore.Generated, tilestore.MissingBase, tilestore.Missing, tilestore.GpuOnly} {
			if n, ok := stats[state]; ok {
				fmt.Printf(" %s=%d", state, n)
			}
		}
		fmt.Println()
	}

	if desc, data, err := store.ReadTexture("noise"); err == nil {
		fmt.Printf("  %-14s %dx%d %s, %d bytes on disk\n", "noise texture:", desc.Width, desc.Height, desc.Format, len(data))
	}
	return nil
}

func printNodeInfo(spec, cameraLL string) error {
	node, err := parseNodeSpec(spec)
	if err != nil {
		return err
	}

	fmt.Printf("Node: level=%d face=%d x=%d y=%d\n", node.Level(), node.Face(), node.X(), node.Y())
	fmt.Printf("  ApproxSideLength: %.2f m\n", node.ApproxSideLength())

	center := node.CenterWspace(vnode.EarthRadius)
	fmt.Printf("  CenterWspace: (%.1f, %.1f, %.1f)\n", center.X, center.Y, center.Z)
	lla := coordsys.WspaceToLLA(center, vnode.EarthRadius)
	const radToDeg = 180 / math.Pi
	fmt.Printf("  CenterLLA: lat=%.6f lon=%.6f alt=%.1f\n", lla.LatRadians*radToDeg, lla.LonRadians*radToDeg, lla.AltitudeMeters)

	if parent, childIndex, ok := node.Parent(); ok {
		fmt.Printf("  Parent: level=%d face=%d x=%d y=%d (child index %d)\n",
			parent.Level(), parent.Face(), parent.X(), parent.Y(), childIndex)
	} else {
		fmt.Printf("  Parent: none (root)\n")
	}

	camera := vnode.Vec3{X: 0, Y: 0, Z: 0}
	if cameraLL != "" {
		camera, err = parseCamera(cameraLL)
		if err != nil {
			return err
		}
	}
	priority := node.Priority(camera)
	fmt.Printf("  Priority (camera=%.1f,%.1f,%.1f): %.4f (cutoff=%.1f)\n",
		camera.X, camera.Y, camera.Z, priority.Float32(), vnode.Cutoff.Float32())

	return nil
}

func parseNodeSpec(spec string) (vnode.VNode, error) {
	parts := strings.Split(spec, "/")
	if len(parts) != 4 {
		return 0, fmt.Errorf("node spec must be level/face/x/y, got %q", spec)
	}
	var nums [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, fmt.Errorf("invalid node component %q: %w", p, err)
		}
		nums[i] = n
	}
	level, face, x, y := nums[0], nums[1], nums[2], nums[3]
	if level < 0 || level > vnode.MaxLevel {
		return 0, fmt.Errorf("level %d out of range [0, %d]", level, vnode.MaxLevel)
	}
	if face < 0 || face > 5 {
		return 0, fmt.Errorf("face %d out of range [0, 5]", face)
	}
	return vnode.New(uint8(level), uint8(face), uint32(x), uint32(y)), nil
}

// parseCamera parses "lat,lon,altitude" (degrees, degrees, meters) into a
// world-space position.
func parseCamera(s string) (vnode.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return vnode.Vec3{}, fmt.Errorf("camera must be lat,lon,altitude, got %q", s)
	}
	vals := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return vnode.Vec3{}, fmt.Errorf("invalid camera component %q: %w", p, err)
		}
		vals[i] = v
	}
	const degToRad = math.Pi / 180
	lla := coordsys.LLA{LatRadians: vals[0] * degToRad, LonRadians: vals[1] * degToRad, AltitudeMeters: vals[2]}
	return coordsys.LLAToWspace(lla, vnode.EarthRadius), nil
}
